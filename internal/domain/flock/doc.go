// Package flock holds the user-editable configuration of the agent: how often
// to poll and which MicroGoose devices (nickname -> host) make up the flock.
package flock
