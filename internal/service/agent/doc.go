// Package agent wires the settings, the flock store, the device client, the
// notifier and the scheduler into the long-running gbelt-agent process.
package agent
