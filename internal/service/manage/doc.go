// Package manage implements the gbelt commands that inspect and edit the
// flock configuration file.
package manage
