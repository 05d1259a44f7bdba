// Package scheduler drives the poll cycles of the agent.
//
// Each cycle reads the current flock configuration, runs one pipeline per
// device (poll, correlate, track, notify) and then waits the configured poll
// rate, measured from the end of the cycle. A failing device never affects
// the other pipelines of the same cycle.
package scheduler
