// Package alarm contains the core domain types of the agent.
//
// Device and Descriptor are the normalised view of one MicroGoose poll,
// Event is the correlated form consumed by the tracker, and the fingerprint
// identifies one alarm rule across polls.
package alarm
