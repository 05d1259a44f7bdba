// Package tracker implements the edge-triggered alarm state machine.
//
// A fingerprint is active while its last observation was tripped. Only the
// untripped->tripped and tripped->untripped edges produce a transition;
// repeated observations in the same state are silent. State is kept in
// memory for the life of the process.
package tracker
