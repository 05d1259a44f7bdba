// Package flock implements on-disk persistence of the flock configuration.
//
// FileRepository reads and writes the JSON file, creates it with defaults on
// first use and replaces it atomically on save.
package flock
