// Package store keeps the live flock configuration.
//
// Store loads the file at startup, hands out immutable snapshots, persists
// replacements and reloads the file when it changes on disk. A reload that
// fails to parse keeps the previous snapshot.
package store
