// Package version carries the build metadata of the gbelt binaries.
//
// Version, Commit and BuildTime are set with -ldflags "-X ..." at release time.
package version
