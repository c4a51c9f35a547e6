// Package util holds small cross-cutting values with no other natural
// home; today that's just the binary's own version, printed by
// `cxxindex --version`.
package util

type VersionType struct {
	Major    uint
	Minor    uint
	Revision uint
}

var Version = VersionType{
	Major:    1,
	Minor:    0,
	Revision: 0,
}
