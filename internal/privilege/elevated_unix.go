//go:build unix

package privilege

import "golang.org/x/sys/unix"

// Elevated reports whether the effective user is root.
func Elevated() bool {
	return unix.Geteuid() == 0
}
