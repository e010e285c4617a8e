//go:build !windows && !unix

package privilege

// Elevated is always false where elevation cannot be probed.
func Elevated() bool {
	return false
}
