//go:build !windows

package maintenance

import "context"

// ResetComDB reports ErrUnsupported outside Windows.
func ResetComDB(context.Context) error {
	return ErrUnsupported
}
