//go:build !unix

package engine

// lockStore is a no-op where advisory file locks are unavailable; only the
// in-process Coordinator guards the store there.
func lockStore(string) (func() error, error) {
	return func() error { return nil }, nil
}
