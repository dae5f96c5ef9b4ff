//go:build !linux && !darwin

package ui

import "time"

// stdinReadyWithin has no non-blocking poll on this platform; it
// reports stdin as always ready, so the caller falls back to a
// blocking Read (no responsive cancellation via stopCh, only via the
// byte actually arriving).
func stdinReadyWithin(fd int, d time.Duration) (bool, error) {
	return true, nil
}
