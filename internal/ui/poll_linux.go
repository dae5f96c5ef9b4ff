//go:build linux

package ui

import (
	"fmt"
	"syscall"
	"time"
)

// stdinReadyWithin reports whether fd has data available to read
// within d, polling with select(2) the way the teacher's
// RawMode.ReadKeyContext does on Linux.
func stdinReadyWithin(fd int, d time.Duration) (bool, error) {
	var readFds syscall.FdSet
	readFds.Bits[fd/64] |= 1 << (uint(fd) % 64)
	tv := syscall.NsecToTimeval(d.Nanoseconds())
	n, err := syscall.Select(fd+1, &readFds, nil, nil, &tv)
	if err != nil {
		if err == syscall.EINTR {
			return false, nil
		}
		return false, fmt.Errorf("select: %w", err)
	}
	return n > 0, nil
}
