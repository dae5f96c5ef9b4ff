//go:build darwin

package ui

import (
	"fmt"
	"syscall"
	"time"
)

// stdinReadyWithin reports whether fd has data available to read
// within d, polling with select(2) the way the teacher's
// RawMode.ReadKeyContext does on Darwin, where Select returns only an
// error and readiness is read back from the fd set.
func stdinReadyWithin(fd int, d time.Duration) (bool, error) {
	var readFds syscall.FdSet
	readFds.Bits[fd/32] |= 1 << (uint(fd) % 32)
	tv := syscall.NsecToTimeval(d.Nanoseconds())
	if err := syscall.Select(fd+1, &readFds, nil, nil, &tv); err != nil {
		if err == syscall.EINTR {
			return false, nil
		}
		return false, fmt.Errorf("select: %w", err)
	}
	return readFds.Bits[fd/32]&(1<<(uint(fd)%32)) != 0, nil
}
