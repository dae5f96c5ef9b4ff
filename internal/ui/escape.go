// Package ui provides the terminal input handling the CLI host needs
// while a turn is in flight: raw-mode escape-to-cancel. Terminal output
// rendering (banners, color, markdown) is explicitly out of scope.
package ui

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/term"
)

// ErrNotATerminal is returned by NewEscapeListener when stdin isn't a
// TTY (piped input, tests, CI) — the caller should proceed without
// escape-to-cancel rather than fail the turn.
var ErrNotATerminal = errors.New("ui: stdin is not a terminal")

// EscapeListener puts stdin into raw mode and watches for an Esc
// keypress (0x1B) while a request is in flight, cancelling a derived
// context when one arrives.
type EscapeListener struct {
	fd       int
	oldState *term.State
	cancel   context.CancelFunc
	stopCh   chan struct{}
	done     chan struct{}
}

// NewEscapeListener derives a cancellable context from parent and
// starts watching stdin for Esc. Call Stop when the turn completes to
// restore the terminal and release the read goroutine.
func NewEscapeListener(parent context.Context) (context.Context, *EscapeListener, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return parent, nil, ErrNotATerminal
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return parent, nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	l := &EscapeListener{
		fd:       fd,
		oldState: oldState,
		cancel:   cancel,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go l.readLoop()
	return ctx, l, nil
}

func (l *EscapeListener) readLoop() {
	defer close(l.done)
	buf := make([]byte, 1)
	for {
		select {
		case <-l.stopCh:
			return
		default:
		}
		ready, err := stdinReadyWithin(l.fd, 100*time.Millisecond)
		if err != nil {
			return
		}
		if !ready {
			continue
		}
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return
		}
		if buf[0] == 0x1B {
			l.cancel()
			return
		}
	}
}

// Stop restores the terminal's original mode and releases the read
// goroutine. It may be called only once: a second call closes stopCh
// again and panics.
func (l *EscapeListener) Stop() {
	close(l.stopCh)
	_ = term.Restore(l.fd, l.oldState)
	<-l.done
	l.cancel()
}
