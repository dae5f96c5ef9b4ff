package commands

import (
	"context"
	"testing"
	"time"

	"github.com/rgovind/neo/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitSleepsForRequestedDurationOnFakeClock(t *testing.T) {
	fc := clock.NewFakeClock(time.Unix(0, 0))
	d := newTestDeps(t)
	d.Clock = fc
	cmd := &WaitCommand{Deps: d}

	done := make(chan struct{})
	var res string
	go func() {
		r, err := cmd.Execute(context.Background(), "wait --duration 3", false, "")
		require.NoError(t, err)
		res = r.Content
		close(done)
	}()

	require.True(t, fc.AwaitSleepers(1, time.Second))
	fc.Advance(3 * time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait command did not return after clock advanced")
	}
	assert.Equal(t, "Waited for 3 seconds", res)
}

func TestWaitDefaultsToFiveSeconds(t *testing.T) {
	d := newTestDeps(t)
	cmd := &WaitCommand{Deps: d}
	n, err := cmd.parse("wait")
	require.NoError(t, err)
	assert.Equal(t, defaultWaitSeconds, n)
}

func TestWaitValidateRejectsNegativeDuration(t *testing.T) {
	d := newTestDeps(t)
	cmd := &WaitCommand{Deps: d}
	assert.Error(t, cmd.Validate("wait --duration -1", false, ""))
}

func TestWaitValidateRejectsData(t *testing.T) {
	d := newTestDeps(t)
	cmd := &WaitCommand{Deps: d}
	assert.Error(t, cmd.Validate("wait", true, "x"))
}
