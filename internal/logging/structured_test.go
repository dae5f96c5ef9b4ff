package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rgovind/neo/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredLoggerWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	clk := clock.NewFakeClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	l, err := NewStructuredLogger(dir, "session", clk)
	require.NoError(t, err)
	require.NoError(t, l.Log(F("event", "start")))
	require.NoError(t, l.Close())

	l2, err := NewStructuredLogger(dir, "session", clk)
	require.NoError(t, err)
	require.NoError(t, l2.Log(F("event", "resume")))
	require.NoError(t, l2.Close())

	data, err := os.ReadFile(filepath.Join(dir, "session.yaml"))
	require.NoError(t, err)
	content := string(data)
	assert.Equal(t, 1, countOccurrences(content, "# session structured log"))
	assert.Contains(t, content, "event: start")
	assert.Contains(t, content, "event: resume")
}

func TestStructuredLoggerOrdersTimestampFirstAndSeparatesDocuments(t *testing.T) {
	dir := t.TempDir()
	clk := clock.NewFakeClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	l, err := NewStructuredLogger(dir, "events", clk)
	require.NoError(t, err)
	require.NoError(t, l.Log(F("kind", "checkpoint"), F("turns", 5)))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(filepath.Join(dir, "events.yaml"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "---\ntimestamp: \"2026-01-02T03:04:05Z\"")
	assert.Contains(t, content, "kind: checkpoint")
}

func TestStructuredLoggerUsesBlockScalarForMultilineStrings(t *testing.T) {
	dir := t.TempDir()
	clk := clock.NewFakeClock(time.Now())
	l, err := NewStructuredLogger(dir, "events", clk)
	require.NoError(t, err)
	require.NoError(t, l.Log(F("output", "line one\nline two")))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(filepath.Join(dir, "events.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "output: |")
}

func TestNeedsQuotingFlagsMetacharacterKeys(t *testing.T) {
	assert.True(t, needsQuoting("has:colon"))
	assert.True(t, needsQuoting(""))
	assert.False(t, needsQuoting("plain_key"))
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
		}
	}
	return count
}
