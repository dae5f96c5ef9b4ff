package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgsRecognizesShortFlagViaAlias(t *testing.T) {
	a, err := parseArgs("output -d checkpoint", nil, map[string]string{"d": "destination"})
	require.NoError(t, err)
	v, ok := a.flag("destination")
	require.True(t, ok)
	assert.Equal(t, "checkpoint", v)
}

func TestParseArgsLongFlagStillWorksAlongsideShortAlias(t *testing.T) {
	a, err := parseArgs("output --destination checkpoint", nil, map[string]string{"d": "destination"})
	require.NoError(t, err)
	v, ok := a.flag("destination")
	require.True(t, ok)
	assert.Equal(t, "checkpoint", v)
}

func TestParseArgsUnknownShortFlagFallsBackToPositional(t *testing.T) {
	a, err := parseArgs("read_file -3", nil, nil)
	require.NoError(t, err)
	v, ok := a.positionalAt(0)
	require.True(t, ok)
	assert.Equal(t, "-3", v)
}
