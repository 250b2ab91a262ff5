package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	from, to, err := parseWindow("2024-03-01T00:00:00Z", "2024-03-02T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, to.Sub(from))

	from, to, err = parseWindow("", "2024-03-02T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), to)

	_, _, err = parseWindow("yesterday", "")
	assert.Error(t, err)
}

func TestRootCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range []string{seedCmd().Name(), reportCmd().Name(), tokenCmd().Name()} {
		names[c] = true
	}
	assert.Equal(t, map[string]bool{"seed": true, "report": true, "token": true}, names)
	assert.NotNil(t, tokenCmd().Flags().Lookup("ttl"))
}
