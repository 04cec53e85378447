package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffDoublesAndCaps(t *testing.T) {
	b := newBackoff(time.Second, 30*time.Second)

	var delays []time.Duration
	for i := 0; i < 7; i++ {
		delays = append(delays, b.Next())
	}

	require.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}, delays)
}

func TestBackoffReset(t *testing.T) {
	b := newBackoff(time.Second, 30*time.Second)
	b.Next()
	b.Next()
	b.Reset()
	require.Equal(t, time.Second, b.Next())
}
