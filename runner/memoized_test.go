package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoizedRunnerSameHash(t *testing.T) {
	loop := NewLoop()
	r := NewMemoizedRunner(loop)

	var calls []string
	r.Run("x", func() error { calls = append(calls, "first"); return nil })
	r.Run("x", func() error { calls = append(calls, "second"); return nil })

	assert.True(t, r.Pending())
	assert.Equal(t, 1, loop.Pending())

	require.NoError(t, loop.Tick())
	assert.Equal(t, []string{"first"}, calls)
	assert.False(t, r.Pending())
}

func TestMemoizedRunnerDifferentHashReplaces(t *testing.T) {
	loop := NewLoop()
	r := NewMemoizedRunner(loop)

	var calls []string
	r.Run(1, func() error { calls = append(calls, "one"); return nil })
	r.Run(2, func() error { calls = append(calls, "two"); return nil })

	require.NoError(t, loop.Drain())
	assert.Equal(t, []string{"two"}, calls)
}

func TestMemoizedRunnerRescheduleFromHandler(t *testing.T) {
	loop := NewLoop()
	r := NewMemoizedRunner(loop)

	count := 0
	r.Run("a", func() error {
		count++
		r.Run("a", func() error { count++; return nil })
		return nil
	})

	require.NoError(t, loop.Tick())
	assert.Equal(t, 1, count)
	require.NoError(t, loop.Tick())
	assert.Equal(t, 2, count)
}
