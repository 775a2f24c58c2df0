package runner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRunnerCoalesces(t *testing.T) {
	loop := NewLoop()
	r := NewBatchRunner(loop)

	counts := map[string]int{}
	for i := 0; i < 3; i++ {
		r.Run([]any{"jack", 1}, func() error { counts["jack-1"]++; return nil }, true)
		r.Run([]any{"jack", 2}, func() error { counts["jack-2"]++; return nil }, true)
	}

	assert.Equal(t, 2, r.Pending())
	assert.Equal(t, 1, loop.Pending())

	require.NoError(t, loop.Tick())
	assert.Equal(t, map[string]int{"jack-1": 1, "jack-2": 1}, counts)
	assert.Equal(t, 0, r.Pending())
}

func TestBatchRunnerMemoizeKeepsFirst(t *testing.T) {
	loop := NewLoop()
	r := NewBatchRunner(loop)

	got := ""
	r.Run([]any{"k"}, func() error { got = "first"; return nil }, true)
	r.Run([]any{"k"}, func() error { got = "second"; return nil }, true)
	require.NoError(t, loop.Tick())
	assert.Equal(t, "first", got)

	r.Run([]any{"k"}, func() error { got = "third"; return nil }, false)
	r.Run([]any{"k"}, func() error { got = "fourth"; return nil }, false)
	require.NoError(t, loop.Tick())
	assert.Equal(t, "fourth", got)
}

func TestBatchRunnerPrefixPaths(t *testing.T) {
	loop := NewLoop()
	r := NewBatchRunner(loop)

	ran := map[string]bool{}
	r.Run([]any{"source", "id"}, func() error { ran["parent"] = true; return nil }, true)
	r.Run([]any{"source", "id", "start"}, func() error { ran["child"] = true; return nil }, true)
	r.Run(nil, func() error { ran["root"] = true; return nil }, true)

	require.NoError(t, loop.Tick())
	assert.Equal(t, map[string]bool{"parent": true, "child": true, "root": true}, ran)
}

func TestBatchRunnerErrorsDoNotStopFlush(t *testing.T) {
	loop := NewLoop()
	r := NewBatchRunner(loop)
	boom := errors.New("boom")

	ran := 0
	r.Run([]any{1}, func() error { return boom }, true)
	r.Run([]any{2}, func() error { ran++; return nil }, true)

	err := loop.Tick()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ran)
}

func TestBatchRunnerRequeueDuringFlush(t *testing.T) {
	loop := NewLoop()
	r := NewBatchRunner(loop)

	count := 0
	r.Run([]any{"a"}, func() error {
		count++
		r.Run([]any{"a"}, func() error { count++; return nil }, true)
		return nil
	}, true)

	require.NoError(t, loop.Drain())
	assert.Equal(t, 2, count)
}
