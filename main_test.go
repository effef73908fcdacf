package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uuid-bench/bench"
	"uuid-bench/store"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: nil, want: 0},
		{err: fmt.Errorf("%w: bad flag", bench.ErrConfiguration), want: 2},
		{err: fmt.Errorf("%w: postgres: refused", bench.ErrEngineUnavailable), want: 3},
		{err: &bench.StorageError{Op: "insert into", Table: "t", Err: errors.New("disk full")}, want: 4},
		{err: errors.New("boom"), want: 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, nil)
	assert.Equal(t, "No sessions recorded\n", buf.String())

	buf.Reset()
	printHistory(&buf, []store.SessionRecord{{
		ID:          3,
		Engine:      "mysql",
		Profile:     "narrow",
		Strategy:    "batched",
		InsertCount: 1000,
		RunCount:    10,
		StartedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		DurationMs:  4500,
		Variants:    []store.VariantRecord{{Name: "v7", Fragmentation: 1.5, InsertMs: 120}},
	}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "#3")
	assert.Contains(t, lines[0], "mysql")
	assert.Contains(t, lines[0], "4.5s")
	assert.Contains(t, lines[1], "v7")
}

func TestGenerateCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"generate", "--variant", "v7", "--count", "3"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Len(t, line, 36)
		assert.Equal(t, byte('7'), line[14], "version nibble")
	}
}
