package keygen

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uuid-bench/bench"
)

// stepClock advances by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	t := start
	return func() time.Time {
		now := t
		t = t.Add(step)
		return now
	}
}

func millisOf(b []byte) int64 {
	var buf [8]byte
	copy(buf[2:], b)
	return int64(binary.BigEndian.Uint64(buf[:]))
}

func TestLookupVersions(t *testing.T) {
	tests := []struct {
		name    string
		version uuid.Version
	}{
		{name: Random, version: 4},
		{name: V7, version: 7},
		{name: V7SubMillis, version: 7},
		{name: SQLServerFriendly, version: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := Lookup(tt.name, "postgres")
			require.NoError(t, err)

			id := keys()
			assert.Equal(t, tt.version, id.Version())
			assert.Equal(t, uuid.RFC4122, id.Variant())
			assert.NotEqual(t, id, keys(), "keys must be unique")
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("v1", "postgres")
	require.Error(t, err)
	assert.True(t, errors.Is(err, bench.ErrConfiguration))
	assert.Contains(t, err.Error(), "v7-submillis")
}

func TestFriendlyResolvesPerEngine(t *testing.T) {
	keys, err := Lookup(Friendly, "sqlserver")
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(8), keys().Version())

	keys, err = Lookup(Friendly, "mysql")
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), keys().Version())
}

func TestV7SubMillisMonotonic(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g := NewTimeOrdered(stepClock(start, time.Microsecond), rand.Reader)

	prev := g.V7()
	assert.Equal(t, start.UnixMilli(), millisOf(prev[0:6]))

	for i := 0; i < 5_000; i++ {
		next := g.V7()
		require.Equal(t, -1, bytes.Compare(prev[:], next[:]), "key %d does not sort after its predecessor", i)
		prev = next
	}
}

func TestV7SubMillisFraction(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, int(time.Millisecond/2), time.UTC)
	g := NewTimeOrdered(func() time.Time { return at }, rand.Reader)

	id := g.V7()
	frac := binary.BigEndian.Uint16(id[6:8]) & 0x0fff
	assert.Equal(t, uint16(2048), frac)
}

func TestSQLServerTrailingTimestamp(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g := NewTimeOrdered(stepClock(start, time.Millisecond), rand.Reader)

	first := g.SQLServer()
	second := g.SQLServer()

	assert.Equal(t, start.UnixMilli(), millisOf(first[10:16]))
	assert.Equal(t, start.UnixMilli()+1, millisOf(second[10:16]))
}

func TestTimeOrderedPanicsOnRandomFailure(t *testing.T) {
	g := NewTimeOrdered(time.Now, bytes.NewReader(nil))
	assert.Panics(t, func() { g.V7() })
}

func TestVariants(t *testing.T) {
	variants, err := Variants(DefaultVariants, "postgres")
	require.NoError(t, err)
	require.Len(t, variants, len(DefaultVariants))
	for i, v := range variants {
		assert.Equal(t, DefaultVariants[i], v.Name)
		assert.NotNil(t, v.Keys)
	}

	_, err = Variants([]string{V7, "nope"}, "postgres")
	assert.ErrorIs(t, err, bench.ErrConfiguration)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{Friendly, Random, SQLServerFriendly, V7, V7SubMillis}, Names())
}
