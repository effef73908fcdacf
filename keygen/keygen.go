// Package keygen provides the primary key generators compared by the
// benchmark.
package keygen

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"uuid-bench/bench"
)

const (
	Random            = "random"
	V7                = "v7"
	V7SubMillis       = "v7-submillis"
	SQLServerFriendly = "sqlserver-friendly"
	Friendly          = "friendly"
)

// DefaultVariants is random vs vendor optimized vs plain time-ordered.
var DefaultVariants = []string{Random, Friendly, V7}

// Names lists every name accepted by Lookup.
func Names() []string {
	names := []string{Random, V7, V7SubMillis, SQLServerFriendly, Friendly}
	sort.Strings(names)
	return names
}

// Lookup returns the generator registered under name. The "friendly" alias
// resolves to the layout that sorts best on the given engine.
func Lookup(name, engine string) (bench.KeyGenerator, error) {
	switch strings.ToLower(name) {
	case Random:
		return uuid.New, nil
	case V7:
		return NewV7, nil
	case V7SubMillis:
		return NewTimeOrdered(time.Now, rand.Reader).V7, nil
	case SQLServerFriendly:
		return NewTimeOrdered(time.Now, rand.Reader).SQLServer, nil
	case Friendly:
		return Lookup(friendlyFor(engine), engine)
	default:
		return nil, fmt.Errorf("%w: unknown key generator %q (known: %s)",
			bench.ErrConfiguration, name, strings.Join(Names(), ", "))
	}
}

// Variants resolves names into benchmark variants.
func Variants(names []string, engine string) ([]bench.Variant, error) {
	variants := make([]bench.Variant, 0, len(names))
	for _, name := range names {
		keys, err := Lookup(name, engine)
		if err != nil {
			return nil, err
		}
		variants = append(variants, bench.Variant{Name: name, Keys: keys})
	}
	return variants, nil
}

func friendlyFor(engine string) string {
	switch strings.ToLower(engine) {
	case "sqlserver", "mssql":
		return SQLServerFriendly
	default:
		return V7SubMillis
	}
}

// NewV7 panics when the random source fails, like uuid.New.
func NewV7() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// TimeOrdered builds timestamp-prefixed identifiers from an injectable clock
// and random source.
type TimeOrdered struct {
	mu   sync.Mutex
	now  func() time.Time
	rand io.Reader
}

func NewTimeOrdered(now func() time.Time, r io.Reader) *TimeOrdered {
	return &TimeOrdered{now: now, rand: r}
}

// V7 returns a UUIDv7 whose 12 rand_a bits hold the sub-millisecond
// fraction of the timestamp, so keys generated within one millisecond
// still sort by creation time at 1/4096 ms resolution.
func (g *TimeOrdered) V7() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.now()
	var u uuid.UUID
	putMillis(u[0:6], t)

	frac := uint16(t.Nanosecond() % int(time.Millisecond) * 4096 / int(time.Millisecond))
	u[6] = 0x70 | byte(frac>>8)&0x0f
	u[7] = byte(frac)

	g.fill(u[8:])
	u[8] = u[8]&0x3f | 0x80
	return u
}

// SQLServer returns a UUIDv8 with the millisecond timestamp in the last six
// bytes, which SQL Server compares first when ordering uniqueidentifier.
func (g *TimeOrdered) SQLServer() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()

	var u uuid.UUID
	g.fill(u[0:10])
	putMillis(u[10:16], g.now())

	u[6] = 0x80 | u[6]&0x0f
	u[8] = u[8]&0x3f | 0x80
	return u
}

func (g *TimeOrdered) fill(b []byte) {
	if _, err := io.ReadFull(g.rand, b); err != nil {
		panic(fmt.Sprintf("keygen: reading random bytes: %v", err))
	}
}

// putMillis writes the 48-bit big-endian Unix millisecond timestamp.
func putMillis(dst []byte, t time.Time) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(t.UnixMilli()))
	copy(dst, buf[2:])
}
