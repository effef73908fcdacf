package bench

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

type ColumnKind int

const (
	KindKey ColumnKind = iota
	KindInt
	KindDate
	KindText
)

type Column struct {
	Name     string
	Kind     ColumnKind
	Size     int // text length, ignored for other kinds
	Nullable bool
}

// Profile is the shape of the benchmark table. The only implementations are
// NarrowProfile and WideProfile.
type Profile interface {
	Name() string
	// Columns lists the table columns, key column first.
	Columns() []Column
	// Values returns the non-key column values for the given row index.
	Values(row int, rng *rand.Rand) []any

	profile()
}

// ParseProfile accepts "narrow" ("small") and "wide" ("big").
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "narrow", "small", "":
		return NarrowProfile{}, nil
	case "wide", "big":
		return WideProfile{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown table size %q", ErrConfiguration, s)
	}
}

// NarrowProfile is (id, value).
type NarrowProfile struct{}

func (NarrowProfile) Name() string { return "narrow" }

func (NarrowProfile) Columns() []Column {
	return []Column{
		{Name: "id", Kind: KindKey},
		{Name: "value", Kind: KindInt},
	}
}

func (NarrowProfile) Values(row int, _ *rand.Rand) []any { return []any{row} }

func (NarrowProfile) profile() {}

// WideProfile is (id, birth_date, first_name, last_name, message).
type WideProfile struct{}

func (WideProfile) Name() string { return "wide" }

func (WideProfile) Columns() []Column {
	return []Column{
		{Name: "id", Kind: KindKey},
		{Name: "birth_date", Kind: KindDate},
		{Name: "first_name", Kind: KindText, Size: 20, Nullable: true},
		{Name: "last_name", Kind: KindText, Size: 30, Nullable: true},
		{Name: "message", Kind: KindText, Size: 50, Nullable: true},
	}
}

func (WideProfile) Values(_ int, rng *rand.Rand) []any {
	return []any{
		birthDates[rng.Intn(len(birthDates))],
		names[rng.Intn(len(names))],
		names[rng.Intn(len(names))],
		randomMessage(rng),
	}
}

func (WideProfile) profile() {}

var names = []string{
	"Katayun", "Bernd", "Swapna", "Trishna", "Keir", "Borislava", "Ricarda",
	"Sigismondo", "Marianna", "Doroteja", "Bandile", "Gülizar", "Sieuwerd",
	"Tarek", "Aleksej",
}

var birthDates = []time.Time{
	date(2000, 1, 1), date(1975, 12, 5), date(2014, 10, 17), date(1944, 6, 6),
	date(1952, 1, 28), date(1978, 8, 28), date(1991, 7, 12), date(2008, 10, 12),
}

const loremIpsum = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Morbi a elit eros. " +
	"Aenean mauris mi, euismod non lobortis non, varius id mi. Praesent vehicula suscipit ante " +
	"molestie euismod. Nunc non tellus ut nisl ullamcorper rutrum. Aenean pharetra gravida varius. " +
	"Nulla eget metus lobortis, euismod odio."

// randomMessage returns an ASCII slice of loremIpsum, 20 to 49 bytes long.
func randomMessage(rng *rand.Rand) string {
	start := rng.Intn(len(loremIpsum) - 50)
	return loremIpsum[start : start+20+rng.Intn(30)]
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
