package bench

import (
	"math/rand"

	"github.com/google/uuid"
)

const (
	DefaultSampleEvery = 25
	DefaultSampleLimit = 4096
)

// Sampler retains every n-th inserted key. Once limit keys are held, later
// candidates replace held ones uniformly at random (reservoir sampling), so
// the sample stays bounded however many rows are inserted.
type Sampler struct {
	every int
	limit int
	rng   *rand.Rand
	seen  int
	keys  []uuid.UUID
}

func NewSampler(every, limit int, rng *rand.Rand) *Sampler {
	if every < 1 {
		every = 1
	}
	if limit < 1 {
		limit = 1
	}
	return &Sampler{every: every, limit: limit, rng: rng}
}

// Offer considers the key inserted at row. Row 0 is always a candidate.
func (s *Sampler) Offer(row int, key uuid.UUID) {
	if row%s.every != 0 {
		return
	}
	s.seen++
	if len(s.keys) < s.limit {
		s.keys = append(s.keys, key)
		return
	}
	if j := s.rng.Intn(s.seen); j < s.limit {
		s.keys[j] = key
	}
}

func (s *Sampler) Keys() []uuid.UUID { return s.keys }
