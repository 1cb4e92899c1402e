package mood

import (
	"math/rand/v2"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/kibunbook/kibun-server/internal/domain"
)

// Fallback picks a mood for a book that matched no heuristic keyword.
// Its result carries no signal about the book; it only keeps unmatched books
// from being invisible to every mood query.
type Fallback interface {
	Pick(book *domain.Book, candidates []domain.MoodKey) domain.MoodKey
}

// HashFallback picks a candidate from a hash of the book ID.
// The same book always gets the same mood.
type HashFallback struct{}

// Pick implements Fallback.
func (HashFallback) Pick(book *domain.Book, candidates []domain.MoodKey) domain.MoodKey {
	if len(candidates) == 0 {
		return ""
	}
	h := xxhash.Sum64String(book.ID)
	return candidates[h%uint64(len(candidates))]
}

// RandomFallback picks a candidate pseudo-randomly from a seeded source.
// Safe for concurrent use.
type RandomFallback struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomFallback creates a RandomFallback seeded with seed.
func NewRandomFallback(seed uint64) *RandomFallback {
	return &RandomFallback{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Pick implements Fallback.
func (f *RandomFallback) Pick(_ *domain.Book, candidates []domain.MoodKey) domain.MoodKey {
	if len(candidates) == 0 {
		return ""
	}
	f.mu.Lock()
	i := f.rng.IntN(len(candidates))
	f.mu.Unlock()
	return candidates[i]
}

// FixedFallback always picks the same mood. Used in tests.
type FixedFallback domain.MoodKey

// Pick implements Fallback.
func (f FixedFallback) Pick(_ *domain.Book, _ []domain.MoodKey) domain.MoodKey {
	return domain.MoodKey(f)
}

// NewFallback builds a fallback by name: "hash" (default) or "random".
func NewFallback(name string, seed uint64) Fallback {
	if name == "random" {
		return NewRandomFallback(seed)
	}
	return HashFallback{}
}
