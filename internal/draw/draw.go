package draw

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

var ErrEmptyPool = errors.New("empty pool")

// Picker wraps a rand source so tests can seed it deterministically. One
// Picker is shared by every room goroutine, so draws are mutex-guarded.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func New(seed int64) *Picker {
	return &Picker{rng: rand.New(rand.NewSource(seed))}
}

func NewTimeSeeded() *Picker {
	return New(time.Now().UnixNano())
}

func (p *Picker) intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}

// Winner commits one element uniformly at random. Callers are expected to
// check non-emptiness first; an empty pool is a bug upstream.
func (p *Picker) Winner(pool []string) (string, error) {
	if len(pool) == 0 {
		return "", ErrEmptyPool
	}
	return pool[p.intn(len(pool))], nil
}

// Filler draws cosmetic reel content. It may repeat and may return the
// committed winner before the reveal; nothing reads meaning into it.
func (p *Picker) Filler(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[p.intn(len(pool))]
}

// Message picks a feedback line, or the fallback when the pool is empty.
func (p *Picker) Message(pool []string, fallback string) string {
	if len(pool) == 0 {
		return fallback
	}
	return pool[p.intn(len(pool))]
}
