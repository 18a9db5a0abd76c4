package game

import (
	mathrand "math/rand"
	"sync"
	"time"
)

// Source is the random capability generators and action effects draw from.
// *math/rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// NewSource returns a seeded source; seed 0 seeds from the clock.
func NewSource(seed int64) *mathrand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return mathrand.New(mathrand.NewSource(seed))
}

// LockedSource makes a Source safe to share between sessions.
type LockedSource struct {
	mu  sync.Mutex
	src Source
}

func NewLockedSource(src Source) *LockedSource {
	return &LockedSource{src: src}
}

func (l *LockedSource) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}

func (l *LockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

func pick[T any](rng Source, items []T) T {
	return items[rng.Intn(len(items))]
}

// sample returns k distinct items in random order.
func sample[T any](rng Source, items []T, k int) []T {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	if k > len(idx) {
		k = len(idx)
	}
	out := make([]T, 0, k)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out = append(out, items[idx[i]])
	}
	return out
}
