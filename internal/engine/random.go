package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Rand is the source of every random choice the engine makes: roll values,
// the starting team and shuffle order. *rand.Rand satisfies it.
type Rand interface {
	// IntN returns a uniform value in [0, n).
	IntN(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// NewRand returns a goroutine-safe PCG source seeded from crypto/rand.
func NewRand() (Rand, error) {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	seed1 := binary.LittleEndian.Uint64(b[:8])
	seed2 := binary.LittleEndian.Uint64(b[8:])
	return &lockedRand{r: rand.New(rand.NewPCG(seed1, seed2))}, nil
}

// roll draws uniformly from [low, high].
func roll(r Rand, low, high int) int {
	return low + r.IntN(high-low+1)
}

// shuffle is an in-place Fisher-Yates shuffle.
func shuffle[T any](r Rand, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
