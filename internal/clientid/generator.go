// Package clientid produces MQTT client identifiers of the form client_XXXXXXXX.
package clientid

import (
	"math/rand/v2"
	"sync"
)

const (
	Prefix = "client_"
	Length = 8

	// Charset keeps the duplicate 0 of the historical alphabet; sampling is by
	// position, so the digit may appear twice in one identifier.
	Charset = "abcdefghijklmnopqrstuvwxyz01234567890ABCDEFGHIJKLMNOPQRSTUVWXYZ!@#$%^&*()?"
)

// Generator draws Length characters from Charset without replacement
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator seeds the generator from the runtime's random source
func NewGenerator() *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededGenerator returns a deterministic generator
func NewSeededGenerator(seed1, seed2 uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

func (g *Generator) Generate() string {
	g.mu.Lock()
	positions := g.rng.Perm(len(Charset))[:Length]
	g.mu.Unlock()

	buf := make([]byte, 0, len(Prefix)+Length)
	buf = append(buf, Prefix...)
	for _, p := range positions {
		buf = append(buf, Charset[p])
	}
	return string(buf)
}
