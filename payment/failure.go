package payment

import (
	"math/rand"
	"sync"
	"time"
)

// FailureSource decides whether a simulated gateway failure occurs for a
// given probability. It is injected into strategies so tests can force
// either branch deterministically.
type FailureSource interface {
	// Fail reports whether a failure with the given probability in [0,1]
	// should be injected.
	Fail(probability float64) bool
}

// RandomFailureSource injects failures using a seeded PRNG. Safe for
// concurrent use.
type RandomFailureSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomFailureSource returns a source seeded from the wall clock.
func NewRandomFailureSource() *RandomFailureSource {
	return &RandomFailureSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *RandomFailureSource) Fail(probability float64) bool {
	if probability <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < probability
}

// NeverFail disables injected failures. Used in tests and local development.
type NeverFail struct{}

func (NeverFail) Fail(float64) bool { return false }

// AlwaysFail forces the injected-failure branch when probability is nonzero.
type AlwaysFail struct{}

func (AlwaysFail) Fail(p float64) bool { return p > 0 }
