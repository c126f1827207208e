// Package classify contains signal classification logic wired into ticks.
package classify

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/iscfl/trading-signals/internal/market"
)

// Classifier maps a tick to a directional recommendation.
type Classifier interface {
	Classify(t market.Tick) market.SignalKind
	Name() string
}

// Params expresses tunable knobs required by classifier constructors.
type Params struct {
	Seed               int64
	MomentumThreshold  float64
	MomentumWindowSecs int
}

// Build returns a classifier implementation matching the configured mode.
func Build(mode string, params Params) Classifier {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "momentum", "model":
		return NewMomentum(params.MomentumThreshold, params.MomentumWindowSecs)
	default:
		return NewRandom(params.Seed)
	}
}

const (
	buyBand  = 0.15
	sellBand = 0.30
)

// Random draws a uniform value per tick: below 15% BUY, below 30% SELL, else HOLD.
// It stands in for an external model source; downstream components never see the difference.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom seeds a classifier; a zero seed keeps the source unseeded-random.
func NewRandom(seed int64) *Random {
	src := rand.NewSource(seed)
	if seed == 0 {
		src = rand.NewSource(rand.Int63())
	}
	return &Random{rng: rand.New(src)}
}

// Name returns the identifier for logging.
func (c *Random) Name() string { return "Random" }

// Classify buckets a uniform draw into BUY/SELL/HOLD.
func (c *Random) Classify(market.Tick) market.SignalKind {
	c.mu.Lock()
	r := c.rng.Float64()
	c.mu.Unlock()

	switch {
	case r < buyBand:
		return market.Buy
	case r < sellBand:
		return market.Sell
	default:
		return market.Hold
	}
}
