package classify

import (
	"math"
	"sync"
	"time"

	"github.com/iscfl/trading-signals/internal/market"
)

// Momentum classifies on percent change over a sliding lookback window:
// sustained moves beyond the threshold become BUY (up) or SELL (down), everything else HOLD.
type Momentum struct {
	threshold float64
	window    time.Duration
	mu        sync.Mutex
	ticks     []market.Tick
}

// NewMomentum builds a momentum classifier from a percent threshold and window seconds.
func NewMomentum(threshold float64, windowSecs int) *Momentum {
	if threshold <= 0 {
		threshold = 0.02
	}
	if windowSecs <= 0 {
		windowSecs = 60
	}
	return &Momentum{
		threshold: threshold,
		window:    time.Duration(windowSecs) * time.Second,
	}
}

// Name returns the identifier for logging.
func (m *Momentum) Name() string { return "Momentum" }

// Classify appends the tick to the window and compares endpoint change against the threshold.
func (m *Momentum) Classify(t market.Tick) market.SignalKind {
	if t.Price <= 0 {
		return market.Hold
	}

	m.mu.Lock()
	m.append(t)
	oldest := m.ticks[0]
	m.mu.Unlock()

	if oldest.Price <= 0 {
		return market.Hold
	}
	change := (t.Price - oldest.Price) / oldest.Price
	if math.Abs(change) < m.threshold {
		return market.Hold
	}
	if change > 0 {
		return market.Buy
	}
	return market.Sell
}

func (m *Momentum) append(t market.Tick) {
	m.ticks = append(m.ticks, t)
	cutoff := t.Ts.Add(-m.window)
	idx := 0
	for i, existing := range m.ticks {
		if existing.Ts.After(cutoff) {
			idx = i
			break
		}
		idx = i + 1
	}
	if idx > 0 && idx <= len(m.ticks) {
		m.ticks = m.ticks[idx:]
	}
}
