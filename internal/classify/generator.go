package classify

import (
	"time"

	"github.com/iscfl/trading-signals/internal/market"
	"github.com/iscfl/trading-signals/internal/metrics"
)

// DefaultMinInterval is the minimum spacing between emitted signals.
const DefaultMinInterval = 5 * time.Second

// Generator turns classified ticks into signals under rate-limiting and
// repeat suppression. It holds no last-signal state of its own: the caller
// passes the previously emitted signal and keeps the reference current.
type Generator struct {
	classifier  Classifier
	minInterval time.Duration
}

// NewGenerator wraps a classifier; a non-positive interval falls back to the default.
func NewGenerator(classifier Classifier, minInterval time.Duration) *Generator {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Generator{classifier: classifier, minInterval: minInterval}
}

// Classifier exposes the wrapped capability for logging.
func (g *Generator) Classifier() Classifier { return g.classifier }

// Generate evaluates one tick against the previously emitted signal.
// It returns nil when the rate limit has not elapsed or when the classified
// kind repeats the last emitted kind (HOLD included): a signal surfaces only
// on a transition in classification.
func (g *Generator) Generate(t market.Tick, last *market.Signal) *market.Signal {
	if last != nil && t.Ts.Sub(last.Ts) < g.minInterval {
		return nil
	}
	kind := g.classifier.Classify(t)
	if last != nil && kind == last.Kind {
		return nil
	}
	metrics.SignalsTotal.WithLabelValues(t.Instrument, string(kind)).Inc()
	return &market.Signal{Kind: kind, Price: t.Price, Ts: t.Ts}
}
