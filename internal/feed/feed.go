// Package feed hosts tick sources for live and simulated price streams.
package feed

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iscfl/trading-signals/internal/market"
	"github.com/iscfl/trading-signals/internal/metrics"
)

const (
	// ProviderSim emits a synthetic random-walk price stream (useful for tests/offline work).
	ProviderSim = "sim"
	// ProviderWS streams quotes from a websocket trading endpoint.
	ProviderWS = "ws"
)

var (
	// ErrMalformedTick marks a feed payload that failed to parse; the tick is dropped.
	ErrMalformedTick = errors.New("malformed tick payload")
	// ErrFeedConnection marks a transport failure; the subscriber decides whether to resubscribe.
	ErrFeedConnection = errors.New("feed connection failed")
)

// Handlers carries the callbacks a subscriber registers with a tick source.
// OnTick and OnError may be invoked many times; OnOpen and OnClose at most once.
type Handlers struct {
	OnOpen  func()
	OnClose func()
	OnTick  func(market.Tick)
	OnError func(error)
}

// CancelFunc tears down a subscription. After it returns no further callback
// is delivered and any timers owned by the subscription are released.
type CancelFunc func()

// Source is the subscription contract the session controller consumes.
type Source interface {
	Subscribe(instrument, timeframe string, h Handlers) (CancelFunc, error)
}

// Feed represents a pluggable price stream implementation.
type Feed struct {
	provider     string
	log          zerolog.Logger
	wsBaseURL    string
	connectDelay time.Duration
	tickInterval time.Duration // 0 means derive from timeframe
	basePrices   map[string]float64
	mu           sync.RWMutex
}

// Option configures Feed construction parameters.
type Option func(*Feed)

const (
	defaultConnectDelay = time.Second
	defaultBasePrice    = 100.0
	simStepFraction     = 0.01 // uniform ±1% multiplicative step
)

// WithWSBaseURL points the websocket provider at a host, e.g. "ws://localhost:8080".
func WithWSBaseURL(base string) Option {
	return func(f *Feed) {
		if base != "" {
			f.wsBaseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithConnectDelay overrides the simulated connection delay.
func WithConnectDelay(d time.Duration) Option {
	return func(f *Feed) {
		if d >= 0 {
			f.connectDelay = d
		}
	}
}

// WithTickInterval forces a fixed cadence instead of the timeframe-derived one.
func WithTickInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.tickInterval = d
		}
	}
}

// WithBasePrices seeds per-instrument starting prices for the simulated walk.
func WithBasePrices(prices map[string]float64) Option {
	return func(f *Feed) {
		for sym, px := range prices {
			if px > 0 {
				f.basePrices[sym] = px
			}
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderSim
	}
	f := &Feed{
		provider:     strings.ToLower(provider),
		log:          log,
		connectDelay: defaultConnectDelay,
		basePrices:   make(map[string]float64),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// TickInterval maps a timeframe to its simulated tick cadence.
func TickInterval(timeframe string) time.Duration {
	switch timeframe {
	case "5m":
		return time.Second
	case "30m":
		return 2 * time.Second
	case "4h":
		return 3 * time.Second
	case "1d":
		return 5 * time.Second
	default:
		return time.Second
	}
}

// Subscribe starts delivering ticks for one instrument/timeframe pair until
// the returned cancel fires. Callbacks run on the subscription goroutine.
func (f *Feed) Subscribe(instrument, timeframe string, h Handlers) (CancelFunc, error) {
	if instrument == "" {
		return nil, errors.New("feed: instrument required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	switch f.provider {
	case ProviderWS:
		go f.runWS(ctx, instrument, timeframe, h)
	default:
		go f.runSim(ctx, instrument, timeframe, h)
	}
	return CancelFunc(cancel), nil
}

func (f *Feed) basePrice(instrument string) float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if px, ok := f.basePrices[instrument]; ok {
		return px
	}
	return defaultBasePrice
}

func (f *Feed) interval(timeframe string) time.Duration {
	if f.tickInterval > 0 {
		return f.tickInterval
	}
	return TickInterval(timeframe)
}

func (f *Feed) runSim(ctx context.Context, instrument, timeframe string, h Handlers) {
	if f.connectDelay > 0 {
		select {
		case <-time.After(f.connectDelay):
		case <-ctx.Done():
			return
		}
	}
	if h.OnOpen != nil {
		h.OnOpen()
	}
	f.log.Info().Str("provider", ProviderSim).Str("instrument", instrument).Str("timeframe", timeframe).Msg("connected price feed")

	ticker := time.NewTicker(f.interval(timeframe))
	defer ticker.Stop()

	px := f.basePrice(instrument)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for {
		select {
		case <-ctx.Done():
			return
		case ts := <-ticker.C:
			px *= 1 + (rng.Float64()*2-1)*simStepFraction
			if ctx.Err() != nil {
				return
			}
			if h.OnTick != nil {
				h.OnTick(market.Tick{Instrument: instrument, Price: px, Ts: ts})
			}
			metrics.TicksTotal.WithLabelValues(instrument).Inc()
		}
	}
}
