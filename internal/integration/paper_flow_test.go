package integration

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iscfl/trading-signals/internal/classify"
	"github.com/iscfl/trading-signals/internal/execution"
	"github.com/iscfl/trading-signals/internal/feed"
	"github.com/iscfl/trading-signals/internal/ledger"
	"github.com/iscfl/trading-signals/internal/market"
	"github.com/iscfl/trading-signals/internal/session"
)

// alwaysBuy forces a deterministic first classification, then holds.
type alwaysBuy struct {
	mu    sync.Mutex
	fired bool
}

func (c *alwaysBuy) Name() string { return "alwaysBuy" }

func (c *alwaysBuy) Classify(market.Tick) market.SignalKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fired {
		return market.Hold
	}
	c.fired = true
	return market.Buy
}

type chanSink struct {
	statuses chan session.Status
	trades   chan execution.Trade
	snaps    chan ledger.Snapshot
}

func newChanSink() *chanSink {
	return &chanSink{
		statuses: make(chan session.Status, 16),
		trades:   make(chan execution.Trade, 16),
		snaps:    make(chan ledger.Snapshot, 64),
	}
}

func (c *chanSink) OnStatus(st session.Status) { c.statuses <- st }
func (c *chanSink) OnSignal(market.Signal)     {}
func (c *chanSink) OnTrade(tr execution.Trade) { c.trades <- tr }
func (c *chanSink) OnSnapshot(sn ledger.Snapshot) {
	select {
	case c.snaps <- sn:
	default:
	}
}

func TestPaperFlowProducesTradeAndSnapshot(t *testing.T) {
	src := feed.NewFeed(feed.ProviderSim, zerolog.Nop(),
		feed.WithConnectDelay(time.Millisecond),
		feed.WithTickInterval(5*time.Millisecond),
		feed.WithBasePrices(map[string]float64{"AAPL": 180}),
	)
	gen := classify.NewGenerator(&alwaysBuy{}, time.Millisecond)
	exec := execution.NewExecutor(zerolog.Nop(), nil)
	sink := newChanSink()

	sess := session.New(zerolog.Nop(), session.Config{InitialInvestment: 10000}, src, gen, exec, sink, nil)
	defer sess.Close()

	if err := sess.Select("AAPL", "5m"); err != nil {
		t.Fatalf("Select returned error: %v", err)
	}

	deadline := time.After(5 * time.Second)
	waitStatus := func(want session.Status) {
		for {
			select {
			case st := <-sink.statuses:
				if st == want {
					return
				}
			case <-deadline:
				t.Fatalf("timed out waiting for status %s", want)
			}
		}
	}
	waitStatus(session.Connecting)
	waitStatus(session.Streaming)

	select {
	case tr := <-sink.trades:
		if tr.Side != execution.Buy || tr.Qty != 1 {
			t.Fatalf("unexpected trade %+v", tr)
		}
		if tr.Price < 170 || tr.Price > 190 {
			t.Fatalf("trade price outside simulated walk: %.2f", tr.Price)
		}
	case <-deadline:
		t.Fatal("timed out waiting for trade")
	}

	select {
	case snap := <-sink.snaps:
		if snap.TotalValue <= 0 {
			t.Fatalf("expected positive total value, got %+v", snap)
		}
	case <-deadline:
		t.Fatal("timed out waiting for snapshot")
	}

	if got := len(sess.Trades()); got != 1 {
		t.Fatalf("expected exactly one trade, got %d", got)
	}
}
