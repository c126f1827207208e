package execution

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iscfl/trading-signals/internal/market"
)

func TestExecuteHoldProducesNoTrade(t *testing.T) {
	exec := NewExecutor(zerolog.Nop(), nil)
	if trade := exec.Execute("AAPL", market.Signal{Kind: market.Hold, Price: 100, Ts: time.Now()}); trade != nil {
		t.Fatalf("expected nil trade for HOLD, got %+v", trade)
	}
}

func TestExecuteBuyAtSignalPrice(t *testing.T) {
	var buf bytes.Buffer
	exec := NewExecutor(zerolog.New(&buf), nil)

	ts := time.Now()
	trade := exec.Execute("AAPL", market.Signal{Kind: market.Buy, Price: 187.5, Ts: ts})
	if trade == nil {
		t.Fatal("expected a trade for BUY signal")
	}
	if trade.Side != Buy || trade.Price != 187.5 || trade.Qty != 1 || !trade.Ts.Equal(ts) {
		t.Fatalf("unexpected trade: %+v", trade)
	}
	if !strings.Contains(buf.String(), "execute trade") {
		t.Fatalf("expected execute trade log, got %s", buf.String())
	}
}

func TestExecuteSellUsesSizer(t *testing.T) {
	exec := NewExecutor(zerolog.Nop(), FixedSizer{Qty: 3})
	trade := exec.Execute("TSLA", market.Signal{Kind: market.Sell, Price: 250, Ts: time.Now()})
	if trade == nil {
		t.Fatal("expected a trade for SELL signal")
	}
	if trade.Side != Sell || trade.Qty != 3 {
		t.Fatalf("unexpected trade: %+v", trade)
	}
	if trade.Notional() != 750 {
		t.Fatalf("expected notional 750, got %.2f", trade.Notional())
	}
}

func TestFixedSizerDefaultsToOne(t *testing.T) {
	if qty := (FixedSizer{}).Quantity(market.Signal{}); qty != 1 {
		t.Fatalf("expected default quantity 1, got %d", qty)
	}
}
