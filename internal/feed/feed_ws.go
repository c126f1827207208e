package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iscfl/trading-signals/internal/market"
	"github.com/iscfl/trading-signals/internal/metrics"
)

// Envelope is the wire shape exchanged on /ws/trading/{instrument}.
type Envelope struct {
	StockData StockData      `json:"stockData"`
	Signal    *SignalPayload `json:"signal"`
}

// StockData carries one quote update for the subscribed instrument.
type StockData struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	CurrentPrice  float64 `json:"currentPrice"`
	PreviousPrice float64 `json:"previousPrice"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// SignalPayload mirrors a server-side signal attached to a quote, if any.
type SignalPayload struct {
	Kind  string  `json:"kind"`
	Price float64 `json:"price"`
	Ts    int64   `json:"ts"`
}

func (f *Feed) runWS(ctx context.Context, instrument, timeframe string, h Handlers) {
	endpoint := fmt.Sprintf("%s/ws/trading/%s?timeframe=%s", f.wsBaseURL, url.PathEscape(instrument), url.QueryEscape(timeframe))
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if ctx.Err() == nil && h.OnError != nil {
			h.OnError(fmt.Errorf("%w: %v", ErrFeedConnection, err))
		}
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if h.OnOpen != nil {
		h.OnOpen()
	}
	f.log.Info().Str("provider", ProviderWS).Str("instrument", instrument).Str("timeframe", timeframe).Msg("connected price feed")

	conn.SetReadLimit(1 << 20)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if h.OnClose != nil {
					h.OnClose()
				}
				return
			}
			if h.OnError != nil {
				h.OnError(fmt.Errorf("%w: %v", ErrFeedConnection, err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			f.log.Warn().Err(err).Msg("failed to decode feed message")
			if h.OnError != nil {
				h.OnError(fmt.Errorf("%w: %v", ErrMalformedTick, err))
			}
			continue
		}
		if env.StockData.CurrentPrice <= 0 {
			f.log.Warn().Float64("px", env.StockData.CurrentPrice).Msg("non-positive price from feed")
			if h.OnError != nil {
				h.OnError(fmt.Errorf("%w: non-positive price %.4f", ErrMalformedTick, env.StockData.CurrentPrice))
			}
			continue
		}

		if ctx.Err() != nil {
			return
		}
		if h.OnTick != nil {
			h.OnTick(market.Tick{Instrument: instrument, Price: env.StockData.CurrentPrice, Ts: time.Now()})
		}
		metrics.TicksTotal.WithLabelValues(instrument).Inc()
	}
}
