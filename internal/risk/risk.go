// Package risk encodes guard-rails for how much exposure a session may take on.
package risk

// Limits caps single-trade notional and total open shares. Zero values disable a check.
type Limits struct {
	MaxNotionalPerTrade float64
	MaxOpenShares       int
}

// AllowNotional reports whether a trade of the given cash value fits the per-trade cap.
func (l Limits) AllowNotional(notional float64) bool {
	return l.MaxNotionalPerTrade <= 0 || notional <= l.MaxNotionalPerTrade
}

// AllowPosition reports whether adding qty shares to the current holding fits the position cap.
func (l Limits) AllowPosition(current, qty int) bool {
	return l.MaxOpenShares <= 0 || current+qty <= l.MaxOpenShares
}
