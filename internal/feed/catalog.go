package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Instrument describes one tradeable symbol the feed server offers.
type Instrument struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	BasePrice float64 `json:"basePrice"`
}

// FetchInstruments pulls the instrument catalog from a feed server's HTTP API.
func FetchInstruments(ctx context.Context, baseURL string) ([]Instrument, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/stocks", nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog request returned %s", resp.Status)
	}
	var instruments []Instrument
	if err := json.NewDecoder(resp.Body).Decode(&instruments); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return instruments, nil
}
