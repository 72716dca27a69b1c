package observe

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// VolFeedClient reads implied-volatility stats from an HTTP vol service.
type VolFeedClient struct {
	client *resty.Client
}

// volResponse is the feed's wire shape.
type volResponse struct {
	Symbol string  `json:"symbol"`
	IV     float64 `json:"iv"`
	IVRank float64 `json:"iv_rank"`
	ATR14  float64 `json:"atr_14"`
}

// NewVolFeedClient builds a client for the given base URL.
func NewVolFeedClient(baseURL string, timeout time.Duration) *VolFeedClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	return &VolFeedClient{client: client}
}

// Vol fetches the volatility reading for a symbol.
func (vc *VolFeedClient) Vol(ctx context.Context, symbol string) (*VolReading, error) {
	var body volResponse
	resp, err := vc.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&body).
		Get("/v1/volatility")
	if err != nil {
		return nil, fmt.Errorf("vol feed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("vol feed status %d", resp.StatusCode())
	}

	return &VolReading{
		IV:     body.IV,
		IVRank: body.IVRank,
		ATR:    body.ATR14,
	}, nil
}
