package observe

import (
	"context"
	"fmt"
	"strings"

	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
)

// YahooQuoteSource pulls delayed quotes from Yahoo Finance.
type YahooQuoteSource struct{}

// NewYahooQuoteSource returns a quote source backed by Yahoo Finance.
func NewYahooQuoteSource() *YahooQuoteSource {
	return &YahooQuoteSource{}
}

// Quote fetches the current quote. Prices pass through decimal so the
// snapshot carries cleanly rounded values.
func (y *YahooQuoteSource) Quote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol cannot be empty")
	}

	q, err := quote.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote for %s: %w", symbol, err)
	}
	if q == nil {
		return nil, fmt.Errorf("yahoo returned no quote for %s", symbol)
	}

	round := func(v float64) float64 {
		f, _ := decimal.NewFromFloat(v).Round(4).Float64()
		return f
	}

	return &Quote{
		Price:     round(q.RegularMarketPrice),
		Open:      round(q.RegularMarketOpen),
		High:      round(q.RegularMarketDayHigh),
		Low:       round(q.RegularMarketDayLow),
		PrevClose: round(q.RegularMarketPreviousClose),
		Volume:    int64(q.RegularMarketVolume),
	}, nil
}
