package execution

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zenvex/voltagent/models"
)

// PaperExecutor simulates execution by filling every leg at its entry price
// plus a fixed slippage. Used for dry runs; orders never leave the process.
type PaperExecutor struct {
	// SlippagePct widens each fill against the position, in percent.
	SlippagePct float64

	// Reject lets tests and chaos runs simulate per-leg rejections.
	Reject func(leg models.Leg) bool
}

// NewPaperExecutor returns a paper executor with a small default slippage.
func NewPaperExecutor() *PaperExecutor {
	return &PaperExecutor{SlippagePct: 0.5}
}

// Execute fills each leg at the slipped entry price, rounded to the cent.
func (p *PaperExecutor) Execute(ctx context.Context, d *models.Decision, legs []models.Leg) (*ExecutionResult, error) {
	if len(legs) == 0 {
		return nil, errors.New("no legs to execute")
	}

	res := &ExecutionResult{OrderID: uuid.New().String()}
	for _, leg := range legs {
		if p.Reject != nil && p.Reject(leg) {
			res.Fills = append(res.Fills, LegFill{Leg: leg, Filled: false, Reason: "rejected"})
			continue
		}

		slip := leg.EntryPrice * p.SlippagePct / 100
		price := leg.EntryPrice + slip
		if leg.Side == "SHORT" {
			price = leg.EntryPrice - slip
		}
		rounded, _ := decimal.NewFromFloat(price).Round(2).Float64()

		res.Fills = append(res.Fills, LegFill{Leg: leg, Filled: true, FillPrice: rounded})
	}
	return res, nil
}
