// Package execution turns approved decisions into orders. Broker-specific
// protocols live behind the Executor interface; the in-tree implementation
// is a paper executor that simulates fills.
package execution

import (
	"context"

	"github.com/zenvex/voltagent/models"
)

// LegFill reports the outcome of one leg of an order.
type LegFill struct {
	Leg       models.Leg `json:"leg"`
	Filled    bool       `json:"filled"`
	FillPrice float64    `json:"fill_price"`
	Reason    string     `json:"reason,omitempty"`
}

// ExecutionResult reports per-leg success. Partial multi-leg failure is
// representable: some fills with Filled=false.
type ExecutionResult struct {
	OrderID string    `json:"order_id"`
	Fills   []LegFill `json:"fills"`
}

// AllFilled reports whether every leg filled.
func (r *ExecutionResult) AllFilled() bool {
	for _, f := range r.Fills {
		if !f.Filled {
			return false
		}
	}
	return len(r.Fills) > 0
}

// AnyFilled reports whether at least one leg filled.
func (r *ExecutionResult) AnyFilled() bool {
	for _, f := range r.Fills {
		if f.Filled {
			return true
		}
	}
	return false
}

// Executor places the legs of a decision and reports fills.
type Executor interface {
	Execute(ctx context.Context, d *models.Decision, legs []models.Leg) (*ExecutionResult, error)
}
