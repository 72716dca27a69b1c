package models

import "time"

// PositionStatus tracks a position through its lifecycle. Transitions only
// move forward: active -> (partial) -> closed.
type PositionStatus string

const (
	PositionActive  PositionStatus = "active"
	PositionPartial PositionStatus = "partial"
	PositionClosed  PositionStatus = "closed"
)

// CloseReason records why a position left the open set.
type CloseReason string

const (
	CloseTarget      CloseReason = "TARGET"
	CloseStop        CloseReason = "STOP"
	CloseTime        CloseReason = "TIME"
	CloseExit        CloseReason = "EXIT"
	CloseLiquidation CloseReason = "LIQUIDATION"
)

// Leg is one side of a position: a single option contract line.
type Leg struct {
	Side       string  `json:"side"` // LONG or SHORT
	Kind       string  `json:"kind"` // CALL or PUT
	Strike     float64 `json:"strike"`
	Quantity   int     `json:"quantity"`
	EntryPrice float64 `json:"entry_price"`
	Mark       float64 `json:"mark"`
	Filled     bool    `json:"filled"`
}

// Position is a live unit of risk composed of one or more legs.
// Target and Stop are mark levels: Reconcile closes on the mark crossing
// them in the position's favorable/unfavorable direction.
type Position struct {
	ID       string         `json:"id"`
	Strategy Strategy       `json:"strategy"`
	Symbol   string         `json:"symbol"`
	OpenedAt time.Time      `json:"opened_at"`
	Legs     []Leg          `json:"legs"`
	Status   PositionStatus `json:"status"`

	EntryCost     float64 `json:"entry_cost"`
	Target        float64 `json:"target"`
	Stop          float64 `json:"stop"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`

	// Trailing stop: armed once unrealized profit crosses the activation
	// threshold, after which Stop only ever tightens.
	TrailArmed bool    `json:"trail_armed"`
	PeakMark   float64 `json:"peak_mark"`

	Adjustments    int       `json:"adjustments"`
	LastAdjustedAt time.Time `json:"last_adjusted_at"`

	ClosedAt    time.Time   `json:"closed_at,omitempty"`
	ClosePrice  float64     `json:"close_price,omitempty"`
	RealizedPnL float64     `json:"realized_pnl,omitempty"`
	CloseReason CloseReason `json:"close_reason,omitempty"`
}

// MarkValue is the current mark of the whole position: sum of leg marks,
// short legs counted negative.
func (p *Position) MarkValue() float64 {
	var v float64
	for _, l := range p.Legs {
		m := l.Mark * float64(l.Quantity)
		if l.Side == "SHORT" {
			v -= m
		} else {
			v += m
		}
	}
	return v
}

// Quantity returns the total contract count across legs.
func (p *Position) Quantity() int {
	var q int
	for _, l := range p.Legs {
		q += l.Quantity
	}
	return q
}

// IsOpen reports whether the position still belongs in the open set.
func (p *Position) IsOpen() bool {
	return p.Status == PositionActive || p.Status == PositionPartial
}
