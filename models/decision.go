package models

import (
	"strings"
	"time"
)

// Action is what the agent decided to do this cycle.
type Action string

const (
	ActionEnter  Action = "ENTER"
	ActionExit   Action = "EXIT"
	ActionAdjust Action = "ADJUST"
	ActionWait   Action = "WAIT"
	ActionHedge  Action = "HEDGE"
)

// Strategy is the closed set of position templates the agent can trade.
type Strategy string

const (
	StrategyIronCondor    Strategy = "IRON_CONDOR"
	StrategyBullPutSpread Strategy = "BULL_PUT_SPREAD"
	StrategyBearCallSpread Strategy = "BEAR_CALL_SPREAD"
	StrategyLongCall      Strategy = "LONG_CALL"
	StrategyLongPut       Strategy = "LONG_PUT"
	StrategyNoTrade       Strategy = "NO_TRADE"
)

// Regime is the market classification a decision was made under.
type Regime string

const (
	RegimeTrendingUp   Regime = "TRENDING_UP"
	RegimeTrendingDown Regime = "TRENDING_DOWN"
	RegimeRangeBound   Regime = "RANGE_BOUND"
	RegimeVolatile     Regime = "VOLATILE"
	RegimeQuiet        Regime = "QUIET"
	RegimeUnknown      Regime = "UNKNOWN"
)

// ConfidenceBand buckets a 0-100 confidence score.
type ConfidenceBand string

const (
	BandVeryHigh ConfidenceBand = "VERY_HIGH"
	BandHigh     ConfidenceBand = "HIGH"
	BandModerate ConfidenceBand = "MODERATE"
	BandLow      ConfidenceBand = "LOW"
	BandVeryLow  ConfidenceBand = "VERY_LOW"
)

// ParseAction maps free text onto the Action enum, defaulting to WAIT.
func ParseAction(s string) Action {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionEnter, ActionExit, ActionAdjust, ActionWait, ActionHedge:
		return Action(strings.ToUpper(strings.TrimSpace(s)))
	}
	return ActionWait
}

// ParseStrategy maps free text onto the Strategy enum, defaulting to NO_TRADE.
func ParseStrategy(s string) Strategy {
	switch Strategy(strings.ToUpper(strings.TrimSpace(s))) {
	case StrategyIronCondor, StrategyBullPutSpread, StrategyBearCallSpread,
		StrategyLongCall, StrategyLongPut, StrategyNoTrade:
		return Strategy(strings.ToUpper(strings.TrimSpace(s)))
	}
	return StrategyNoTrade
}

// ParseRegime maps free text onto the Regime enum, defaulting to UNKNOWN.
func ParseRegime(s string) Regime {
	switch Regime(strings.ToUpper(strings.TrimSpace(s))) {
	case RegimeTrendingUp, RegimeTrendingDown, RegimeRangeBound,
		RegimeVolatile, RegimeQuiet:
		return Regime(strings.ToUpper(strings.TrimSpace(s)))
	}
	return RegimeUnknown
}

// ClampConfidence bounds a confidence score to [0,100].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// BandFor maps a confidence score onto its band.
func BandFor(c float64) ConfidenceBand {
	c = ClampConfidence(c)
	switch {
	case c >= 85:
		return BandVeryHigh
	case c >= 70:
		return BandHigh
	case c >= 55:
		return BandModerate
	case c >= 40:
		return BandLow
	default:
		return BandVeryLow
	}
}

// Scenario is one of the outcomes the reasoning service weighed.
type Scenario struct {
	Name        string  `json:"name"`
	Outcome     string  `json:"outcome"`
	Probability float64 `json:"probability"`
}

// HedgeLeg describes one leg of a requested hedge.
type HedgeLeg struct {
	Side     string  `json:"side"` // LONG or SHORT
	Kind     string  `json:"kind"` // CALL or PUT
	Strike   float64 `json:"strike"`
	Quantity int     `json:"quantity"`
}

// HedgePlan is the structured hedge request attached to a decision.
type HedgePlan struct {
	Required bool       `json:"required"`
	Reason   string     `json:"reason"`
	Legs     []HedgeLeg `json:"legs"`
}

// ManagementPlan carries position-management guidance from the decision.
type ManagementPlan struct {
	TargetPct float64 `json:"target_pct"`
	StopPct   float64 `json:"stop_pct"`
	ExitBy    string  `json:"exit_by"` // HH:MM session time, empty for default
	Notes     string  `json:"notes"`
}

// TradeParams are the strategy-specific sizing parameters of a decision.
type TradeParams struct {
	Strike   float64 `json:"strike"`
	Width    float64 `json:"width"`
	Quantity int     `json:"quantity"`
	Target   float64 `json:"target"`
	Stop     float64 `json:"stop"`
}

// Decision is the structured result of one reasoning cycle. It is never
// mutated after creation.
type Decision struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Action     Action         `json:"action"`
	Strategy   Strategy       `json:"strategy"`
	Regime     Regime         `json:"regime"`
	Confidence float64        `json:"confidence"`
	Band       ConfidenceBand `json:"band"`
	Rationale  string         `json:"rationale"`
	Scenarios  []Scenario     `json:"scenarios,omitempty"`
	Hedge      HedgePlan      `json:"hedge"`
	Management ManagementPlan `json:"management"`
	Params     TradeParams    `json:"params"`
	Source     string         `json:"source"` // "model" or "fallback"
}

// DecisionHistory keeps the most recent decisions, newest first. It is owned
// by a single control-loop goroutine and is not safe for concurrent use.
type DecisionHistory struct {
	Capacity int         `json:"capacity"`
	Items    []*Decision `json:"items"`
}

// NewDecisionHistory creates a bounded history with the given capacity.
func NewDecisionHistory(capacity int) *DecisionHistory {
	if capacity <= 0 {
		capacity = 50
	}
	return &DecisionHistory{Capacity: capacity}
}

// Push prepends a decision, dropping the oldest past capacity.
func (h *DecisionHistory) Push(d *Decision) {
	h.Items = append([]*Decision{d}, h.Items...)
	if len(h.Items) > h.Capacity {
		h.Items = h.Items[:h.Capacity]
	}
}

// Last returns the most recent decision, or nil.
func (h *DecisionHistory) Last() *Decision {
	if len(h.Items) == 0 {
		return nil
	}
	return h.Items[0]
}

// Recent returns up to n of the latest decisions, newest first.
func (h *DecisionHistory) Recent(n int) []*Decision {
	if n > len(h.Items) {
		n = len(h.Items)
	}
	out := make([]*Decision, n)
	copy(out, h.Items[:n])
	return out
}
