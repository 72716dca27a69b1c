package models

// VolComfort is the advisory volatility appetite flag set by adaptation.
type VolComfort string

const (
	VolComfortLow    VolComfort = "low"
	VolComfortNormal VolComfort = "normal"
)

// EvolvedParameters is the mutable tuning state. Initialized from static
// configuration and mutated only by the adaptation engine; persisted with
// every checkpoint.
type EvolvedParameters struct {
	MinConfidence     float64              `json:"min_confidence"`
	StrategyWeights   map[Strategy]float64 `json:"strategy_weights"`
	PreferredStrategy Strategy             `json:"preferred_strategy"`
	VolComfort        VolComfort           `json:"vol_comfort"`
}

// NewEvolvedParameters seeds tuning state from the configured threshold.
func NewEvolvedParameters(minConfidence float64) *EvolvedParameters {
	return &EvolvedParameters{
		MinConfidence:     minConfidence,
		StrategyWeights:   make(map[Strategy]float64),
		PreferredStrategy: StrategyNoTrade,
		VolComfort:        VolComfortNormal,
	}
}
