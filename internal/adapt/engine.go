// Package adapt mutates the agent's tuning parameters from realized
// performance. Changes are small and bounded so a lucky or unlucky run
// cannot swing behavior violently.
package adapt

import (
	"fmt"
	"log"

	"github.com/zenvex/voltagent/config"
	"github.com/zenvex/voltagent/models"
)

const (
	coldStreak = -2
	hotStreak  = 3

	confidenceStepUp   = 5
	confidenceStepDown = 3
	confidenceCeiling  = 90
	confidenceFloor    = 50

	// Fraction of capital lost from peak that flips the vol appetite low.
	comfortDrawdownPct = 3.0

	preferenceMinTrades = 2
	weightStep          = 0.1
	weightFloor         = 0.5
	weightCeiling       = 2.0
)

// Engine reviews performance and nudges the evolved parameters.
type Engine struct {
	cfg *config.Config
}

// NewEngine returns an adaptation engine bound to the static config.
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Review applies the adaptation rules to params in place and returns a
// human-readable summary of what changed, empty when nothing did.
func (e *Engine) Review(tracker *models.PerformanceTracker, params *models.EvolvedParameters) []string {
	if tracker == nil || params == nil {
		return nil
	}
	var changes []string

	// Losing streaks raise the entry bar, winning streaks lower it a little.
	switch {
	case tracker.Streak <= coldStreak:
		next := params.MinConfidence + confidenceStepUp
		if next > confidenceCeiling {
			next = confidenceCeiling
		}
		if next != params.MinConfidence {
			changes = append(changes, fmt.Sprintf("min confidence %.0f -> %.0f after %d straight losses",
				params.MinConfidence, next, -tracker.Streak))
			params.MinConfidence = next
		}
	case tracker.Streak >= hotStreak:
		next := params.MinConfidence - confidenceStepDown
		if next < confidenceFloor {
			next = confidenceFloor
		}
		if next != params.MinConfidence {
			changes = append(changes, fmt.Sprintf("min confidence %.0f -> %.0f after %d straight wins",
				params.MinConfidence, next, tracker.Streak))
			params.MinConfidence = next
		}
	}

	// Shift weight toward what wins and away from what loses.
	for strat, stats := range tracker.ByStrategy {
		if stats.Trades < preferenceMinTrades {
			continue
		}
		w, ok := params.StrategyWeights[strat]
		if !ok {
			w = 1.0
		}
		next := w
		if stats.WinRate() >= 0.5 {
			next += weightStep
		} else {
			next -= weightStep
		}
		if next > weightCeiling {
			next = weightCeiling
		}
		if next < weightFloor {
			next = weightFloor
		}
		if next != w {
			changes = append(changes, fmt.Sprintf("weight %s %.1f -> %.1f", strat, w, next))
		}
		params.StrategyWeights[strat] = next
	}

	if best := tracker.BestStrategy(preferenceMinTrades); best != models.StrategyNoTrade && best != params.PreferredStrategy {
		changes = append(changes, fmt.Sprintf("preferred strategy %s -> %s", params.PreferredStrategy, best))
		params.PreferredStrategy = best
	}

	// Deep drawdown pulls the vol appetite in until performance recovers.
	limit := e.cfg.Capital * comfortDrawdownPct / 100
	switch {
	case tracker.Drawdown > limit && params.VolComfort != models.VolComfortLow:
		changes = append(changes, fmt.Sprintf("vol comfort normal -> low at %.0f drawdown", tracker.Drawdown))
		params.VolComfort = models.VolComfortLow
	case tracker.Drawdown <= limit/2 && params.VolComfort == models.VolComfortLow:
		changes = append(changes, "vol comfort low -> normal")
		params.VolComfort = models.VolComfortNormal
	}

	for _, c := range changes {
		log.Printf("[INFO] adapt: %s", c)
	}
	return changes
}
