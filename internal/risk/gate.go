// Package risk holds the safety gate: the pure, synchronous pre-flight
// check the loop runs before any action every cycle.
package risk

import (
	"fmt"

	"github.com/zenvex/voltagent/config"
	"github.com/zenvex/voltagent/models"
)

// Transition is the lifecycle change a breach demands from the loop.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionPause
	TransitionStop
)

// Verdict is the outcome of one safety check.
type Verdict struct {
	// Continue is false when the cycle must not act at all.
	Continue bool
	// SuppressEntries keeps monitoring/exits running while blocking new
	// ENTER decisions (position-ceiling case).
	SuppressEntries bool
	Transition      Transition
	Reason          string
}

// Check evaluates the hard limits against the session so far. Checks run in
// severity order and the first breach short-circuits.
func Check(tracker *models.PerformanceTracker, cfg *config.Config, open []*models.Position) Verdict {
	// Daily loss: pause until an operator resumes.
	if tracker.DailyPnL < -cfg.MaxDailyLoss() {
		return Verdict{
			Continue:   false,
			Transition: TransitionPause,
			Reason: fmt.Sprintf("daily loss %.2f breached limit %.2f",
				tracker.DailyPnL, -cfg.MaxDailyLoss()),
		}
	}

	// Drawdown: stop the session and liquidate.
	if tracker.Drawdown > cfg.MaxDrawdown() {
		return Verdict{
			Continue:   false,
			Transition: TransitionStop,
			Reason: fmt.Sprintf("drawdown %.2f breached limit %.2f",
				tracker.Drawdown, cfg.MaxDrawdown()),
		}
	}

	// Consecutive-loss cooldown: skip this cycle only, no transition.
	if tracker.Streak < 0 && -tracker.Streak >= cfg.CooldownThreshold {
		return Verdict{
			Continue: false,
			Reason:   fmt.Sprintf("cooling down after %d consecutive losses", -tracker.Streak),
		}
	}

	// Position ceiling: exits still run, new entries are suppressed.
	if len(open) >= cfg.MaxPositions {
		return Verdict{
			Continue:        true,
			SuppressEntries: true,
			Reason:          fmt.Sprintf("position ceiling reached (%d)", len(open)),
		}
	}

	return Verdict{Continue: true}
}
