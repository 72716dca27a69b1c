package decision

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zenvex/voltagent/models"
)

// Fallback derives a decision purely from the snapshot when the reasoning
// service is unavailable. It is total: any input, including an all-zero
// snapshot, yields a decision, and it touches no network resource.
//
// Each regime candidate gets a weighted score from a volatility band, a
// directional bias, and a range-vs-trend reading; the winner maps to one
// fixed strategy.
func Fallback(snapshot *models.Snapshot) *models.Decision {
	scores := scoreRegimes(snapshot)

	best := models.RegimeUnknown
	bestScore := 0.0
	for regime, score := range scores {
		if score > bestScore {
			best, bestScore = regime, score
		}
	}

	strategy := strategyForRegime(best)
	action := models.ActionEnter
	if strategy == models.StrategyNoTrade {
		action = models.ActionWait
	}

	// Conservative by construction: fallback confidence tops out well below
	// what a healthy reasoning cycle can produce.
	conf := models.ClampConfidence(40 + bestScore*30)
	if conf > 70 {
		conf = 70
	}

	return &models.Decision{
		ID:         uuid.New().String(),
		Timestamp:  time.Now(),
		Action:     action,
		Strategy:   strategy,
		Regime:     best,
		Confidence: conf,
		Band:       models.BandFor(conf),
		Rationale:  fmt.Sprintf("deterministic fallback: regime %s scored %.2f", best, bestScore),
		Source:     "fallback",
	}
}

// scoreRegimes produces a 0..1 score per regime candidate.
func scoreRegimes(s *models.Snapshot) map[models.Regime]float64 {
	scores := make(map[models.Regime]float64)
	if s == nil || s.Price <= 0 {
		return scores
	}

	// Volatility band: IV rank when present, ATR as a share of price
	// otherwise.
	volLevel := s.IVRank / 100
	if volLevel == 0 && s.ATR > 0 {
		volLevel = clamp01(s.ATR / s.Price / 0.02)
	}

	// Directional bias from the day's move and price vs VWAP.
	change := s.ChangePct()
	bias := clamp01(abs(change) / 2)
	aboveVWAP := s.VWAP > 0 && s.Price > s.VWAP

	// Range reading: mid-band price with a small move suggests chop.
	pos := s.RangePosition()
	centered := 1 - 2*abs(pos-0.5)

	up, down := 0.0, 0.0
	if change > 0 || aboveVWAP {
		up = bias
	}
	if change < 0 || (s.VWAP > 0 && !aboveVWAP) {
		down = bias
	}

	scores[models.RegimeTrendingUp] = 0.6*up + 0.2*volLevel + 0.2*(1-centered)
	scores[models.RegimeTrendingDown] = 0.6*down + 0.2*volLevel + 0.2*(1-centered)
	scores[models.RegimeRangeBound] = 0.6*centered + 0.3*(1-bias) + 0.1*(1-volLevel)
	scores[models.RegimeVolatile] = 0.7*volLevel + 0.3*bias
	scores[models.RegimeQuiet] = 0.6*(1-volLevel) + 0.4*(1-bias)

	return scores
}

// strategyForRegime is the fixed regime-to-strategy map the fallback uses.
func strategyForRegime(r models.Regime) models.Strategy {
	switch r {
	case models.RegimeTrendingUp:
		return models.StrategyBullPutSpread
	case models.RegimeTrendingDown:
		return models.StrategyBearCallSpread
	case models.RegimeRangeBound:
		return models.StrategyIronCondor
	case models.RegimeVolatile:
		return models.StrategyLongCall
	default:
		return models.StrategyNoTrade
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
