package adapt

import (
	"strings"
	"testing"

	"github.com/zenvex/voltagent/config"
	"github.com/zenvex/voltagent/models"
)

func newEngine() *Engine {
	cfg := config.DefaultConfig()
	cfg.Capital = 100000
	return NewEngine(cfg)
}

func TestLosingStreakRaisesBar(t *testing.T) {
	e := newEngine()
	tracker := models.NewPerformanceTracker()
	tracker.Record(-100, models.StrategyLongCall)
	tracker.Record(-100, models.StrategyLongCall)

	params := models.NewEvolvedParameters(65)
	changes := e.Review(tracker, params)

	if params.MinConfidence != 70 {
		t.Fatalf("MinConfidence = %.0f, want 70", params.MinConfidence)
	}
	if len(changes) == 0 {
		t.Error("expected a recorded change")
	}
}

func TestConfidenceCeiling(t *testing.T) {
	e := newEngine()
	tracker := models.NewPerformanceTracker()
	tracker.Record(-100, models.StrategyLongCall)
	tracker.Record(-100, models.StrategyLongCall)

	params := models.NewEvolvedParameters(88)
	e.Review(tracker, params)
	if params.MinConfidence != 90 {
		t.Fatalf("MinConfidence = %.0f, want capped at 90", params.MinConfidence)
	}

	// Already at the ceiling: no further change, no change entry for it.
	changes := e.Review(tracker, params)
	if params.MinConfidence != 90 {
		t.Fatalf("MinConfidence moved past ceiling: %.0f", params.MinConfidence)
	}
	for _, c := range changes {
		if strings.HasPrefix(c, "min confidence") {
			t.Errorf("unexpected confidence change at ceiling: %q", c)
		}
	}
}

func TestWinningStreakLowersBar(t *testing.T) {
	e := newEngine()
	tracker := models.NewPerformanceTracker()
	tracker.Record(100, models.StrategyIronCondor)
	tracker.Record(100, models.StrategyIronCondor)
	tracker.Record(100, models.StrategyIronCondor)

	params := models.NewEvolvedParameters(65)
	e.Review(tracker, params)
	if params.MinConfidence != 62 {
		t.Fatalf("MinConfidence = %.0f, want 62", params.MinConfidence)
	}
}

func TestConfidenceFloor(t *testing.T) {
	e := newEngine()
	tracker := models.NewPerformanceTracker()
	tracker.Record(100, models.StrategyIronCondor)
	tracker.Record(100, models.StrategyIronCondor)
	tracker.Record(100, models.StrategyIronCondor)

	params := models.NewEvolvedParameters(51)
	e.Review(tracker, params)
	if params.MinConfidence != 50 {
		t.Fatalf("MinConfidence = %.0f, want floored at 50", params.MinConfidence)
	}
}

func TestShortStreakLeavesConfidenceAlone(t *testing.T) {
	e := newEngine()
	tracker := models.NewPerformanceTracker()
	tracker.Record(-100, models.StrategyLongCall)

	params := models.NewEvolvedParameters(65)
	e.Review(tracker, params)
	if params.MinConfidence != 65 {
		t.Fatalf("MinConfidence = %.0f, want unchanged 65", params.MinConfidence)
	}
}

func TestPreferredStrategyNeedsSample(t *testing.T) {
	e := newEngine()
	tracker := models.NewPerformanceTracker()
	tracker.Record(200, models.StrategyIronCondor)

	params := models.NewEvolvedParameters(65)
	e.Review(tracker, params)
	if params.PreferredStrategy != models.StrategyNoTrade {
		t.Fatalf("PreferredStrategy = %s before sample threshold, want NO_TRADE", params.PreferredStrategy)
	}

	tracker.Record(200, models.StrategyIronCondor)
	e.Review(tracker, params)
	if params.PreferredStrategy != models.StrategyIronCondor {
		t.Fatalf("PreferredStrategy = %s, want IRON_CONDOR", params.PreferredStrategy)
	}
}

func TestStrategyWeightsShiftTowardWinners(t *testing.T) {
	e := newEngine()
	tracker := models.NewPerformanceTracker()
	tracker.Record(200, models.StrategyIronCondor)
	tracker.Record(200, models.StrategyIronCondor)
	tracker.Record(-300, models.StrategyLongPut)
	tracker.Record(-300, models.StrategyLongPut)

	params := models.NewEvolvedParameters(65)
	changes := e.Review(tracker, params)

	if w := params.StrategyWeights[models.StrategyIronCondor]; w != 1.1 {
		t.Errorf("condor weight = %.2f, want 1.1", w)
	}
	if w := params.StrategyWeights[models.StrategyLongPut]; w != 0.9 {
		t.Errorf("long put weight = %.2f, want 0.9", w)
	}

	// Each shift shows up in the review summary like every other mutation.
	var condorNoted, putNoted bool
	for _, c := range changes {
		if strings.Contains(c, "weight "+string(models.StrategyIronCondor)) {
			condorNoted = true
		}
		if strings.Contains(c, "weight "+string(models.StrategyLongPut)) {
			putNoted = true
		}
	}
	if !condorNoted || !putNoted {
		t.Errorf("weight shifts missing from changes: %v", changes)
	}
}

func TestDrawdownFlipsVolComfort(t *testing.T) {
	e := newEngine()
	tracker := models.NewPerformanceTracker()
	// Peak +1000, then give back 4100: drawdown 4100 > 3% of 100k.
	tracker.Record(1000, models.StrategyIronCondor)
	tracker.Record(-4100, models.StrategyIronCondor)
	if tracker.Drawdown != 4100 {
		t.Fatalf("setup drawdown = %.0f, want 4100", tracker.Drawdown)
	}

	params := models.NewEvolvedParameters(65)
	e.Review(tracker, params)
	if params.VolComfort != models.VolComfortLow {
		t.Fatalf("VolComfort = %s, want low", params.VolComfort)
	}

	// Recovery past half the limit restores normal appetite.
	tracker.Record(3000, models.StrategyIronCondor)
	if tracker.Drawdown > 1500 {
		t.Fatalf("setup recovery drawdown = %.0f, want <= 1500", tracker.Drawdown)
	}
	e.Review(tracker, params)
	if params.VolComfort != models.VolComfortNormal {
		t.Fatalf("VolComfort = %s after recovery, want normal", params.VolComfort)
	}
}

func TestNilInputsAreSafe(t *testing.T) {
	e := newEngine()
	if changes := e.Review(nil, nil); changes != nil {
		t.Fatalf("nil review returned %v", changes)
	}
}
