package decision

import (
	"strings"
	"testing"

	"github.com/zenvex/voltagent/models"
)

const wellFormed = `<decision>
{
  "action": "ENTER",
  "strategy": "IRON_CONDOR",
  "regime": "RANGE_BOUND",
  "confidence": 78,
  "rationale": "price pinned between levels",
  "params": {"strike": 500, "width": 5, "quantity": 1, "target": 110, "stop": 95}
}
</decision>`

func snap() *models.Snapshot {
	return &models.Snapshot{Symbol: "SPY", Price: 500}
}

func TestParseWellFormedPayload(t *testing.T) {
	d := Parse(wellFormed, snap())
	if d.Action != models.ActionEnter {
		t.Errorf("action = %s", d.Action)
	}
	if d.Strategy != models.StrategyIronCondor {
		t.Errorf("strategy = %s", d.Strategy)
	}
	if d.Regime != models.RegimeRangeBound {
		t.Errorf("regime = %s", d.Regime)
	}
	if d.Confidence != 78 || d.Band != models.BandHigh {
		t.Errorf("confidence = %v band = %s", d.Confidence, d.Band)
	}
	if d.Params.Strike != 500 || d.Params.Width != 5 {
		t.Errorf("params = %+v", d.Params)
	}
}

func TestParsePayloadWrappedInProse(t *testing.T) {
	text := "Let me walk through the setup.\n" + wellFormed + "\nThat is my final answer."
	d := Parse(text, snap())
	if d.Action != models.ActionEnter || d.Strategy != models.StrategyIronCondor {
		t.Fatalf("prose wrapper broke extraction: %+v", d)
	}
}

func TestParseFencedPayload(t *testing.T) {
	text := "Here is the decision:\n```json\n{\"action\": \"HEDGE\", \"strategy\": \"LONG_PUT\", \"regime\": \"VOLATILE\", \"confidence\": 62}\n```"
	d := Parse(text, snap())
	if d.Action != models.ActionHedge || d.Strategy != models.StrategyLongPut {
		t.Fatalf("fenced extraction failed: %+v", d)
	}
	if d.Band != models.BandModerate {
		t.Errorf("band = %s", d.Band)
	}
}

func TestParseBareBraceSpan(t *testing.T) {
	text := `analysis... {"action": "EXIT", "strategy": "LONG_CALL", "regime": "TRENDING_DOWN", "confidence": 90} trailing prose`
	d := Parse(text, snap())
	if d.Action != models.ActionExit {
		t.Fatalf("brace-span extraction failed: %+v", d)
	}
}

func TestParseTruncatedPayloadDegradesToWait(t *testing.T) {
	text := `<decision>{"action": "ENTER", "strategy": "IRON_CON`
	d := Parse(text, snap())
	if d.Action != models.ActionWait {
		t.Fatalf("truncated payload must yield WAIT, got %s", d.Action)
	}
	if d.Rationale == "" {
		t.Error("WAIT decision should carry the raw text")
	}
}

func TestParseEmptyStringDegradesToWait(t *testing.T) {
	d := Parse("", snap())
	if d.Action != models.ActionWait || d.Strategy != models.StrategyNoTrade {
		t.Fatalf("empty input must yield WAIT/NO_TRADE, got %+v", d)
	}
}

func TestParseUnknownEnumsMapToSafeDefaults(t *testing.T) {
	text := `{"action": "YOLO", "strategy": "STRADDLE_9000", "regime": "SIDEWISE", "confidence": 150}`
	d := Parse(text, snap())
	if d.Action != models.ActionWait {
		t.Errorf("unknown action should map to WAIT, got %s", d.Action)
	}
	if d.Strategy != models.StrategyNoTrade {
		t.Errorf("unknown strategy should map to NO_TRADE, got %s", d.Strategy)
	}
	if d.Regime != models.RegimeUnknown {
		t.Errorf("unknown regime should map to UNKNOWN, got %s", d.Regime)
	}
	if d.Confidence != 100 {
		t.Errorf("confidence should clamp to 100, got %v", d.Confidence)
	}
}

func TestParseEntryWithoutSnapshotDegradesToWait(t *testing.T) {
	d := Parse(wellFormed, nil)
	if d.Action != models.ActionWait {
		t.Fatalf("entry without a snapshot must yield WAIT, got %s", d.Action)
	}
	d = Parse(wellFormed, &models.Snapshot{Symbol: "SPY"})
	if d.Action != models.ActionWait {
		t.Fatalf("entry with a zero price must yield WAIT, got %s", d.Action)
	}
}

func TestParseLongRawTextIsTruncated(t *testing.T) {
	d := Parse(strings.Repeat("x", 2000), snap())
	if len(d.Rationale) > maxRationale+100 {
		t.Fatalf("rationale not truncated: %d chars", len(d.Rationale))
	}
}
