// Package decision turns reasoning output into typed decisions. The parser
// treats the reasoning service as an untrusted, best-effort source: any
// malformed payload degrades to a WAIT decision instead of failing the
// cycle, and the fallback engine covers for the service being down.
package decision

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenvex/voltagent/models"
)

var (
	delimitedRe = regexp.MustCompile(`(?s)<decision>\s*(.*?)\s*</decision>`)
	fencedRe    = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
)

const maxRationale = 400

// payload is the loose wire shape expected inside the reasoning text.
type payload struct {
	Action     string                `json:"action"`
	Strategy   string                `json:"strategy"`
	Regime     string                `json:"regime"`
	Confidence float64               `json:"confidence"`
	Rationale  string                `json:"rationale"`
	Scenarios  []models.Scenario     `json:"scenarios"`
	Hedge      models.HedgePlan      `json:"hedge"`
	Management models.ManagementPlan `json:"management"`
	Params     models.TradeParams    `json:"params"`
}

// Parse extracts one Decision from free-form reasoning text. It is total:
// any parse failure yields a WAIT decision carrying the truncated raw text.
func Parse(text string, snapshot *models.Snapshot) *models.Decision {
	raw, ok := extractPayload(text)
	if !ok {
		return waitDecision(text, "no structured payload found")
	}

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return waitDecision(text, "payload is not valid JSON")
	}

	conf := models.ClampConfidence(p.Confidence)
	rationale := strings.TrimSpace(p.Rationale)
	if rationale == "" {
		rationale = truncate(text, maxRationale)
	}

	action := models.ParseAction(p.Action)
	if (action == models.ActionEnter || action == models.ActionHedge) && (snapshot == nil || snapshot.Price <= 0) {
		return waitDecision(text, "entry requested without a priceable snapshot")
	}

	return &models.Decision{
		ID:         uuid.New().String(),
		Timestamp:  time.Now(),
		Action:     action,
		Strategy:   models.ParseStrategy(p.Strategy),
		Regime:     models.ParseRegime(p.Regime),
		Confidence: conf,
		Band:       models.BandFor(conf),
		Rationale:  rationale,
		Scenarios:  p.Scenarios,
		Hedge:      p.Hedge,
		Management: p.Management,
		Params:     p.Params,
		Source:     "model",
	}
}

// extractPayload tries, in order: a <decision> delimited block, a fenced
// code block, then the widest brace-delimited span in the text.
func extractPayload(text string) (string, bool) {
	if m := delimitedRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := fencedRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1], true
	}
	return "", false
}

func waitDecision(raw, note string) *models.Decision {
	rationale := note
	if t := truncate(raw, maxRationale); t != "" {
		rationale = note + ": " + t
	}
	return &models.Decision{
		ID:         uuid.New().String(),
		Timestamp:  time.Now(),
		Action:     models.ActionWait,
		Strategy:   models.StrategyNoTrade,
		Regime:     models.RegimeUnknown,
		Confidence: 0,
		Band:       models.BandVeryLow,
		Rationale:  rationale,
		Source:     "model",
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
