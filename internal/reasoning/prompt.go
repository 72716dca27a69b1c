package reasoning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/zenvex/voltagent/models"
)

const systemPrompt = `You are the decision engine of an autonomous intraday options trader.
You receive one market snapshot, the open positions, and the recent decisions.
Reply with your reasoning, then exactly one decision payload wrapped in
<decision> ... </decision> containing a single JSON object with fields:
action (ENTER|EXIT|ADJUST|WAIT|HEDGE), strategy (IRON_CONDOR|BULL_PUT_SPREAD|
BEAR_CALL_SPREAD|LONG_CALL|LONG_PUT|NO_TRADE), regime (TRENDING_UP|
TRENDING_DOWN|RANGE_BOUND|VOLATILE|QUIET), confidence (0-100), rationale,
scenarios (list of {name, outcome, probability}), hedge ({required, reason,
legs}), management ({target_pct, stop_pct, exit_by, notes}) and params
({strike, width, quantity, target, stop}). Do not act below the minimum
confidence supplied in the request.`

// Request is the serialized context of one reasoning call. Its fingerprint
// keys the response cache.
type Request struct {
	Snapshot      *models.Snapshot   `json:"snapshot"`
	Positions     []*models.Position `json:"positions"`
	Decisions     []*models.Decision `json:"decisions"`
	MinConfidence float64            `json:"min_confidence"`
}

// Fingerprint hashes the serialized request. Identical contexts within the
// cache TTL share one network call.
func (r *Request) Fingerprint() string {
	data, err := json.Marshal(r)
	if err != nil {
		// Unmarshalable requests never share a cache slot.
		data = []byte(fmt.Sprintf("%p", r))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Messages renders the request into the chat payload.
func (r *Request) Messages() []*schema.Message {
	var b strings.Builder

	b.WriteString("Market snapshot:\n")
	writeJSON(&b, r.Snapshot)

	b.WriteString("\nOpen positions:\n")
	if len(r.Positions) == 0 {
		b.WriteString("none\n")
	} else {
		writeJSON(&b, r.Positions)
	}

	b.WriteString("\nRecent decisions (newest first):\n")
	if len(r.Decisions) == 0 {
		b.WriteString("none\n")
	} else {
		writeJSON(&b, r.Decisions)
	}

	fmt.Fprintf(&b, "\nMinimum confidence to act: %.0f\n", r.MinConfidence)

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(b.String()),
	}
}

func writeJSON(b *strings.Builder, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		b.WriteString("unavailable\n")
		return
	}
	b.Write(data)
	b.WriteString("\n")
}
