// Package position owns the open-position set: opening from an executed
// decision, per-cycle mark-to-model reconciliation, and forced liquidation.
package position

import (
	"math"

	"github.com/zenvex/voltagent/models"
)

// Template default exit levels, as fractions of entry value. Defined-risk
// structures take profit early and cut at a symmetric distance; directional
// structures let winners run further.
const (
	definedRiskTargetPct = 0.10
	definedRiskStopPct   = 0.10
	directionalTargetPct = 0.60
	directionalStopPct   = 0.40
)

// definedRisk reports whether a strategy is a capped-risk spread.
func definedRisk(s models.Strategy) bool {
	switch s {
	case models.StrategyIronCondor, models.StrategyBullPutSpread, models.StrategyBearCallSpread:
		return true
	}
	return false
}

// creditStructure reports whether the holder profits from the structure's
// value falling (premium sold) rather than rising (premium bought).
func creditStructure(s models.Strategy) bool {
	return definedRisk(s)
}

// BuildLegs expands a decision into concrete legs priced off the snapshot.
// Strikes come from the decision params when present, otherwise from the
// snapshot's expected move.
func BuildLegs(d *models.Decision, s *models.Snapshot) []models.Leg {
	if d.Action == models.ActionHedge && d.Hedge.Required && len(d.Hedge.Legs) > 0 {
		return hedgeLegs(d, s)
	}

	qty := d.Params.Quantity
	if qty <= 0 {
		qty = 1
	}
	width := d.Params.Width
	if width <= 0 {
		width = math.Max(s.ExpectedMove/2, 1)
	}
	em := s.ExpectedMove
	if em <= 0 {
		em = math.Max(s.ATR, 1)
	}
	atm := d.Params.Strike
	if atm <= 0 {
		atm = s.Price
	}

	mk := func(side, kind string, strike float64) models.Leg {
		leg := models.Leg{Side: side, Kind: kind, Strike: strike, Quantity: qty}
		leg.EntryPrice = legMark(leg, s)
		leg.Mark = leg.EntryPrice
		return leg
	}

	switch d.Strategy {
	case models.StrategyIronCondor:
		return []models.Leg{
			mk("SHORT", "PUT", atm-em),
			mk("LONG", "PUT", atm-em-width),
			mk("SHORT", "CALL", atm+em),
			mk("LONG", "CALL", atm+em+width),
		}
	case models.StrategyBullPutSpread:
		return []models.Leg{
			mk("SHORT", "PUT", atm-em),
			mk("LONG", "PUT", atm-em-width),
		}
	case models.StrategyBearCallSpread:
		return []models.Leg{
			mk("SHORT", "CALL", atm+em),
			mk("LONG", "CALL", atm+em+width),
		}
	case models.StrategyLongCall:
		return []models.Leg{mk("LONG", "CALL", atm)}
	case models.StrategyLongPut:
		return []models.Leg{mk("LONG", "PUT", atm)}
	}
	return nil
}

func hedgeLegs(d *models.Decision, s *models.Snapshot) []models.Leg {
	legs := make([]models.Leg, 0, len(d.Hedge.Legs))
	for _, hl := range d.Hedge.Legs {
		qty := hl.Quantity
		if qty <= 0 {
			qty = 1
		}
		strike := hl.Strike
		if strike <= 0 {
			strike = s.Price
		}
		leg := models.Leg{Side: hl.Side, Kind: hl.Kind, Strike: strike, Quantity: qty}
		leg.EntryPrice = legMark(leg, s)
		leg.Mark = leg.EntryPrice
		legs = append(legs, leg)
	}
	return legs
}

// legMark is the per-leg valuation model: intrinsic value plus a time
// premium that decays with distance from the money. Exact pricing fidelity
// is out of scope; monotonicity in the underlying is what reconciliation
// needs.
func legMark(leg models.Leg, s *models.Snapshot) float64 {
	var intrinsic float64
	switch leg.Kind {
	case "CALL":
		intrinsic = math.Max(s.Price-leg.Strike, 0)
	case "PUT":
		intrinsic = math.Max(leg.Strike-s.Price, 0)
	}

	em := s.ExpectedMove
	if em <= 0 {
		em = math.Max(s.ATR, 0.01)
	}
	timeValue := 0.5 * em * math.Exp(-math.Abs(s.Price-leg.Strike)/em)

	return intrinsic + timeValue
}

// structureValue is the position's mark: cost to close for credit
// structures, liquidation value for debit structures. Always >= 0.
func structureValue(p *models.Position, s *models.Snapshot) float64 {
	var debit, credit float64
	for i := range p.Legs {
		p.Legs[i].Mark = legMark(p.Legs[i], s)
		v := p.Legs[i].Mark * float64(p.Legs[i].Quantity)
		if p.Legs[i].Side == "SHORT" {
			credit += v
		} else {
			debit += v
		}
	}
	if creditStructure(p.Strategy) {
		// Net premium the holder would pay to close the short structure.
		return math.Max(credit-debit, 0)
	}
	return math.Max(debit-credit, 0)
}

// exitLevels derives target and stop value levels for a new position.
// Decision params and the management plan override the template defaults.
func exitLevels(d *models.Decision, entry float64) (target, stop float64) {
	targetPct, stopPct := directionalTargetPct, directionalStopPct
	if definedRisk(d.Strategy) {
		targetPct, stopPct = definedRiskTargetPct, definedRiskStopPct
	}
	if d.Management.TargetPct > 0 {
		targetPct = d.Management.TargetPct / 100
	}
	if d.Management.StopPct > 0 {
		stopPct = d.Management.StopPct / 100
	}

	if creditStructure(d.Strategy) {
		// Profit when the structure decays: target below entry, stop above.
		target = entry * (1 - targetPct)
		stop = entry * (1 + stopPct)
	} else {
		target = entry * (1 + targetPct)
		stop = entry * (1 - stopPct)
	}

	// Explicit value levels from the decision win outright.
	if d.Params.Target > 0 {
		target = d.Params.Target
	}
	if d.Params.Stop > 0 {
		stop = d.Params.Stop
	}
	return target, stop
}

// direction is +1 when the holder profits from the structure value rising,
// -1 when from falling. Encoded by the target side of entry.
func direction(p *models.Position) float64 {
	if p.Target >= p.EntryCost {
		return 1
	}
	return -1
}

// profit is the direction-aware unrealized P&L at the given mark.
func profit(p *models.Position, mark float64) float64 {
	return (mark - p.EntryCost) * direction(p)
}
