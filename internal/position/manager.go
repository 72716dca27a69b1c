package position

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/zenvex/voltagent/config"
	"github.com/zenvex/voltagent/internal/execution"
	"github.com/zenvex/voltagent/internal/metrics"
	"github.com/zenvex/voltagent/models"
)

// Manager owns the set of open positions. It is used exclusively by one
// control-loop goroutine; callers outside the loop see copies.
type Manager struct {
	cfg     *config.Config
	tracker *models.PerformanceTracker

	open   []*models.Position
	closed []*models.Position

	now func() time.Time
}

// NewManager creates a lifecycle manager bound to the session tracker. A nil
// clock means wall time; the agent passes its own clock so force-close and
// cooldown checks agree with the loop's view of the session.
func NewManager(cfg *config.Config, tracker *models.PerformanceTracker, clock func() time.Time) *Manager {
	if clock == nil {
		clock = time.Now
	}
	return &Manager{cfg: cfg, tracker: tracker, now: clock}
}

// Open builds a position from an executed decision. A fully failed entry
// creates nothing; a partial fill creates a position in the partial state,
// tracked and eligible for exit logic like any other.
func (m *Manager) Open(d *models.Decision, s *models.Snapshot, res *execution.ExecutionResult) (*models.Position, error) {
	if res == nil || !res.AnyFilled() {
		return nil, fmt.Errorf("entry for %s not filled", d.Strategy)
	}

	legs := make([]models.Leg, 0, len(res.Fills))
	for _, f := range res.Fills {
		leg := f.Leg
		leg.Filled = f.Filled
		if f.Filled && f.FillPrice > 0 {
			leg.EntryPrice = f.FillPrice
			leg.Mark = f.FillPrice
		}
		legs = append(legs, leg)
	}

	status := models.PositionActive
	if !res.AllFilled() {
		status = models.PositionPartial
	}

	p := &models.Position{
		ID:       uuid.New().String(),
		Strategy: d.Strategy,
		Symbol:   s.Symbol,
		OpenedAt: m.now(),
		Legs:     legs,
		Status:   status,
	}
	p.EntryCost = structureValue(p, s)
	p.Target, p.Stop = exitLevels(d, p.EntryCost)
	p.PeakMark = p.EntryCost

	m.open = append(m.open, p)
	log.Printf("[INFO] opened %s position %s entry=%.2f target=%.2f stop=%.2f",
		p.Strategy, p.ID, p.EntryCost, p.Target, p.Stop)
	return p, nil
}

// Reconcile remarks every open position against the snapshot and closes the
// ones whose target, stop, trailing stop, or time exit has hit. It returns
// the positions closed this pass.
func (m *Manager) Reconcile(s *models.Snapshot) []*models.Position {
	return m.reconcile(s, false, "")
}

// CloseMatching closes open positions with the given strategy at the current
// mark, reason EXIT. An empty strategy matches every open position.
func (m *Manager) CloseMatching(s *models.Snapshot, strat models.Strategy) []*models.Position {
	var stillOpen, closed []*models.Position
	for _, p := range m.open {
		if strat != "" && p.Strategy != strat {
			stillOpen = append(stillOpen, p)
			continue
		}
		mark := structureValue(p, s)
		m.close(p, mark, models.CloseExit)
		closed = append(closed, p)
	}
	m.open = stillOpen
	return closed
}

// LiquidateAll force-closes every open position regardless of levels.
func (m *Manager) LiquidateAll(s *models.Snapshot, reason models.CloseReason) []*models.Position {
	return m.reconcile(s, true, reason)
}

func (m *Manager) reconcile(s *models.Snapshot, force bool, forceReason models.CloseReason) []*models.Position {
	if len(m.open) == 0 {
		return nil
	}

	var stillOpen, closed []*models.Position
	timeExit := m.pastForceClose()

	for _, p := range m.open {
		mark := structureValue(p, s)
		p.UnrealizedPnL = profit(p, mark)
		m.updateTrail(p, mark)

		var reason models.CloseReason
		switch {
		case force:
			reason = forceReason
		case m.targetHit(p, mark):
			reason = models.CloseTarget
		case m.stopHit(p, mark):
			reason = models.CloseStop
		case timeExit:
			reason = models.CloseTime
		}

		if reason == "" {
			m.maybeAdjust(p, s)
			stillOpen = append(stillOpen, p)
			continue
		}

		m.close(p, mark, reason)
		closed = append(closed, p)
	}

	m.open = stillOpen
	return closed
}

// close finalizes a position and records it on the tracker exactly once.
// Removal from the open set before return is what makes a second Reconcile
// in the same cycle a no-op for this position.
func (m *Manager) close(p *models.Position, mark float64, reason models.CloseReason) {
	p.Status = models.PositionClosed
	p.ClosedAt = m.now()
	p.ClosePrice = mark
	p.RealizedPnL = profit(p, mark)
	p.CloseReason = reason

	m.tracker.Record(p.RealizedPnL, p.Strategy)
	m.closed = append(m.closed, p)
	metrics.PositionCloses.WithLabelValues(string(reason)).Inc()

	log.Printf("[INFO] closed %s position %s reason=%s pnl=%.2f",
		p.Strategy, p.ID, reason, p.RealizedPnL)
}

func (m *Manager) targetHit(p *models.Position, mark float64) bool {
	if direction(p) > 0 {
		return mark >= p.Target
	}
	return mark <= p.Target
}

func (m *Manager) stopHit(p *models.Position, mark float64) bool {
	if direction(p) > 0 {
		return mark <= p.Stop
	}
	return mark >= p.Stop
}

// updateTrail arms the trailing stop once unrealized profit crosses the
// activation fraction of the target distance, then only ever tightens the
// stop as the favorable excursion grows.
func (m *Manager) updateTrail(p *models.Position, mark float64) {
	if m.cfg.TrailActivatePct <= 0 {
		return
	}
	dir := direction(p)

	targetDist := math.Abs(p.Target - p.EntryCost)
	if targetDist == 0 {
		return
	}

	if !p.TrailArmed {
		if profit(p, mark) >= targetDist*m.cfg.TrailActivatePct/100 {
			p.TrailArmed = true
			p.PeakMark = mark
		}
		return
	}

	// Track the best mark seen, then ratchet the stop behind it.
	if dir > 0 {
		if mark > p.PeakMark {
			p.PeakMark = mark
		}
		trail := p.PeakMark - (p.PeakMark-p.EntryCost)*m.cfg.TrailDistancePct/100
		if trail > p.Stop {
			p.Stop = trail
		}
	} else {
		if mark < p.PeakMark {
			p.PeakMark = mark
		}
		trail := p.PeakMark + (p.EntryCost-p.PeakMark)*m.cfg.TrailDistancePct/100
		if trail < p.Stop {
			p.Stop = trail
		}
	}
}

// maybeAdjust rolls a threatened short leg away from the money, capped per
// position and spaced by a cooldown so the book does not thrash.
func (m *Manager) maybeAdjust(p *models.Position, s *models.Snapshot) {
	if m.cfg.MaxAdjustments <= 0 || p.Adjustments >= m.cfg.MaxAdjustments {
		return
	}
	if !p.LastAdjustedAt.IsZero() && m.now().Sub(p.LastAdjustedAt) < m.cfg.AdjustCooldown() {
		return
	}

	buffer := s.Price * m.cfg.AdjustBufferPct / 100
	em := s.ExpectedMove
	if em <= 0 {
		em = math.Max(s.ATR, 1)
	}

	for i := range p.Legs {
		leg := &p.Legs[i]
		if leg.Side != "SHORT" {
			continue
		}
		if math.Abs(s.Price-leg.Strike) > buffer {
			continue
		}

		// Roll away from the money by one expected move.
		oldStrike := leg.Strike
		if leg.Kind == "CALL" {
			leg.Strike = s.Price + em
		} else {
			leg.Strike = s.Price - em
		}
		leg.EntryPrice = legMark(*leg, s)
		leg.Mark = leg.EntryPrice

		p.Adjustments++
		p.LastAdjustedAt = m.now()
		log.Printf("[INFO] rolled %s %s leg of %s from %.2f to %.2f",
			leg.Side, leg.Kind, p.ID, oldStrike, leg.Strike)
		return
	}
}

// pastForceClose reports whether the session clock has reached the
// end-of-day cut-off.
func (m *Manager) pastForceClose() bool {
	loc, err := time.LoadLocation(m.cfg.SessionTimezone)
	if err != nil {
		return false
	}
	now := m.now().In(loc)
	cut, err := time.Parse("15:04", m.cfg.ForceCloseAt)
	if err != nil {
		return false
	}
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), cut.Hour(), cut.Minute(), 0, 0, loc)
	return !now.Before(cutoff)
}

// OpenPositions returns a copy of the open set.
func (m *Manager) OpenPositions() []*models.Position {
	out := make([]*models.Position, len(m.open))
	copy(out, m.open)
	return out
}

// ClosedPositions returns the session close history.
func (m *Manager) ClosedPositions() []*models.Position {
	out := make([]*models.Position, len(m.closed))
	copy(out, m.closed)
	return out
}

// Restore seeds the open set from a checkpoint.
func (m *Manager) Restore(open []*models.Position) {
	m.open = nil
	for _, p := range open {
		if p != nil && p.IsOpen() {
			m.open = append(m.open, p)
		}
	}
}
