// Package agent runs the decision loop: observe the market, gate on safety
// limits, reason (or fall back), act, reflect, and periodically adapt and
// checkpoint. One goroutine owns the loop; control methods communicate
// through guarded state and queued updates applied at cycle boundaries.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/zenvex/voltagent/config"
	"github.com/zenvex/voltagent/internal/adapt"
	"github.com/zenvex/voltagent/internal/checkpoint"
	"github.com/zenvex/voltagent/internal/decision"
	"github.com/zenvex/voltagent/internal/execution"
	"github.com/zenvex/voltagent/internal/metrics"
	"github.com/zenvex/voltagent/internal/observe"
	"github.com/zenvex/voltagent/internal/position"
	"github.com/zenvex/voltagent/internal/reasoning"
	"github.com/zenvex/voltagent/internal/risk"
	"github.com/zenvex/voltagent/internal/storage"
	"github.com/zenvex/voltagent/models"
)

// ErrAlreadyRunning is returned by Start when the loop is live.
var ErrAlreadyRunning = errors.New("agent already running")

// Reasoner is the slice of the reasoning client the loop needs.
type Reasoner interface {
	Ask(ctx context.Context, req *reasoning.Request) (string, error)
	ResetBudget()
}

// Status is a point-in-time copy of the agent's externally visible state.
type Status struct {
	ID            string             `json:"id"`
	State         State              `json:"state"`
	Cycle         int64              `json:"cycle"`
	ErrorCount    int                `json:"error_count"`
	DailyPnL      float64            `json:"daily_pnl"`
	TotalPnL      float64            `json:"total_pnl"`
	OpenPositions []*models.Position `json:"open_positions"`
	LastDecision  *models.Decision   `json:"last_decision"`
	Events        []models.AgentEvent `json:"events"`
}

// Agent is one trading decision loop bound to a symbol.
type Agent struct {
	ID string

	cfg      *config.Config
	observer observe.Observer
	reasoner Reasoner
	executor execution.Executor
	store    storage.Store

	positions *position.Manager
	tracker   *models.PerformanceTracker
	params    *models.EvolvedParameters
	adapter   *adapt.Engine
	history   *models.DecisionHistory
	events    *Feed

	mu           sync.Mutex
	state        State
	cycle        int64
	errorCount   int
	pendingCfg   *config.Config
	running      bool
	paused       bool
	pauseCancel  context.CancelFunc
	lastSnapshot *models.Snapshot
	lastStatus   Status

	cancel context.CancelFunc
	done   chan struct{}

	now func() time.Time
}

// New assembles an agent from its collaborators. Call Start to run it.
func New(cfg *config.Config, observer observe.Observer, reasoner Reasoner,
	executor execution.Executor, store storage.Store) *Agent {
	tracker := models.NewPerformanceTracker()
	// A stable ID keys the checkpoint, so a restarted process picks its
	// session back up.
	a := &Agent{
		ID:       "voltagent-" + strings.ToLower(cfg.Symbol),
		cfg:      cfg,
		observer: observer,
		reasoner: reasoner,
		executor: executor,
		store:    store,
		tracker:  tracker,
		params:   models.NewEvolvedParameters(cfg.MinConfidence),
		adapter:  adapt.NewEngine(cfg),
		history:  models.NewDecisionHistory(50),
		events:   NewFeed(),
		state:    StateIdle,
		now:      time.Now,
	}
	// The book shares the loop's clock so time exits and cooldowns agree
	// with the session the agent thinks it is in.
	a.positions = position.NewManager(cfg, tracker, func() time.Time { return a.now() })
	return a
}

// Start restores any checkpoint and launches the loop goroutine. A second
// Start while running returns ErrAlreadyRunning.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	a.running = true
	a.state = StateIdle
	a.paused = false
	a.errorCount = 0
	loopCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	a.mu.Unlock()

	a.restore(ctx)
	a.snapshotStatus()
	a.events.Append(models.EventState, a.Cycle(), "started", "agent "+a.ID)

	go a.run(loopCtx)
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (a *Agent) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Pause halts cycle work until Resume. The pause flag is separate from the
// cycle-progress state, so a pause landing mid-cycle is not lost to the
// cycle's own transitions; an in-flight reasoning call or back-off is
// cancelled, and the cycle abandons before acting.
func (a *Agent) Pause(reason string) {
	a.mu.Lock()
	a.paused = true
	a.state = StatePaused
	cancelCycle := a.pauseCancel
	a.mu.Unlock()

	if cancelCycle != nil {
		cancelCycle()
	}
	a.events.Append(models.EventState, a.Cycle(), "paused", reason)
	log.Printf("[WARN] agent %s paused: %s", a.ID, reason)
}

// Resume returns a paused agent to the working cycle. No-op otherwise.
func (a *Agent) Resume() {
	a.mu.Lock()
	if !a.paused {
		a.mu.Unlock()
		return
	}
	a.paused = false
	a.state = StateIdle
	a.errorCount = 0
	a.mu.Unlock()
	a.events.Append(models.EventState, a.Cycle(), "resumed", "")
	log.Printf("[INFO] agent %s resumed", a.ID)
}

// UpdateConfig validates a partial update and queues it; the new config
// takes effect at the next cycle boundary.
func (a *Agent) UpdateConfig(patch map[string]any) error {
	a.mu.Lock()
	base := a.cfg
	if a.pendingCfg != nil {
		base = a.pendingCfg
	}
	next, err := base.ApplyUpdate(patch)
	if err != nil {
		a.mu.Unlock()
		return err
	}
	a.pendingCfg = next
	a.mu.Unlock()
	a.events.Append(models.EventState, a.Cycle(), "config update queued", fmt.Sprintf("%d fields", len(patch)))
	return nil
}

// GetStatus returns the last published status snapshot with the live
// lifecycle fields overlaid. It never touches the tracker, book, or history
// directly, so it is safe from any goroutine while the loop runs.
func (a *Agent) GetStatus() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := a.lastStatus
	st.ID = a.ID
	st.State = a.state
	st.Cycle = a.cycle
	st.ErrorCount = a.errorCount
	return st
}

// snapshotStatus publishes a detached copy of the loop-owned state. Only the
// loop goroutine (or a not-yet-started agent) may call it.
func (a *Agent) snapshotStatus() {
	st := Status{
		DailyPnL:      a.tracker.DailyPnL,
		TotalPnL:      a.tracker.TotalPnL,
		OpenPositions: clonePositions(a.positions.OpenPositions()),
		LastDecision:  a.history.Last(),
		Events:        a.events.Recent(20),
	}
	a.mu.Lock()
	a.lastStatus = st
	a.mu.Unlock()
}

// clonePositions deep-copies the open set so later reconciliation passes
// cannot remark positions a status holder is still reading.
func clonePositions(in []*models.Position) []*models.Position {
	out := make([]*models.Position, 0, len(in))
	for _, p := range in {
		cp := *p
		cp.Legs = append([]models.Leg(nil), p.Legs...)
		out = append(out, &cp)
	}
	return out
}

// State returns the current lifecycle state.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Cycle returns the completed-cycle count.
func (a *Agent) Cycle() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cycle
}

// ResetDaily rolls the session counters and the reasoning budget over.
func (a *Agent) ResetDaily() {
	a.tracker.ResetDaily()
	if a.reasoner != nil {
		a.reasoner.ResetBudget()
	}
	a.events.Append(models.EventState, a.Cycle(), "daily reset", "")
	log.Printf("[INFO] agent %s daily counters reset", a.ID)
}

// setState records cycle progress. A requested pause is never overwritten
// by a cycle transition; only the terminal state wins over it.
func (a *Agent) setState(s State) {
	a.mu.Lock()
	if !a.paused || s == StateStopped {
		a.state = s
	}
	a.mu.Unlock()
}

func (a *Agent) pausedNow() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

func (a *Agent) run(ctx context.Context) {
	defer func() {
		a.shutdown()
		a.mu.Lock()
		a.running = false
		a.state = StateStopped
		a.paused = false
		done := a.done
		a.mu.Unlock()
		a.snapshotStatus()
		a.events.Append(models.EventState, a.Cycle(), "stopped", "")
		log.Printf("[INFO] agent %s stopped", a.ID)
		close(done)
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		if a.State().Terminal() {
			return
		}

		if !a.pausedNow() {
			// Pause cancels the cycle context so an in-flight reasoning
			// call or retry back-off unblocks immediately.
			cycleCtx, cancelCycle := context.WithCancel(ctx)
			a.mu.Lock()
			a.pauseCancel = cancelCycle
			a.mu.Unlock()

			a.runCycle(cycleCtx)

			a.mu.Lock()
			a.pauseCancel = nil
			a.mu.Unlock()
			cancelCycle()

			a.applyPendingConfig()
		}
		a.snapshotStatus()
		if a.State().Terminal() {
			return
		}

		interval := a.cfg.ThinkInterval()
		if !a.inSession(a.now()) {
			interval = a.cfg.OffHoursInterval()
		}
		if !sleepCtx(ctx, interval) {
			return
		}
	}
}

// shutdown flattens the book and takes the final checkpoint. An operator
// stop is a forced liquidation, the same as a drawdown stop; positions are
// closed at the last observed marks, or freshly observed ones when the loop
// never got a snapshot this run.
func (a *Agent) shutdown() {
	a.mu.Lock()
	snapshot := a.lastSnapshot
	a.mu.Unlock()

	if snapshot == nil && len(a.positions.OpenPositions()) > 0 {
		octx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		s, err := a.observer.Observe(octx, a.cfg.Symbol)
		cancel()
		if err != nil {
			log.Printf("[ERROR] agent %s cannot mark book for liquidation: %v", a.ID, err)
		}
		snapshot = s
	}

	if snapshot != nil {
		for _, p := range a.positions.LiquidateAll(snapshot, models.CloseLiquidation) {
			a.events.Append(models.EventPosition, a.Cycle(), "liquidated "+string(p.Strategy),
				fmt.Sprintf("pnl=%.2f", p.RealizedPnL))
		}
	}
	a.checkpointNow(context.Background())
}

// runCycle is one full pass of the loop. Any error increments the
// consecutive-error count; enough of them in a row pauses the agent.
func (a *Agent) runCycle(ctx context.Context) {
	a.setState(StateObserving)
	snapshot, err := a.observer.Observe(ctx, a.cfg.Symbol)
	if err != nil {
		a.noteError(fmt.Errorf("observe: %w", err))
		return
	}
	a.mu.Lock()
	a.lastSnapshot = snapshot
	a.mu.Unlock()

	// Marks, exits, trailing, and adjustments run before the safety check so
	// the verdict (and the book the reasoner sees) reflects this cycle's
	// closes, not last cycle's.
	a.setState(StateSafetyCheck)
	for _, p := range a.positions.Reconcile(snapshot) {
		a.events.Append(models.EventPosition, a.Cycle(), "closed "+string(p.Strategy),
			fmt.Sprintf("reason=%s pnl=%.2f", p.CloseReason, p.RealizedPnL))
	}
	verdict := risk.Check(a.tracker, a.cfg, a.positions.OpenPositions())

	switch verdict.Transition {
	case risk.TransitionPause:
		a.events.Append(models.EventSafety, a.Cycle(), "limit breach", verdict.Reason)
		a.Pause(verdict.Reason)
		return
	case risk.TransitionStop:
		a.events.Append(models.EventSafety, a.Cycle(), "limit breach", verdict.Reason)
		for _, p := range a.positions.LiquidateAll(snapshot, models.CloseLiquidation) {
			a.events.Append(models.EventPosition, a.Cycle(), "liquidated "+string(p.Strategy),
				fmt.Sprintf("pnl=%.2f", p.RealizedPnL))
		}
		a.checkpointNow(ctx)
		a.setState(StateStopped)
		log.Printf("[ERROR] agent %s stopped: %s", a.ID, verdict.Reason)
		return
	}
	if !verdict.Continue {
		// Cooldown: sit this cycle out, keep monitoring.
		a.events.Append(models.EventSafety, a.Cycle(), "cycle skipped", verdict.Reason)
		a.finishCycle(ctx)
		return
	}

	if !a.inSession(a.now()) {
		a.finishCycle(ctx)
		return
	}

	a.setState(StateThinking)
	d := a.decide(ctx, snapshot)
	if d == nil {
		// The cycle context was cancelled mid-thought; abandon the pass.
		return
	}
	a.history.Push(d)
	metrics.Decisions.WithLabelValues(string(d.Action), d.Source).Inc()
	a.events.Append(models.EventDecision, a.Cycle(), string(d.Action),
		fmt.Sprintf("%s %s conf=%.0f src=%s", d.Strategy, d.Regime, d.Confidence, d.Source))

	if d.Action == models.ActionEnter || d.Action == models.ActionHedge {
		if d.Confidence < a.params.MinConfidence {
			a.events.Append(models.EventDecision, a.Cycle(), "entry rejected",
				fmt.Sprintf("confidence %.0f below threshold %.0f", d.Confidence, a.params.MinConfidence))
			d = demoteToWait(d)
		} else if verdict.SuppressEntries {
			a.events.Append(models.EventDecision, a.Cycle(), "entry suppressed", verdict.Reason)
			d = demoteToWait(d)
		}
	}

	if a.pausedNow() {
		// A pause landed while thinking; nothing may reach the market.
		return
	}

	a.setState(StateActing)
	a.act(ctx, d, snapshot)

	a.mu.Lock()
	a.errorCount = 0
	a.mu.Unlock()
	a.finishCycle(ctx)
}

// decide asks the reasoning service and falls back to the deterministic
// engine on any failure, including an exhausted budget. A cancelled cycle
// context returns nil: cancellation is a pause or stop, not a service
// failure to route around.
func (a *Agent) decide(ctx context.Context, snapshot *models.Snapshot) *models.Decision {
	req := &reasoning.Request{
		Snapshot:      snapshot,
		Positions:     a.positions.OpenPositions(),
		Decisions:     a.history.Recent(5),
		MinConfidence: a.params.MinConfidence,
	}
	raw, err := a.reasoner.Ask(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, reasoning.ErrBudgetExhausted) {
			log.Printf("[WARN] agent %s reasoning budget exhausted, using fallback", a.ID)
		} else {
			log.Printf("[WARN] agent %s reasoning failed: %v", a.ID, err)
		}
		metrics.FallbackDecisions.Inc()
		return decision.Fallback(snapshot)
	}
	return decision.Parse(raw, snapshot)
}

// act executes the decision. Entry failures are errors; a WAIT is free.
func (a *Agent) act(ctx context.Context, d *models.Decision, snapshot *models.Snapshot) {
	switch d.Action {
	case models.ActionEnter, models.ActionHedge:
		legs := position.BuildLegs(d, snapshot)
		if len(legs) == 0 {
			a.events.Append(models.EventErrorNote, a.Cycle(), "no legs",
				"strategy "+string(d.Strategy)+" produced no structure")
			return
		}
		res, err := a.executor.Execute(ctx, d, legs)
		if err != nil {
			a.noteError(fmt.Errorf("execute: %w", err))
			return
		}
		p, err := a.positions.Open(d, snapshot, res)
		if err != nil {
			a.events.Append(models.EventErrorNote, a.Cycle(), "entry not filled", err.Error())
			return
		}
		a.events.Append(models.EventPosition, a.Cycle(), "opened "+string(p.Strategy),
			fmt.Sprintf("entry=%.2f target=%.2f stop=%.2f", p.EntryCost, p.Target, p.Stop))

	case models.ActionExit:
		for _, p := range a.positions.CloseMatching(snapshot, d.Strategy) {
			a.events.Append(models.EventPosition, a.Cycle(), "exited "+string(p.Strategy),
				fmt.Sprintf("pnl=%.2f", p.RealizedPnL))
		}

	case models.ActionAdjust, models.ActionWait:
		// Adjustments are handled inside reconciliation; nothing to place.
	}
}

// finishCycle does the bookkeeping common to every completed pass.
func (a *Agent) finishCycle(ctx context.Context) {
	a.setState(StateReflecting)

	a.mu.Lock()
	a.cycle++
	cycle := a.cycle
	a.mu.Unlock()

	metrics.Cycles.WithLabelValues(a.ID).Inc()
	metrics.Equity.WithLabelValues(a.ID).Set(a.cfg.Capital + a.tracker.TotalPnL)

	if a.cfg.AdaptEvery > 0 && cycle%int64(a.cfg.AdaptEvery) == 0 {
		a.setState(StateAdapting)
		for _, change := range a.adapter.Review(a.tracker, a.params) {
			a.events.Append(models.EventAdapt, cycle, "tuned", change)
		}
	}

	if a.cfg.CheckpointEvery > 0 && cycle%int64(a.cfg.CheckpointEvery) == 0 {
		a.checkpointNow(ctx)
	}

	a.setState(StateIdle)
	a.snapshotStatus()
}

// checkpointNow persists state; failure is logged, never fatal.
func (a *Agent) checkpointNow(ctx context.Context) {
	if a.store == nil {
		return
	}
	cp := &models.Checkpoint{
		AgentID:     a.ID,
		State:       string(a.State()),
		Cycle:       a.Cycle(),
		ErrorCount:  a.errorCountNow(),
		Performance: a.tracker,
		Params:      a.params,
		Positions:   a.positions.OpenPositions(),
		Decisions:   a.history.Recent(20),
	}
	if err := checkpoint.Save(ctx, a.store, cp); err != nil {
		log.Printf("[WARN] agent %s checkpoint failed: %v", a.ID, err)
	}
}

// restore loads the last checkpoint, if any, into the live state.
func (a *Agent) restore(ctx context.Context) {
	if a.store == nil {
		return
	}
	cp, err := checkpoint.Load(ctx, a.store, a.ID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("[WARN] agent %s checkpoint load failed: %v", a.ID, err)
		}
		return
	}

	a.mu.Lock()
	a.cycle = cp.Cycle
	a.mu.Unlock()

	if cp.Performance != nil {
		*a.tracker = *cp.Performance
	}
	if cp.Params != nil {
		a.params = cp.Params
	}
	a.positions.Restore(cp.Positions)
	for i := len(cp.Decisions) - 1; i >= 0; i-- {
		a.history.Push(cp.Decisions[i])
	}
	log.Printf("[INFO] agent %s restored checkpoint from %s (cycle %d)",
		a.ID, cp.SavedAt.Format(time.RFC3339), cp.Cycle)
}

func (a *Agent) noteError(err error) {
	a.mu.Lock()
	a.errorCount++
	count := a.errorCount
	limit := a.cfg.MaxConsecutiveErrors
	a.mu.Unlock()

	log.Printf("[ERROR] agent %s cycle error (%d/%d): %v", a.ID, count, limit, err)
	a.events.Append(models.EventErrorNote, a.Cycle(), "cycle error", err.Error())

	if limit > 0 && count >= limit {
		a.Pause(fmt.Sprintf("%d consecutive errors", count))
	}
}

func (a *Agent) errorCountNow() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errorCount
}

func (a *Agent) applyPendingConfig() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pendingCfg != nil {
		// An explicit threshold update overrides whatever adaptation has
		// evolved so far.
		if a.pendingCfg.MinConfidence != a.cfg.MinConfidence {
			a.params.MinConfidence = a.pendingCfg.MinConfidence
		}
		a.cfg = a.pendingCfg
		a.pendingCfg = nil
		log.Printf("[INFO] agent %s config update applied", a.ID)
	}
}

// inSession reports whether the clock sits inside session hours.
func (a *Agent) inSession(now time.Time) bool {
	loc, err := time.LoadLocation(a.cfg.SessionTimezone)
	if err != nil {
		return true
	}
	now = now.In(loc)
	start, err1 := time.Parse("15:04", a.cfg.SessionStart)
	end, err2 := time.Parse("15:04", a.cfg.SessionEnd)
	if err1 != nil || err2 != nil {
		return true
	}
	sessionOpen := time.Date(now.Year(), now.Month(), now.Day(), start.Hour(), start.Minute(), 0, 0, loc)
	sessionClose := time.Date(now.Year(), now.Month(), now.Day(), end.Hour(), end.Minute(), 0, 0, loc)
	return !now.Before(sessionOpen) && now.Before(sessionClose)
}

func demoteToWait(d *models.Decision) *models.Decision {
	wait := *d
	wait.Action = models.ActionWait
	return &wait
}

// sleepCtx sleeps for d or until ctx cancels; false means canceled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
