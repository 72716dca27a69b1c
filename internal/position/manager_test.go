package position

import (
	"math"
	"testing"
	"time"

	"github.com/zenvex/voltagent/config"
	"github.com/zenvex/voltagent/internal/execution"
	"github.com/zenvex/voltagent/models"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.TrailActivatePct = 0
	return cfg
}

// midSession is a fixed clock well before the force-close cut-off so time
// exits only fire when a test asks for them.
func midSession(t *testing.T) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return time.Date(2026, 3, 2, 11, 0, 0, 0, loc)
}

func snap(price, em float64) *models.Snapshot {
	return &models.Snapshot{Timestamp: time.Now(), Symbol: "SPY", Price: price, ExpectedMove: em}
}

// openLongCall opens a single long call with a zero strike so the structure
// mark tracks the underlying price almost exactly.
func openLongCall(t *testing.T, m *Manager, price, target, stop float64) *models.Position {
	t.Helper()
	d := &models.Decision{
		Action:   models.ActionEnter,
		Strategy: models.StrategyLongCall,
		Params:   models.TradeParams{Target: target, Stop: stop},
	}
	res := &execution.ExecutionResult{
		OrderID: "test-order",
		Fills: []execution.LegFill{
			{Leg: models.Leg{Side: "LONG", Kind: "CALL", Strike: 0, Quantity: 1}, Filled: true, FillPrice: price},
		},
	}
	p, err := m.Open(d, snap(price, 0.01), res)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return p
}

func TestOpenTargetHitRecordsPositivePnL(t *testing.T) {
	tracker := models.NewPerformanceTracker()
	m := NewManager(testConfig(), tracker, nil)
	fixed := midSession(t)
	m.now = func() time.Time { return fixed }

	p := openLongCall(t, m, 100, 110, 95)
	if math.Abs(p.EntryCost-100) > 0.01 {
		t.Fatalf("EntryCost = %.4f, want ~100", p.EntryCost)
	}
	if p.Target != 110 || p.Stop != 95 {
		t.Fatalf("levels = (%.2f, %.2f), want (110, 95)", p.Target, p.Stop)
	}

	closed := m.Reconcile(snap(111, 0.01))
	if len(closed) != 1 {
		t.Fatalf("closed %d positions, want 1", len(closed))
	}
	got := closed[0]
	if got.CloseReason != models.CloseTarget {
		t.Errorf("CloseReason = %s, want TARGET", got.CloseReason)
	}
	if got.RealizedPnL <= 0 {
		t.Errorf("RealizedPnL = %.2f, want > 0", got.RealizedPnL)
	}
	if math.Abs(got.RealizedPnL-11) > 0.01 {
		t.Errorf("RealizedPnL = %.4f, want ~11", got.RealizedPnL)
	}
	if got.Status != models.PositionClosed {
		t.Errorf("Status = %s, want closed", got.Status)
	}
	if len(m.OpenPositions()) != 0 {
		t.Errorf("open set not empty after close")
	}
	if tracker.TotalTrades != 1 || tracker.Wins != 1 {
		t.Errorf("tracker = %d trades %d wins, want 1/1", tracker.TotalTrades, tracker.Wins)
	}
}

func TestReconcileClosedPositionIsNoOp(t *testing.T) {
	tracker := models.NewPerformanceTracker()
	m := NewManager(testConfig(), tracker, nil)
	fixed := midSession(t)
	m.now = func() time.Time { return fixed }

	openLongCall(t, m, 100, 110, 95)

	s := snap(111, 0.01)
	if n := len(m.Reconcile(s)); n != 1 {
		t.Fatalf("first Reconcile closed %d, want 1", n)
	}
	if n := len(m.Reconcile(s)); n != 0 {
		t.Fatalf("second Reconcile closed %d, want 0", n)
	}
	if tracker.TotalTrades != 1 {
		t.Errorf("tracker recorded %d trades, want exactly 1", tracker.TotalTrades)
	}
}

func TestStopHitOnCreditStructure(t *testing.T) {
	tracker := models.NewPerformanceTracker()
	m := NewManager(testConfig(), tracker, nil)
	fixed := midSession(t)
	m.now = func() time.Time { return fixed }

	// One short put at the money: mark 0.5*EM = 5 at entry. Template credit
	// levels put the stop at 1.1x entry value.
	d := &models.Decision{Action: models.ActionEnter, Strategy: models.StrategyBullPutSpread}
	res := &execution.ExecutionResult{
		OrderID: "test-order",
		Fills: []execution.LegFill{
			{Leg: models.Leg{Side: "SHORT", Kind: "PUT", Strike: 100, Quantity: 1}, Filled: true, FillPrice: 5},
		},
	}
	p, err := m.Open(d, snap(100, 10), res)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if p.Target >= p.EntryCost {
		t.Fatalf("credit target %.2f should sit below entry %.2f", p.Target, p.EntryCost)
	}

	// Underlying drops hard: the short put richens past the stop level.
	closed := m.Reconcile(snap(92, 10))
	if len(closed) != 1 {
		t.Fatalf("closed %d positions, want 1", len(closed))
	}
	if closed[0].CloseReason != models.CloseStop {
		t.Errorf("CloseReason = %s, want STOP", closed[0].CloseReason)
	}
	if closed[0].RealizedPnL >= 0 {
		t.Errorf("RealizedPnL = %.2f, want < 0", closed[0].RealizedPnL)
	}
	if tracker.Losses != 1 {
		t.Errorf("tracker.Losses = %d, want 1", tracker.Losses)
	}
}

func TestTimeExitAtForceClose(t *testing.T) {
	tracker := models.NewPerformanceTracker()
	m := NewManager(testConfig(), tracker, nil)
	fixed := midSession(t)
	m.now = func() time.Time { return fixed }

	openLongCall(t, m, 100, 110, 95)

	// Same price: neither level hit, position stays open.
	if n := len(m.Reconcile(snap(100, 0.01))); n != 0 {
		t.Fatalf("closed %d positions before cut-off, want 0", n)
	}

	loc, _ := time.LoadLocation("America/New_York")
	late := time.Date(2026, 3, 2, 15, 50, 0, 0, loc)
	m.now = func() time.Time { return late }

	closed := m.Reconcile(snap(100, 0.01))
	if len(closed) != 1 {
		t.Fatalf("closed %d positions at cut-off, want 1", len(closed))
	}
	if closed[0].CloseReason != models.CloseTime {
		t.Errorf("CloseReason = %s, want TIME", closed[0].CloseReason)
	}
}

func TestTrailingStopArmsAndRatchets(t *testing.T) {
	cfg := testConfig()
	cfg.TrailActivatePct = 50
	cfg.TrailDistancePct = 25
	tracker := models.NewPerformanceTracker()
	m := NewManager(cfg, tracker, nil)
	fixed := midSession(t)
	m.now = func() time.Time { return fixed }

	// Default directional levels: target 160, stop 60 off entry 100.
	p := openLongCall(t, m, 100, 0, 0)
	if math.Abs(p.Target-160) > 0.01 || math.Abs(p.Stop-60) > 0.01 {
		t.Fatalf("levels = (%.2f, %.2f), want (160, 60)", p.Target, p.Stop)
	}

	// Halfway to target: trail arms but the stop does not move yet.
	if n := len(m.Reconcile(snap(130, 0.01))); n != 0 {
		t.Fatalf("closed at arming mark, want still open")
	}
	if !p.TrailArmed {
		t.Fatal("trail not armed at activation threshold")
	}
	if math.Abs(p.Stop-60) > 0.01 {
		t.Fatalf("stop moved on arming: %.2f", p.Stop)
	}

	// New peak ratchets the stop up behind it.
	if n := len(m.Reconcile(snap(140, 0.01))); n != 0 {
		t.Fatalf("closed at new peak, want still open")
	}
	if math.Abs(p.Stop-130) > 0.01 {
		t.Fatalf("stop = %.2f after ratchet, want ~130", p.Stop)
	}

	// Pullback through the trailed stop locks in the gain.
	closed := m.Reconcile(snap(129, 0.01))
	if len(closed) != 1 {
		t.Fatalf("closed %d positions on pullback, want 1", len(closed))
	}
	if closed[0].CloseReason != models.CloseStop {
		t.Errorf("CloseReason = %s, want STOP", closed[0].CloseReason)
	}
	if closed[0].RealizedPnL <= 0 {
		t.Errorf("trailed close RealizedPnL = %.2f, want > 0", closed[0].RealizedPnL)
	}
}

func TestAdjustmentsCappedAndSpaced(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAdjustments = 2
	cfg.AdjustCooldownSec = 300
	tracker := models.NewPerformanceTracker()
	m := NewManager(cfg, tracker, nil)

	clock := midSession(t)
	m.now = func() time.Time { return clock }

	// Short put pinned at the money, with exit levels pushed out of reach so
	// only the adjustment path runs.
	d := &models.Decision{
		Action:   models.ActionEnter,
		Strategy: models.StrategyBullPutSpread,
		Params:   models.TradeParams{Target: 0.5, Stop: 50},
	}
	res := &execution.ExecutionResult{
		OrderID: "test-order",
		Fills: []execution.LegFill{
			{Leg: models.Leg{Side: "SHORT", Kind: "PUT", Strike: 100, Quantity: 1}, Filled: true, FillPrice: 5},
		},
	}
	p, err := m.Open(d, snap(100, 10), res)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	m.Reconcile(snap(100, 10))
	if p.Adjustments != 1 {
		t.Fatalf("Adjustments = %d after first threat, want 1", p.Adjustments)
	}
	if p.Legs[0].Strike != 90 {
		t.Fatalf("rolled strike = %.2f, want 90", p.Legs[0].Strike)
	}

	// Within the cooldown window nothing moves even if threatened again.
	clock = clock.Add(time.Minute)
	m.Reconcile(snap(90, 10))
	if p.Adjustments != 1 {
		t.Fatalf("Adjustments = %d inside cooldown, want 1", p.Adjustments)
	}

	// Past the cooldown the second roll goes through.
	clock = clock.Add(6 * time.Minute)
	m.Reconcile(snap(90, 10))
	if p.Adjustments != 2 {
		t.Fatalf("Adjustments = %d after cooldown, want 2", p.Adjustments)
	}
	if p.Legs[0].Strike != 80 {
		t.Fatalf("second roll strike = %.2f, want 80", p.Legs[0].Strike)
	}

	// The cap holds for the rest of the position's life.
	clock = clock.Add(10 * time.Minute)
	m.Reconcile(snap(80, 10))
	if p.Adjustments != 2 {
		t.Fatalf("Adjustments = %d past cap, want 2", p.Adjustments)
	}
}

func TestCloseMatchingByStrategy(t *testing.T) {
	tracker := models.NewPerformanceTracker()
	m := NewManager(testConfig(), tracker, nil)
	fixed := midSession(t)
	m.now = func() time.Time { return fixed }

	openLongCall(t, m, 100, 1000, 1)

	d := &models.Decision{Action: models.ActionEnter, Strategy: models.StrategyBullPutSpread}
	res := &execution.ExecutionResult{
		OrderID: "test-order",
		Fills: []execution.LegFill{
			{Leg: models.Leg{Side: "SHORT", Kind: "PUT", Strike: 90, Quantity: 1}, Filled: true, FillPrice: 2},
		},
	}
	if _, err := m.Open(d, snap(100, 10), res); err != nil {
		t.Fatalf("Open: %v", err)
	}

	closed := m.CloseMatching(snap(100, 10), models.StrategyLongCall)
	if len(closed) != 1 {
		t.Fatalf("closed %d positions, want 1", len(closed))
	}
	if closed[0].Strategy != models.StrategyLongCall {
		t.Errorf("closed strategy = %s, want LONG_CALL", closed[0].Strategy)
	}
	if closed[0].CloseReason != models.CloseExit {
		t.Errorf("CloseReason = %s, want EXIT", closed[0].CloseReason)
	}
	if len(m.OpenPositions()) != 1 {
		t.Fatalf("open set = %d, want 1 survivor", len(m.OpenPositions()))
	}

	// Empty strategy matches everything left.
	if n := len(m.CloseMatching(snap(100, 10), "")); n != 1 {
		t.Fatalf("wildcard close got %d, want 1", n)
	}
	if len(m.OpenPositions()) != 0 {
		t.Errorf("open set not empty after wildcard close")
	}
}

func TestLiquidateAll(t *testing.T) {
	tracker := models.NewPerformanceTracker()
	m := NewManager(testConfig(), tracker, nil)
	fixed := midSession(t)
	m.now = func() time.Time { return fixed }

	openLongCall(t, m, 100, 1000, 1)
	openLongCall(t, m, 100, 1000, 1)

	closed := m.LiquidateAll(snap(100, 0.01), models.CloseLiquidation)
	if len(closed) != 2 {
		t.Fatalf("liquidated %d positions, want 2", len(closed))
	}
	for _, p := range closed {
		if p.CloseReason != models.CloseLiquidation {
			t.Errorf("CloseReason = %s, want LIQUIDATION", p.CloseReason)
		}
	}
	if len(m.OpenPositions()) != 0 {
		t.Errorf("open set not empty after liquidation")
	}
	if tracker.TotalTrades != 2 {
		t.Errorf("tracker recorded %d trades, want 2", tracker.TotalTrades)
	}
}

func TestOpenPartialFill(t *testing.T) {
	m := NewManager(testConfig(), models.NewPerformanceTracker(), nil)
	fixed := midSession(t)
	m.now = func() time.Time { return fixed }

	d := &models.Decision{Action: models.ActionEnter, Strategy: models.StrategyBullPutSpread}
	res := &execution.ExecutionResult{
		OrderID: "test-order",
		Fills: []execution.LegFill{
			{Leg: models.Leg{Side: "SHORT", Kind: "PUT", Strike: 95, Quantity: 1}, Filled: true, FillPrice: 3},
			{Leg: models.Leg{Side: "LONG", Kind: "PUT", Strike: 90, Quantity: 1}, Filled: false, Reason: "no liquidity"},
		},
	}
	p, err := m.Open(d, snap(100, 10), res)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if p.Status != models.PositionPartial {
		t.Errorf("Status = %s, want partial", p.Status)
	}
	if !p.IsOpen() {
		t.Error("partial position should count as open")
	}
}

func TestOpenNothingFilled(t *testing.T) {
	m := NewManager(testConfig(), models.NewPerformanceTracker(), nil)

	d := &models.Decision{Action: models.ActionEnter, Strategy: models.StrategyLongCall}
	res := &execution.ExecutionResult{
		OrderID: "test-order",
		Fills: []execution.LegFill{
			{Leg: models.Leg{Side: "LONG", Kind: "CALL", Strike: 100, Quantity: 1}, Filled: false},
		},
	}
	if _, err := m.Open(d, snap(100, 10), res); err == nil {
		t.Fatal("Open with zero fills should error")
	}
	if len(m.OpenPositions()) != 0 {
		t.Error("failed open must not join the open set")
	}
}

func TestRestoreFiltersClosed(t *testing.T) {
	m := NewManager(testConfig(), models.NewPerformanceTracker(), nil)
	m.Restore([]*models.Position{
		{ID: "a", Status: models.PositionActive},
		{ID: "b", Status: models.PositionClosed},
		nil,
		{ID: "c", Status: models.PositionPartial},
	})
	if got := len(m.OpenPositions()); got != 2 {
		t.Fatalf("restored %d open positions, want 2", got)
	}
}
