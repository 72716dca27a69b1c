package models

// StrategyStats is the per-strategy performance breakdown.
type StrategyStats struct {
	Trades int     `json:"trades"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	PnL    float64 `json:"pnl"`
}

// WinRate returns wins/trades, or 0 for an empty record.
func (s *StrategyStats) WinRate() float64 {
	if s.Trades == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Trades)
}

// PerformanceTracker holds session-scoped realized results. It is owned by a
// single control-loop goroutine; callers outside the loop read copies only.
type PerformanceTracker struct {
	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	TotalPnL    float64 `json:"total_pnl"`
	DailyPnL    float64 `json:"daily_pnl"`
	PeakPnL     float64 `json:"peak_pnl"`
	Drawdown    float64 `json:"drawdown"`

	// Streak is signed: +n after n consecutive wins, -n after n losses.
	Streak int `json:"streak"`

	ByStrategy map[Strategy]*StrategyStats `json:"by_strategy"`
}

// NewPerformanceTracker returns a zeroed tracker for a fresh session.
func NewPerformanceTracker() *PerformanceTracker {
	return &PerformanceTracker{ByStrategy: make(map[Strategy]*StrategyStats)}
}

// Record registers exactly one closed position. The lifecycle manager is the
// only caller and guarantees one call per close.
func (t *PerformanceTracker) Record(pnl float64, strategy Strategy) {
	t.TotalTrades++
	t.TotalPnL += pnl
	t.DailyPnL += pnl

	if pnl >= 0 {
		t.Wins++
		if t.Streak >= 0 {
			t.Streak++
		} else {
			t.Streak = 1
		}
	} else {
		t.Losses++
		if t.Streak <= 0 {
			t.Streak--
		} else {
			t.Streak = -1
		}
	}

	if t.TotalPnL > t.PeakPnL {
		t.PeakPnL = t.TotalPnL
	}
	t.Drawdown = t.PeakPnL - t.TotalPnL

	if t.ByStrategy == nil {
		t.ByStrategy = make(map[Strategy]*StrategyStats)
	}
	st, ok := t.ByStrategy[strategy]
	if !ok {
		st = &StrategyStats{}
		t.ByStrategy[strategy] = st
	}
	st.Trades++
	st.PnL += pnl
	if pnl >= 0 {
		st.Wins++
	} else {
		st.Losses++
	}
}

// ResetDaily clears the daily counter at the session roll-over.
func (t *PerformanceTracker) ResetDaily() {
	t.DailyPnL = 0
}

// WinRate returns the overall win rate.
func (t *PerformanceTracker) WinRate() float64 {
	if t.TotalTrades == 0 {
		return 0
	}
	return float64(t.Wins) / float64(t.TotalTrades)
}

// BestStrategy returns the strategy with the highest win rate among those
// with at least minTrades closed trades. Returns NO_TRADE when none qualify.
func (t *PerformanceTracker) BestStrategy(minTrades int) Strategy {
	best := StrategyNoTrade
	bestRate := -1.0
	for s, st := range t.ByStrategy {
		if st.Trades < minTrades {
			continue
		}
		if r := st.WinRate(); r > bestRate {
			best, bestRate = s, r
		}
	}
	return best
}
