package models

import "time"

// Snapshot is one immutable read of the observed market for a single cycle.
// Every component downstream of the observer consumes it read-only.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`

	Price     float64 `json:"price"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	PrevClose float64 `json:"prev_close"`
	VWAP      float64 `json:"vwap"`
	Volume    int64   `json:"volume"`

	// Volatility fields. IV and IVRank are optional: a degraded cycle may
	// carry zeros here without aborting (the vol feed is best-effort).
	IV           float64 `json:"iv"`
	IVRank       float64 `json:"iv_rank"`
	ATR          float64 `json:"atr"`
	ExpectedMove float64 `json:"expected_move"`

	// Derived intraday levels.
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
}

// Range returns the distance between resistance and support.
func (s *Snapshot) Range() float64 {
	return s.Resistance - s.Support
}

// RangePosition returns where price sits inside the support/resistance band,
// 0 at support and 1 at resistance. Returns 0.5 when the band is degenerate.
func (s *Snapshot) RangePosition() float64 {
	r := s.Range()
	if r <= 0 {
		return 0.5
	}
	p := (s.Price - s.Support) / r
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// ChangePct is the move from the previous close, in percent.
func (s *Snapshot) ChangePct() float64 {
	if s.PrevClose == 0 {
		return 0
	}
	return (s.Price - s.PrevClose) / s.PrevClose * 100
}
