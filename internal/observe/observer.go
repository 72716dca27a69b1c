// Package observe produces the per-cycle market snapshot. The price leg is
// required; the volatility leg is best-effort and a cycle proceeds with
// zeroed vol fields when it is late or down.
package observe

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/zenvex/voltagent/models"
)

// Observer produces one immutable snapshot per call.
type Observer interface {
	Observe(ctx context.Context, symbol string) (*models.Snapshot, error)
}

// QuoteSource fetches the price side of the snapshot.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
}

// VolSource fetches the volatility side of the snapshot.
type VolSource interface {
	Vol(ctx context.Context, symbol string) (*VolReading, error)
}

// Quote is a raw price reading.
type Quote struct {
	Price     float64
	Open      float64
	High      float64
	Low       float64
	PrevClose float64
	Volume    int64
}

// VolReading is a raw volatility reading.
type VolReading struct {
	IV     float64
	IVRank float64
	ATR    float64
}

// Composite joins the quote and vol feeds into a snapshot. The two fetches
// run concurrently, each under its own timeout.
type Composite struct {
	quotes      QuoteSource
	vols        VolSource
	taskTimeout time.Duration
}

// NewComposite builds a composite observer. vols may be nil.
func NewComposite(quotes QuoteSource, vols VolSource, taskTimeout time.Duration) *Composite {
	if taskTimeout <= 0 {
		taskTimeout = 10 * time.Second
	}
	return &Composite{quotes: quotes, vols: vols, taskTimeout: taskTimeout}
}

// Observe fetches both feeds and derives the intraday levels. A quote
// failure fails the observation; a vol failure degrades it.
func (c *Composite) Observe(ctx context.Context, symbol string) (*models.Snapshot, error) {
	type quoteResult struct {
		q   *Quote
		err error
	}
	type volResult struct {
		v   *VolReading
		err error
	}

	quoteCh := make(chan quoteResult, 1)
	volCh := make(chan volResult, 1)

	go func() {
		qctx, cancel := context.WithTimeout(ctx, c.taskTimeout)
		defer cancel()
		q, err := c.quotes.Quote(qctx, symbol)
		quoteCh <- quoteResult{q, err}
	}()

	go func() {
		if c.vols == nil {
			volCh <- volResult{nil, nil}
			return
		}
		vctx, cancel := context.WithTimeout(ctx, c.taskTimeout)
		defer cancel()
		v, err := c.vols.Vol(vctx, symbol)
		volCh <- volResult{v, err}
	}()

	qr := <-quoteCh
	vr := <-volCh

	if qr.err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, qr.err)
	}

	var vol VolReading
	if vr.err != nil {
		log.Printf("[WARN] vol feed degraded for %s: %v", symbol, vr.err)
	} else if vr.v != nil {
		vol = *vr.v
	}

	return buildSnapshot(symbol, qr.q, &vol), nil
}

// buildSnapshot derives the support/resistance band and expected move from
// the raw readings.
func buildSnapshot(symbol string, q *Quote, v *VolReading) *models.Snapshot {
	atr := v.ATR
	if atr == 0 {
		atr = q.High - q.Low
	}

	// One-day expected move from annualized IV; fall back to the ATR when
	// the vol leg is degraded.
	em := q.Price * v.IV / 100 * math.Sqrt(1.0/252.0)
	if em == 0 {
		em = atr
	}

	return &models.Snapshot{
		Timestamp:    time.Now(),
		Symbol:       symbol,
		Price:        q.Price,
		Open:         q.Open,
		High:         q.High,
		Low:          q.Low,
		PrevClose:    q.PrevClose,
		VWAP:         (q.High + q.Low + q.Price) / 3,
		Volume:       q.Volume,
		IV:           v.IV,
		IVRank:       v.IVRank,
		ATR:          atr,
		ExpectedMove: em,
		Support:      q.Low - atr*0.25,
		Resistance:   q.High + atr*0.25,
	}
}
