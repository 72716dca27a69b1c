package observe

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubQuotes struct {
	q   *Quote
	err error
}

func (s *stubQuotes) Quote(ctx context.Context, symbol string) (*Quote, error) {
	return s.q, s.err
}

type stubVols struct {
	v     *VolReading
	err   error
	delay time.Duration
}

func (s *stubVols) Vol(ctx context.Context, symbol string) (*VolReading, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.v, s.err
}

func TestCompositeJoinsBothFeeds(t *testing.T) {
	quotes := &stubQuotes{q: &Quote{Price: 500, Open: 498, High: 503, Low: 496, PrevClose: 497, Volume: 1000}}
	vols := &stubVols{v: &VolReading{IV: 18, IVRank: 40, ATR: 4.2}}

	snap, err := NewComposite(quotes, vols, time.Second).Observe(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if snap.Price != 500 || snap.IV != 18 || snap.ATR != 4.2 {
		t.Fatalf("snapshot fields wrong: %+v", snap)
	}
	if snap.Support >= snap.Resistance {
		t.Fatalf("support %v not below resistance %v", snap.Support, snap.Resistance)
	}
}

func TestCompositeDegradesOnVolFailure(t *testing.T) {
	quotes := &stubQuotes{q: &Quote{Price: 500, High: 503, Low: 496, PrevClose: 497}}
	vols := &stubVols{err: errors.New("feed down")}

	snap, err := NewComposite(quotes, vols, time.Second).Observe(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("vol failure should degrade, not abort: %v", err)
	}
	if snap.IV != 0 {
		t.Fatalf("expected zero IV on degraded cycle, got %v", snap.IV)
	}
	if snap.ATR != 503-496 {
		t.Fatalf("expected ATR fallback to day range, got %v", snap.ATR)
	}
}

func TestCompositeVolTimeoutDegrades(t *testing.T) {
	quotes := &stubQuotes{q: &Quote{Price: 500, High: 503, Low: 496}}
	vols := &stubVols{v: &VolReading{IV: 20}, delay: 500 * time.Millisecond}

	snap, err := NewComposite(quotes, vols, 20*time.Millisecond).Observe(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("slow vol feed should degrade, not abort: %v", err)
	}
	if snap.IV != 0 {
		t.Fatalf("expected zero IV when the vol task times out, got %v", snap.IV)
	}
}

func TestCompositeFailsOnQuoteError(t *testing.T) {
	quotes := &stubQuotes{err: errors.New("quote down")}
	if _, err := NewComposite(quotes, nil, time.Second).Observe(context.Background(), "SPY"); err == nil {
		t.Fatal("expected error when the quote leg fails")
	}
}
