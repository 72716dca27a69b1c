package reasoning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zenvex/voltagent/models"
)

type fakeModel struct {
	calls int
	fail  int // fail the first n calls
	text  string
}

func (f *fakeModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	if f.calls <= f.fail {
		return nil, errors.New("rate limited")
	}
	return schema.AssistantMessage(f.text, nil), nil
}

func fastClient(m ChatModel, budget int) *Client {
	c := NewClient(m, 2*time.Minute, time.Second, budget)
	c.backoffBase = time.Millisecond
	c.backoffCap = 5 * time.Millisecond
	return c
}

func testRequest() *Request {
	return &Request{
		Snapshot:      &models.Snapshot{Symbol: "SPY", Price: 500, Timestamp: time.Unix(1700000000, 0)},
		MinConfidence: 65,
	}
}

func TestAskCacheShortCircuits(t *testing.T) {
	m := &fakeModel{text: "decision text"}
	c := fastClient(m, 0)

	ctx := context.Background()
	req := testRequest()

	first, err := c.Ask(ctx, req)
	if err != nil {
		t.Fatalf("first Ask: %v", err)
	}
	second, err := c.Ask(ctx, req)
	if err != nil {
		t.Fatalf("second Ask: %v", err)
	}
	if first != second {
		t.Fatalf("cache returned different text: %q vs %q", first, second)
	}
	if m.calls != 1 {
		t.Fatalf("expected exactly one network call, got %d", m.calls)
	}
}

func TestAskBudgetFailsFast(t *testing.T) {
	m := &fakeModel{text: "ok"}
	c := fastClient(m, 1)

	ctx := context.Background()
	if _, err := c.Ask(ctx, testRequest()); err != nil {
		t.Fatalf("first Ask: %v", err)
	}

	// Different request so the cache cannot answer.
	other := testRequest()
	other.MinConfidence = 70
	if _, err := c.Ask(ctx, other); !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("expected ErrBudgetExhausted, got %v", err)
	}
	if m.calls != 1 {
		t.Fatalf("budget breach must not touch the network, calls=%d", m.calls)
	}

	c.ResetBudget()
	if _, err := c.Ask(ctx, other); err != nil {
		t.Fatalf("Ask after ResetBudget: %v", err)
	}
}

func TestAskRetriesTransientFailures(t *testing.T) {
	m := &fakeModel{text: "recovered", fail: 2}
	c := fastClient(m, 0)

	text, err := c.Ask(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Ask should survive transient failures: %v", err)
	}
	if text != "recovered" {
		t.Fatalf("unexpected text %q", text)
	}
	if m.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", m.calls)
	}
}

func TestAskSurfacesHardErrorAfterRetries(t *testing.T) {
	m := &fakeModel{text: "never", fail: 100}
	c := fastClient(m, 0)

	if _, err := c.Ask(context.Background(), testRequest()); err == nil {
		t.Fatal("expected hard error after exhausted retries")
	}
	if m.calls != c.maxRetries+1 {
		t.Fatalf("expected %d attempts, got %d", c.maxRetries+1, m.calls)
	}
}

func TestAskBackoffIsCancellable(t *testing.T) {
	m := &fakeModel{fail: 100}
	c := fastClient(m, 0)
	c.backoffBase = 10 * time.Second
	c.backoffCap = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Ask(ctx, testRequest())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Ask did not observe cancellation during back-off")
	}
}

func TestFingerprintStable(t *testing.T) {
	a := testRequest()
	b := testRequest()
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("identical requests must share a fingerprint")
	}
	b.MinConfidence = 80
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("different requests must not collide")
	}
}

func TestCacheEviction(t *testing.T) {
	c := newResponseCache(10 * time.Millisecond)
	c.set("a", "1")
	if _, ok := c.get("a"); !ok {
		t.Fatal("fresh entry should hit")
	}
	time.Sleep(60 * time.Millisecond) // past 5x TTL
	c.set("b", "2")
	if c.len() != 1 {
		t.Fatalf("stale entry not evicted, len=%d", c.len())
	}
	if _, ok := c.get("a"); ok {
		t.Fatal("expired entry should miss")
	}
}
