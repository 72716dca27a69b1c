package agent

import (
	"sync"
	"time"

	"github.com/zenvex/voltagent/models"
)

const feedCapacity = 500

// Feed is the bounded, append-only event log surfaced by the status views.
// Safe for concurrent use: the loop appends, readers take copies.
type Feed struct {
	mu    sync.RWMutex
	items []models.AgentEvent
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Append records an event, dropping the oldest past capacity.
func (f *Feed) Append(typ models.EventType, cycle int64, title, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, models.AgentEvent{
		Time:   time.Now(),
		Type:   typ,
		Title:  title,
		Detail: detail,
		Cycle:  cycle,
	})
	if len(f.items) > feedCapacity {
		f.items = f.items[len(f.items)-feedCapacity:]
	}
}

// Recent returns up to n of the latest events, newest first.
func (f *Feed) Recent(n int) []models.AgentEvent {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n > len(f.items) {
		n = len(f.items)
	}
	out := make([]models.AgentEvent, n)
	for i := 0; i < n; i++ {
		out[i] = f.items[len(f.items)-1-i]
	}
	return out
}

// Len returns the retained event count.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}
