package agent

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zenvex/voltagent/config"
)

// Registry tracks live agents and runs the shared schedules: a heartbeat
// log line and the daily counter reset at session-timezone midnight.
type Registry struct {
	mu     sync.Mutex
	agents map[string]*Agent
	cron   *cron.Cron
}

// NewRegistry builds a registry with its schedules armed. Call Close to
// stop them.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	loc, err := time.LoadLocation(cfg.SessionTimezone)
	if err != nil {
		return nil, fmt.Errorf("session timezone: %w", err)
	}

	r := &Registry{
		agents: make(map[string]*Agent),
		cron:   cron.New(cron.WithLocation(loc)),
	}

	if cfg.HeartbeatSec > 0 {
		spec := fmt.Sprintf("@every %ds", cfg.HeartbeatSec)
		if _, err := r.cron.AddFunc(spec, r.heartbeat); err != nil {
			return nil, fmt.Errorf("heartbeat schedule: %w", err)
		}
	}
	if _, err := r.cron.AddFunc("0 0 * * *", r.resetDaily); err != nil {
		return nil, fmt.Errorf("daily reset schedule: %w", err)
	}

	r.cron.Start()
	return r, nil
}

// Add registers an agent under its ID.
func (r *Registry) Add(a *Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.ID] = a
}

// GetOrCreate returns the agent under id, building and registering one via
// build when absent.
func (r *Registry) GetOrCreate(id string, build func() *Agent) *Agent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[id]; ok {
		return a
	}
	a := build()
	a.ID = id
	r.agents[id] = a
	return a
}

// Get returns the agent with the given ID, or nil.
func (r *Registry) Get(id string) *Agent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.agents[id]
}

// Remove stops the agent and drops it from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	a, ok := r.agents[id]
	delete(r.agents, id)
	r.mu.Unlock()
	if ok {
		a.Stop()
	}
}

// List returns a status copy for every registered agent.
func (r *Registry) List() []Status {
	r.mu.Lock()
	agents := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		agents = append(agents, a)
	}
	r.mu.Unlock()

	out := make([]Status, 0, len(agents))
	for _, a := range agents {
		out = append(out, a.GetStatus())
	}
	return out
}

// Close stops the schedules and every registered agent.
func (r *Registry) Close() {
	ctx := r.cron.Stop()
	<-ctx.Done()

	r.mu.Lock()
	agents := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		agents = append(agents, a)
	}
	r.agents = make(map[string]*Agent)
	r.mu.Unlock()

	for _, a := range agents {
		a.Stop()
	}
}

func (r *Registry) heartbeat() {
	for _, st := range r.List() {
		log.Printf("[INFO] heartbeat agent=%s state=%s cycle=%d daily_pnl=%.2f open=%d",
			st.ID, st.State, st.Cycle, st.DailyPnL, len(st.OpenPositions))
	}
}

func (r *Registry) resetDaily() {
	r.mu.Lock()
	agents := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		agents = append(agents, a)
	}
	r.mu.Unlock()

	for _, a := range agents {
		a.ResetDaily()
	}
}
