package models

import "time"

// Checkpoint is the durable snapshot of agent state written every few cycles.
// A stale checkpoint is acceptable; a missing one just means a fresh session.
type Checkpoint struct {
	AgentID     string              `json:"agent_id"`
	State       string              `json:"state"`
	Cycle       int64               `json:"cycle"`
	ErrorCount  int                 `json:"error_count"`
	SavedAt     time.Time           `json:"saved_at"`
	Performance *PerformanceTracker `json:"performance"`
	Params      *EvolvedParameters  `json:"params"`
	Positions   []*Position         `json:"positions"`
	Decisions   []*Decision         `json:"decisions"`
}
