// Package checkpoint serializes agent state into the document store and
// restores it on start. Checkpoints are advisory: a corrupt or missing one
// never blocks a fresh session.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zenvex/voltagent/internal/storage"
	"github.com/zenvex/voltagent/models"
)

func key(agentID string) string {
	return "checkpoint:" + agentID
}

// Save writes the checkpoint under the agent's key, stamping SavedAt.
func Save(ctx context.Context, store storage.Store, cp *models.Checkpoint) error {
	if cp == nil {
		return errors.New("nil checkpoint")
	}
	cp.SavedAt = time.Now()

	doc, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := store.Upsert(ctx, key(cp.AgentID), doc); err != nil {
		return fmt.Errorf("persist checkpoint: %w", err)
	}
	return nil
}

// Load reads the agent's checkpoint. A missing document returns
// storage.ErrNotFound so callers can treat it as a fresh start.
func Load(ctx context.Context, store storage.Store, agentID string) (*models.Checkpoint, error) {
	doc, err := store.Get(ctx, key(agentID))
	if err != nil {
		return nil, err
	}
	var cp models.Checkpoint
	if err := json.Unmarshal(doc, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &cp, nil
}
