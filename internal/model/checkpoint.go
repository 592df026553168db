package model

import "time"

// Checkpoint is the persisted polling cursor shared across runs.
// LastCheck marks the newest processed event time; LastFloorAlert marks the
// most recent quiet-period floor post.
type Checkpoint struct {
	LastCheck      time.Time `json:"lastCheck"`
	LastFloorAlert time.Time `json:"lastFloorAlert,omitempty"`
}

// CheckpointUpdate carries a partial checkpoint write. Nil fields keep the
// stored value.
type CheckpointUpdate struct {
	LastCheck      *time.Time
	LastFloorAlert *time.Time
}
