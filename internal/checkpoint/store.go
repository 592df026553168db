package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"CapoWatch/internal/model"
)

// Store persists the polling cursor as a small JSON file. Reads never fail:
// a missing or unparseable file yields defaults, because losing the cursor
// only causes reprocessing, not incorrect processing.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore creates a Store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Load reads the checkpoint, defaulting LastCheck to one hour ago and
// LastFloorAlert to zero when no usable state exists.
func (s *Store) Load() model.Checkpoint {
	cp := model.Checkpoint{LastCheck: s.now().Add(-time.Hour)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.path).Msg("read checkpoint, using defaults")
		}
		return cp
	}
	var stored model.Checkpoint
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("parse checkpoint, using defaults")
		return cp
	}
	if !stored.LastCheck.IsZero() {
		cp.LastCheck = stored.LastCheck
	}
	cp.LastFloorAlert = stored.LastFloorAlert
	return cp
}

// Save merges the update into stored state and persists it atomically.
// Write failures are logged and swallowed; the next run re-derives from the
// old cursor.
func (s *Store) Save(update model.CheckpointUpdate) {
	cp := s.Load()
	if update.LastCheck != nil {
		cp.LastCheck = *update.LastCheck
	}
	if update.LastFloorAlert != nil {
		cp.LastFloorAlert = *update.LastFloorAlert
	}
	if err := s.write(cp); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("write checkpoint")
	}
}

func (s *Store) write(cp model.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}
	// Temp file + rename so a crash mid-write never leaves a truncated file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}
