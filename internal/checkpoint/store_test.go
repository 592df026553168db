package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CapoWatch/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "checkpoint.json"))
}

func TestLoad_MissingFile(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	cp := s.Load()
	assert.Equal(t, now.Add(-time.Hour), cp.LastCheck)
	assert.True(t, cp.LastFloorAlert.IsZero())
}

func TestLoad_CorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.path, []byte("{not json"), 0644))

	cp := s.Load()
	assert.False(t, cp.LastCheck.IsZero())
	assert.True(t, cp.LastFloorAlert.IsZero())
}

func TestSave_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	check := time.Date(2025, 6, 1, 12, 0, 10, 0, time.UTC)
	s.Save(model.CheckpointUpdate{LastCheck: &check})

	cp := s.Load()
	assert.True(t, cp.LastCheck.Equal(check))
}

func TestSave_MergesPartialUpdate(t *testing.T) {
	s := newTestStore(t)
	check := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	alert := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.Save(model.CheckpointUpdate{LastCheck: &check, LastFloorAlert: &alert})

	// Updating only LastCheck must preserve LastFloorAlert.
	later := check.Add(30 * time.Minute)
	s.Save(model.CheckpointUpdate{LastCheck: &later})

	cp := s.Load()
	assert.True(t, cp.LastCheck.Equal(later))
	assert.True(t, cp.LastFloorAlert.Equal(alert))
}

func TestSave_UnwritablePathIsSwallowed(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing") + string(os.PathSeparator) + "\x00bad")
	check := time.Now()
	// Must not panic; failure is logged and ignored.
	s.Save(model.CheckpointUpdate{LastCheck: &check})
}

func TestWrite_LeavesNoTempFile(t *testing.T) {
	s := newTestStore(t)
	check := time.Now()
	s.Save(model.CheckpointUpdate{LastCheck: &check})

	_, err := os.Stat(s.path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
