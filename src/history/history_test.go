package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"crop-to-ai/src/watcher"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func result(id string, outcome watcher.Outcome, finished time.Time) watcher.Result {
	return watcher.Result{
		SessionID:    id,
		TargetURL:    "https://claude.ai/new",
		Outcome:      outcome,
		MatchedTitle: "Claude - Google Chrome",
		Started:      finished.Add(-1300 * time.Millisecond),
		Finished:     finished,
	}
}

func TestRecordAndList(t *testing.T) {
	s := openTemp(t)
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	s.Record(result("a", watcher.OutcomeMatched, base))
	s.Record(result("b", watcher.OutcomeTimeout, base.Add(time.Minute)))
	s.Record(result("c", watcher.OutcomeSuperseded, base.Add(2*time.Minute)))

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].SessionID, "newest first")
	assert.Equal(t, "superseded", all[0].Outcome)
	assert.Equal(t, int64(1300), all[2].DurationMs)

	limited, err := s.List(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "b", limited[1].SessionID)
}

func TestYAML(t *testing.T) {
	s := openTemp(t)
	s.Record(result("a", watcher.OutcomeMatched, time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)))

	entries, err := s.List(10)
	require.NoError(t, err)
	out, err := YAML(entries)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "a", decoded[0]["session"])
	assert.Equal(t, "matched", decoded[0]["outcome"])
	assert.NotContains(t, decoded[0], "id")

	empty, err := YAML(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(empty))
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Add(result("a", watcher.OutcomeMatched, time.Now())))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.List(0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpenClosesDatabaseWhenMigrationFails(t *testing.T) {
	var opened *gorm.DB
	orig := migrate
	migrate = func(db *gorm.DB) error {
		opened = db
		return errors.New("disk full")
	}
	t.Cleanup(func() { migrate = orig })

	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "disk full")

	require.NotNil(t, opened)
	sqlDB, err := opened.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "database handle must be closed after a failed migration")
}
