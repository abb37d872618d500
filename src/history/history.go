package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"crop-to-ai/src/watcher"
)

// Entry is one finished paste session.
type Entry struct {
	ID           uint      `gorm:"primaryKey" yaml:"-"`
	SessionID    string    `gorm:"size:36;index" yaml:"session"`
	TargetURL    string    `yaml:"target"`
	Outcome      string    `gorm:"size:16;index" yaml:"outcome"`
	MatchedTitle string    `yaml:"title,omitempty"`
	StartedAt    time.Time `yaml:"started"`
	FinishedAt   time.Time `yaml:"finished"`
	DurationMs   int64     `yaml:"durationMs"`
}

func (Entry) TableName() string { return "sessions" }

// Store is the SQLite session journal.
type Store struct {
	db *gorm.DB
}

var migrate = func(db *gorm.DB) error { return db.AutoMigrate(&Entry{}) }

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("history: failed to close database")
	}
}

// Open creates or opens the journal at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: NewGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := migrate(db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	log.Debug().Str("path", path).Msg("history: opened")
	return &Store{db: db}, nil
}

// Record stores a finished session. It is used as the supervisor's OnFinish
// hook, so failures are logged rather than returned.
func (s *Store) Record(r watcher.Result) {
	if err := s.Add(r); err != nil {
		log.Warn().Err(err).Str("session", r.SessionID).Msg("history: failed to record session")
	}
}

func (s *Store) Add(r watcher.Result) error {
	e := Entry{
		SessionID:    r.SessionID,
		TargetURL:    r.TargetURL,
		Outcome:      string(r.Outcome),
		MatchedTitle: r.MatchedTitle,
		StartedAt:    r.Started,
		FinishedAt:   r.Finished,
		DurationMs:   r.Finished.Sub(r.Started).Milliseconds(),
	}
	return s.db.Create(&e).Error
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (s *Store) List(limit int) ([]Entry, error) {
	var entries []Entry
	q := s.db.Order("finished_at desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// YAML renders entries for the history command.
func YAML(entries []Entry) ([]byte, error) {
	if len(entries) == 0 {
		return []byte("[]\n"), nil
	}
	return yaml.Marshal(entries)
}
