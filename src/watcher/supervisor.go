package watcher

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Supervisor spawns detached watcher sessions and keeps track of the live ones.
type Supervisor struct {
	watcher *Watcher
	// SupersedeStale makes a new session stop every older one before it pastes.
	SupersedeStale bool
	// OnFinish, when set, receives every finished session's result.
	OnFinish func(Result)

	mu     sync.RWMutex
	active map[string]*Session
	wg     sync.WaitGroup
	newID  func() string
}

// NewSupervisor returns a supervisor running sessions on w.
func NewSupervisor(w *Watcher, supersedeStale bool) *Supervisor {
	return &Supervisor{
		watcher:        w,
		SupersedeStale: supersedeStale,
		active:         make(map[string]*Session),
		newID:          uuid.NewString,
	}
}

// Spawn starts a watcher for targetURL without blocking the caller.
func (s *Supervisor) Spawn(targetURL string) *Session {
	sess := &Session{ID: s.newID(), TargetURL: targetURL}

	s.mu.Lock()
	if s.SupersedeStale {
		for id, old := range s.active {
			old.Supersede()
			log.Info().Str("session", id).Str("by", sess.ID).Msg("watcher: session superseded")
		}
	}
	s.active[sess.ID] = sess
	s.mu.Unlock()

	log.Info().Str("session", sess.ID).Str("target", targetURL).Msg("watcher: session started")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.remove(sess.ID)
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("session", sess.ID).Msgf("PANIC in watcher goroutine: %v", r)
			}
		}()

		res := s.watcher.Run(sess)
		if s.OnFinish != nil {
			s.OnFinish(res)
		}
	}()
	return sess
}

func (s *Supervisor) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

// Active returns the number of sessions still running.
func (s *Supervisor) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active)
}

// Wait blocks until every spawned session has finished.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
