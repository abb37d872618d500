package watcher

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"crop-to-ai/src/logutil"
	"crop-to-ai/src/target"
	"crop-to-ai/src/window"
)

// State is the position of a session in the focus-watch state machine.
type State int

const (
	StateWaitingForStart State = iota
	StatePolling
	StateConfirming
	StateTimedOut
	StateFired
	StateSuperseded
)

func (s State) String() string {
	switch s {
	case StateWaitingForStart:
		return "waiting"
	case StatePolling:
		return "polling"
	case StateConfirming:
		return "confirming"
	case StateTimedOut:
		return "timed-out"
	case StateFired:
		return "fired"
	case StateSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Outcome tells how a session ended.
type Outcome string

const (
	OutcomeMatched    Outcome = "matched"
	OutcomeTimeout    Outcome = "timeout"
	OutcomeSuperseded Outcome = "superseded"
)

// Paster performs the one side effect of a session.
type Paster interface {
	PasteNow()
}

// PasterFunc adapts a function to Paster.
type PasterFunc func()

func (f PasterFunc) PasteNow() { f() }

// Clock is the time source for the polling loop.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// RealClock uses time.Now and time.Sleep.
var RealClock Clock = realClock{}

// Config holds the loop timings. Zero ConfirmDelay or Timeout take the per-target
// values from the target table.
type Config struct {
	StartDelay   time.Duration
	PollInterval time.Duration
	ConfirmDelay time.Duration
	RecheckDelay time.Duration
	Timeout      time.Duration
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		StartDelay:   800 * time.Millisecond,
		PollInterval: 150 * time.Millisecond,
		RecheckDelay: 100 * time.Millisecond,
	}
}

// Session is one capture-to-paste attempt. Everything except the superseded flag
// is touched only by the goroutine running the session.
type Session struct {
	ID           string
	TargetURL    string
	StartTime    time.Time
	DetectedOnce bool
	State        State
	MatchedTitle string

	superseded atomic.Bool
}

// Supersede asks the session to stop without pasting.
func (s *Session) Supersede() { s.superseded.Store(true) }

// Superseded reports whether a newer session replaced this one.
func (s *Session) Superseded() bool { return s.superseded.Load() }

// Result summarizes a finished session.
type Result struct {
	SessionID    string
	TargetURL    string
	Outcome      Outcome
	MatchedTitle string
	Started      time.Time
	Finished     time.Time
}

// Watcher decides when it is safe to paste into the target window.
type Watcher struct {
	Inspector window.Inspector
	Paster    Paster
	Classify  func(title, targetURL string) bool
	Clock     Clock
	Config    Config
}

// New returns a watcher with default timings and the target table classifier.
func New(inspector window.Inspector, paster Paster) *Watcher {
	return &Watcher{
		Inspector: inspector,
		Paster:    paster,
		Classify:  target.Classify,
		Clock:     RealClock,
		Config:    DefaultConfig(),
	}
}

// ConfigFor resolves the timings for one target URL.
func (w *Watcher) ConfigFor(targetURL string) Config {
	c := w.Config
	def := DefaultConfig()
	if c.StartDelay <= 0 {
		c.StartDelay = def.StartDelay
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.RecheckDelay <= 0 {
		c.RecheckDelay = def.RecheckDelay
	}
	confirm, timeout := target.Tunables(targetURL)
	if c.ConfirmDelay <= 0 {
		c.ConfirmDelay = confirm
	}
	if c.Timeout <= 0 {
		c.Timeout = timeout
	}
	return c
}

// Run drives the session to completion and blocks until it pastes, times out or is
// superseded. The paster is invoked at most once.
func (w *Watcher) Run(s *Session) Result {
	clock := w.Clock
	if clock == nil {
		clock = RealClock
	}
	classify := w.Classify
	if classify == nil {
		classify = target.Classify
	}
	inspector := w.Inspector
	if inspector == nil {
		inspector = window.Unavailable
	}
	cfg := w.ConfigFor(s.TargetURL)

	if s.StartTime.IsZero() {
		s.StartTime = clock.Now()
	}
	run := &loop{session: s, clock: clock, cfg: cfg}

	s.State = StateWaitingForStart
	run.sleep(cfg.StartDelay)

	for {
		if s.Superseded() {
			return w.finish(run, StateSuperseded, OutcomeSuperseded)
		}
		if run.expired() {
			s.State = StateTimedOut
			return w.fire(run, OutcomeTimeout)
		}

		s.State = StatePolling
		if title, ok := inspector.Title(); ok && classify(title, s.TargetURL) {
			s.State = StateConfirming
			delay := cfg.ConfirmDelay
			if s.DetectedOnce {
				delay = cfg.RecheckDelay
			}
			s.DetectedOnce = true
			log.Debug().Str("session", s.ID).Str("title", logutil.SanitizeForLog(title)).Dur("settle", delay).Msg("watcher: target focused, confirming")
			run.sleep(delay)

			if s.Superseded() {
				return w.finish(run, StateSuperseded, OutcomeSuperseded)
			}
			if again, ok := inspector.Title(); ok && classify(again, s.TargetURL) {
				s.MatchedTitle = again
				return w.fire(run, OutcomeMatched)
			}
			s.State = StatePolling
			log.Debug().Str("session", s.ID).Msg("watcher: focus lost while confirming")
		}

		run.sleep(cfg.PollInterval)
	}
}

func (w *Watcher) fire(run *loop, outcome Outcome) Result {
	s := run.session
	if w.Paster != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Str("session", s.ID).Msgf("watcher: paste panicked: %v", r)
				}
			}()
			w.Paster.PasteNow()
		}()
	}
	return w.finish(run, StateFired, outcome)
}

func (w *Watcher) finish(run *loop, state State, outcome Outcome) Result {
	run.session.State = state
	res := w.result(run, outcome)
	log.Info().
		Str("session", res.SessionID).
		Str("outcome", string(outcome)).
		Dur("elapsed", res.Finished.Sub(res.Started)).
		Msg("watcher: session finished")
	return res
}

func (w *Watcher) result(run *loop, outcome Outcome) Result {
	s := run.session
	return Result{
		SessionID:    s.ID,
		TargetURL:    s.TargetURL,
		Outcome:      outcome,
		MatchedTitle: s.MatchedTitle,
		Started:      s.StartTime,
		Finished:     run.clock.Now(),
	}
}

type loop struct {
	session *Session
	clock   Clock
	cfg     Config
}

func (l *loop) elapsed() time.Duration { return l.clock.Now().Sub(l.session.StartTime) }

func (l *loop) expired() bool { return l.elapsed() >= l.cfg.Timeout }

// sleep never oversleeps the timeout, so a timeout paste lands within one poll
// interval of the deadline.
func (l *loop) sleep(d time.Duration) {
	if remaining := l.cfg.Timeout - l.elapsed(); d > remaining {
		d = remaining
	}
	if d > 0 {
		l.clock.Sleep(d)
	}
}
