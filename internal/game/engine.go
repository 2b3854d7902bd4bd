// internal/game/engine.go
//
// Session state manager for a single player's game.
// Responsibilities:
//   - Start a session from a Setup (casual or competitive rules).
//   - Accept guesses: count the attempt, spend a life, resolve the name,
//     evaluate it against the fixed target and prepend it to history.
//   - Run the competitive countdown and end the session at zero.
//   - Track state transitions: not_started → in_progress → ended.
//
// Notes:
//   - All mutation happens under mu; the lookup itself runs unlocked so the
//     countdown keeps ticking while a guess is being resolved.
//   - Close cancels the session context, which stops the countdown, aborts an
//     in-flight lookup and cancels pending artwork prefetches.
//   - Events are emitted after mu is released but under emitMu, which is
//     taken before mu is dropped, so subscribers see them in state order.
//     Notify must not call back into the session.
//   - Close emits a final "closed" event whatever removed the session.
package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pokeguess/internal/pokemon"
)

const (
	DefaultLives   = 3
	DefaultSeconds = 300
)

var (
	ErrEmptyGuess     = errors.New("empty guess")
	ErrNotInProgress  = errors.New("game is not in progress")
	ErrAlreadyStarted = errors.New("game already started")
	ErrGuessPending   = errors.New("a guess is already being resolved")
	ErrSessionClosed  = errors.New("session closed")
)

// Options tune a session. Zero values fall back to defaults.
type Options struct {
	Lives    int             // competitive starting lives
	Seconds  int             // competitive countdown
	Clock    clockwork.Clock // nil → real clock
	Prefetch Prefetcher      // nil → no prefetch
	Notify   func(Event)     // nil → no events
}

// Session owns one player's game.
type Session struct {
	ID    string
	Owner string

	target pokemon.Record
	lookup Lookup
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc

	emitMu sync.Mutex

	mu         sync.Mutex
	status     Status
	setup      Setup
	attempts   int
	lives      int
	timeLeft   int
	history    []Entry
	outcome    Outcome
	pending    bool
	closed     bool
	startedAt  time.Time
	endedAt    time.Time
	lastActive time.Time
}

// NewSession builds a session in the not_started state.
func NewSession(id, owner string, target pokemon.Record, lookup Lookup, opts Options) *Session {
	if opts.Lives <= 0 {
		opts.Lives = DefaultLives
	}
	if opts.Seconds <= 0 {
		opts.Seconds = DefaultSeconds
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:         id,
		Owner:      owner,
		target:     target.Clone(),
		lookup:     lookup,
		opts:       opts,
		ctx:        ctx,
		cancel:     cancel,
		status:     StatusNotStarted,
		lastActive: opts.Clock.Now(),
	}
}

// Start moves the session to in_progress and, in competitive mode, starts
// the countdown.
func (s *Session) Start(setup Setup) error {
	if err := setup.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return ErrSessionClosed
	case s.status != StatusNotStarted:
		return ErrAlreadyStarted
	}

	s.setup = Setup{
		Mode:        setup.Mode,
		Difficulty:  setup.Difficulty,
		Generations: append([]string(nil), setup.Generations...),
	}
	s.status = StatusInProgress
	s.attempts = 0
	s.history = nil
	s.startedAt = s.opts.Clock.Now()
	s.lastActive = s.startedAt

	if setup.Mode == ModeCompetitive {
		s.lives = s.opts.Lives
		s.timeLeft = s.opts.Seconds
		go s.runClock()
	}
	return nil
}

// GuessOutcome reports what a submission did. Resolved is false when the
// name could not be looked up; the attempt still counts.
type GuessOutcome struct {
	Resolved bool
	Entry    *Entry
	State    Snapshot
}

// SubmitGuess counts an attempt, resolves name and evaluates it.
//
// Empty or whitespace-only names are rejected with ErrEmptyGuess before
// anything changes. A failed lookup is a silent miss: attempts and lives
// stay spent and history is untouched.
func (s *Session) SubmitGuess(ctx context.Context, name string) (GuessOutcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return GuessOutcome{}, ErrEmptyGuess
	}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return GuessOutcome{}, ErrSessionClosed
	case s.status != StatusInProgress:
		s.mu.Unlock()
		return GuessOutcome{}, ErrNotInProgress
	case s.pending:
		s.mu.Unlock()
		return GuessOutcome{}, ErrGuessPending
	}
	s.attempts++
	if s.setup.Mode == ModeCompetitive {
		s.lives--
	}
	s.pending = true
	s.lastActive = s.opts.Clock.Now()
	s.mu.Unlock()

	rec, err := s.resolve(ctx, name)

	s.mu.Lock()
	s.pending = false
	if s.closed {
		s.mu.Unlock()
		return GuessOutcome{}, ErrSessionClosed
	}

	// The countdown may have ended the game while the lookup ran.
	wasRunning := s.status == StatusInProgress

	var events []Event
	out := GuessOutcome{}
	switch {
	case err != nil:
		log.Warn().Err(err).Str("session", s.ID).Str("guess", name).Msg("guess lookup failed")
	case !rec.Resolved():
		log.Warn().Str("session", s.ID).Str("guess", name).Msg("discarding partially resolved record")
	default:
		entry := Entry{Pokemon: rec, Result: Evaluate(rec, s.target)}
		s.history = append([]Entry{entry}, s.history...)
		out.Resolved = true
		out.Entry = &entry
		if s.status == StatusInProgress && entry.Result.NameMatch {
			s.endLocked(OutcomeWon)
		}
	}
	if s.status == StatusInProgress && s.setup.Mode == ModeCompetitive && s.lives <= 0 {
		s.endLocked(OutcomeOutOfLives)
	}

	out.State = s.snapshotLocked()
	events = append(events, Event{Type: EventGuess, Resolved: out.Resolved, Entry: out.Entry, State: out.State})
	if wasRunning && out.State.Status == StatusEnded {
		events = append(events, Event{Type: EventEnded, State: out.State})
	}
	s.unlockAndEmit(events...)

	if out.Resolved && s.opts.Prefetch != nil {
		go s.prefetch(rec)
	}
	return out, nil
}

// resolve runs the lookup bound to both the caller's and the session's lifetime.
func (s *Session) resolve(ctx context.Context, name string) (pokemon.Record, error) {
	lctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()
	return s.lookup.Lookup(lctx, name)
}

func (s *Session) prefetch(rec pokemon.Record) {
	if err := s.opts.Prefetch.Prefetch(s.ctx, rec); err != nil && s.ctx.Err() == nil {
		log.Debug().Err(err).Str("session", s.ID).Int("species", rec.ID).Msg("artwork prefetch failed")
	}
}

// Tick advances the competitive countdown by one second. It reports whether
// the countdown is still running afterwards.
func (s *Session) Tick() bool {
	s.mu.Lock()
	if s.closed || s.status != StatusInProgress || s.setup.Mode != ModeCompetitive || s.timeLeft <= 0 {
		s.mu.Unlock()
		return false
	}
	s.timeLeft--
	events := []Event{}
	if s.timeLeft == 0 {
		s.endLocked(OutcomeTimeout)
	}
	snap := s.snapshotLocked()
	events = append(events, Event{Type: EventTick, State: snap})
	if snap.Status == StatusEnded {
		events = append(events, Event{Type: EventEnded, State: snap})
	}
	running := snap.Status == StatusInProgress
	s.unlockAndEmit(events...)
	return running
}

func (s *Session) runClock() {
	t := s.opts.Clock.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-t.Chan():
			if !s.Tick() {
				return
			}
		}
	}
}

// endLocked transitions to ended. Called with mu held.
func (s *Session) endLocked(o Outcome) {
	s.status = StatusEnded
	s.outcome = o
	s.endedAt = s.opts.Clock.Now()
}

// Close discards the session. Later calls are no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	s.unlockAndEmit(Event{Type: EventClosed, State: s.snapshotLocked()})
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// LastActive is the time of the last start or guess.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:          s.ID,
		Mode:        s.setup.Mode,
		Difficulty:  s.setup.Difficulty,
		Generations: append([]string(nil), s.setup.Generations...),
		Status:      s.status,
		Outcome:     s.outcome,
		Attempts:    s.attempts,
		History:     append([]Entry{}, s.history...),
		StartedAt:   s.startedAt,
		EndedAt:     s.endedAt,
	}
	if s.setup.Mode == ModeCompetitive {
		lives, left := s.lives, s.timeLeft
		snap.Lives = &lives
		snap.TimeLeft = &left
	}
	if s.status == StatusEnded {
		t := s.target.Clone()
		snap.Target = &t
	}
	return snap
}

// unlockAndEmit releases mu and delivers events. Called with mu held.
func (s *Session) unlockAndEmit(events ...Event) {
	if s.opts.Notify == nil {
		s.mu.Unlock()
		return
	}
	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()
	for _, ev := range events {
		s.opts.Notify(ev)
	}
}
