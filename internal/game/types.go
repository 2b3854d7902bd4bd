// internal/game/types.go
//
// Core type definitions for the guessing game.
// Defines:
//   - Mode / Status / Outcome enums.
//   - Setup: the selections carried from the mode selection screen.
//   - GuessResult / Entry: per-guess feedback and history rows.
//   - Snapshot / Event: read-only views handed to the HTTP layer.

package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/pokeguess/internal/pokemon"
)

// Mode selects the rule set for a session.
type Mode string

const (
	ModeCasual      Mode = "casual"
	ModeCompetitive Mode = "competitive"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m == ModeCasual || m == ModeCompetitive }

// Status is the session lifecycle state.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusEnded      Status = "ended"
)

// Outcome explains why a session ended.
type Outcome string

const (
	OutcomeNone       Outcome = ""
	OutcomeWon        Outcome = "won"
	OutcomeOutOfLives Outcome = "out_of_lives"
	OutcomeTimeout    Outcome = "timeout"
)

// Difficulties offered on the selection screen.
var Difficulties = []string{"easy", "medium", "hard"}

// ErrInvalidSetup wraps every Setup validation failure.
var ErrInvalidSetup = errors.New("invalid game setup")

// Setup holds the selections made before play starts.
type Setup struct {
	Mode        Mode     `json:"mode"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Generations []string `json:"generations,omitempty"`
}

// Validate enforces the selection rules: competitive needs nothing else,
// casual needs a difficulty and at least one generation.
func (s Setup) Validate() error {
	if !s.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidSetup, s.Mode)
	}
	if s.Difficulty != "" && !validDifficulty(s.Difficulty) {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidSetup, s.Difficulty)
	}
	for _, g := range s.Generations {
		if _, ok := pokemon.GenerationByID(g); !ok {
			return fmt.Errorf("%w: unknown generation %q", ErrInvalidSetup, g)
		}
	}
	if s.Mode == ModeCasual {
		if s.Difficulty == "" {
			return fmt.Errorf("%w: casual mode needs a difficulty", ErrInvalidSetup)
		}
		if len(s.Generations) == 0 {
			return fmt.Errorf("%w: casual mode needs at least one generation", ErrInvalidSetup)
		}
	}
	return nil
}

func validDifficulty(d string) bool {
	for _, x := range Difficulties {
		if x == d {
			return true
		}
	}
	return false
}

// StatMatches flags each base stat within tolerance of the target.
type StatMatches struct {
	HP             bool `json:"hp"`
	Attack         bool `json:"attack"`
	Defense        bool `json:"defense"`
	SpecialAttack  bool `json:"specialAttack"`
	SpecialDefense bool `json:"specialDefense"`
	Speed          bool `json:"speed"`
}

// GuessResult is the field-by-field comparison of a guess against the target.
type GuessResult struct {
	NameMatch      bool        `json:"nameMatch"`
	RegionMatch    bool        `json:"regionMatch"`
	Type1Match     bool        `json:"type1Match"`
	Type2Match     bool        `json:"type2Match"`
	AbilityMatches []string    `json:"abilityMatches"`
	StatMatches    StatMatches `json:"statMatches"`
}

// Entry pairs a resolved guess with its evaluation.
type Entry struct {
	Pokemon pokemon.Record `json:"pokemon"`
	Result  GuessResult    `json:"result"`
}

// Snapshot is a consistent copy of session state.
// Lives and TimeLeft are nil when the mode does not track them.
type Snapshot struct {
	ID          string          `json:"id"`
	Mode        Mode            `json:"mode,omitempty"`
	Difficulty  string          `json:"difficulty,omitempty"`
	Generations []string        `json:"generations,omitempty"`
	Status      Status          `json:"status"`
	Outcome     Outcome         `json:"outcome,omitempty"`
	Attempts    int             `json:"attempts"`
	Lives       *int            `json:"lives"`
	TimeLeft    *int            `json:"timeLeft"`
	History     []Entry         `json:"history"`
	Target      *pokemon.Record `json:"target,omitempty"` // only once ended
	StartedAt   time.Time       `json:"startedAt,omitempty"`
	EndedAt     time.Time       `json:"endedAt,omitempty"`
}

// Elapsed is the play time of an ended session.
func (s Snapshot) Elapsed() time.Duration {
	if s.StartedAt.IsZero() || s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// EventType names what changed.
type EventType string

const (
	EventTick  EventType = "tick"
	EventGuess EventType = "guess"
	EventEnded EventType = "ended"

	// EventClosed is the last event of a discarded session.
	EventClosed EventType = "closed"
)

// Event is emitted after every state change.
type Event struct {
	Type     EventType `json:"type"`
	Resolved bool      `json:"resolved,omitempty"` // guess events only
	Entry    *Entry    `json:"entry,omitempty"`
	State    Snapshot  `json:"state"`
}

// Lookup resolves a species name into a full record.
type Lookup interface {
	Lookup(ctx context.Context, name string) (pokemon.Record, error)
}

// Prefetcher warms presentation assets for a resolved guess.
type Prefetcher interface {
	Prefetch(ctx context.Context, rec pokemon.Record) error
}
