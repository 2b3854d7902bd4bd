// internal/httpserver/routes_game.go
//
// Game endpoints:
//   - GET    /game/modes → selection catalogue
//   - POST   /game/new   → pick a target, start a session
//   - POST   /game/guess → submit a guess
//   - GET    /game/{id}  → current state
//   - DELETE /game/{id}  → discard the session
//
// Finished games of signed-in players are written to the results store from
// the session's event callback, so timeouts are recorded even when no request
// is in flight.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pokeguess/internal/game"
	"github.com/robalobadob/pokeguess/internal/pokemon"
	"github.com/robalobadob/pokeguess/internal/results"
)

type modeInfo struct {
	ID               game.Mode `json:"id"`
	Locked           bool      `json:"locked"` // sign in required
	NeedsDifficulty  bool      `json:"needsDifficulty"`
	NeedsGenerations bool      `json:"needsGenerations"`
	Lives            int       `json:"lives,omitempty"`
	Seconds          int       `json:"seconds,omitempty"`
}

type modesRes struct {
	Modes        []modeInfo           `json:"modes"`
	Difficulties []string             `json:"difficulties"`
	Generations  []pokemon.Generation `json:"generations"`
}

type guessReq struct {
	GameID string `json:"gameId"`
	Name   string `json:"name"`
}

type guessRes struct {
	Resolved bool          `json:"resolved"`
	Entry    *game.Entry   `json:"entry,omitempty"`
	State    game.Snapshot `json:"state"`
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	guest := currentUser(r) == nil
	writeJSON(w, http.StatusOK, modesRes{
		Modes: []modeInfo{
			{ID: game.ModeCasual, NeedsDifficulty: true, NeedsGenerations: true},
			{ID: game.ModeCompetitive, Locked: guest, Lives: s.lives(), Seconds: s.seconds()},
		},
		Difficulties: game.Difficulties,
		Generations:  pokemon.Generations(),
	})
}

// handleNewGame validates the selections, picks a target and starts a session.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var setup game.Setup
	if err := readJSON(w, r, &setup); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if err := setup.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	me := currentUser(r)
	if setup.Mode == game.ModeCompetitive && me == nil {
		writeError(w, http.StatusUnauthorized, "Sign in to play competitive")
		return
	}

	tgt, err := s.targets.Pick(r.Context(), setup.Generations)
	if err != nil {
		log.Error().Err(err).Strs("generations", setup.Generations).Msg("pick target")
		writeError(w, http.StatusBadGateway, "Could not choose a Pokémon")
		return
	}

	var userID string
	if me != nil {
		userID = me.ID
	}
	id := uuid.NewString()
	sess := game.NewSession(id, s.ownerKey(w, r), tgt, s.lookup, game.Options{
		Lives:    s.cfg.Lives,
		Seconds:  s.cfg.Seconds,
		Clock:    s.clock,
		Prefetch: s.prefetch,
		Notify:   s.notifier(id, userID),
	})
	if err := sess.Start(setup); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		sess.Close()
		log.Error().Err(err).Str("gameId", id).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Str("gameId", id).Str("mode", string(setup.Mode)).Bool("guest", me == nil).Msg("game started")
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

// handleGuess submits a guess. An unresolvable name is a silent miss:
// 200 with resolved=false, the attempt still counted.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	sess, ok := s.ownedSession(w, r, req.GameID)
	if !ok {
		return
	}
	out, err := sess.SubmitGuess(r.Context(), req.Name)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, guessRes{Resolved: out.Resolved, Entry: out.Entry, State: out.State})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleDeleteGame discards a session. Closing it stops the countdown and hangs up its feeds.
func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
		writeError(w, http.StatusNotFound, "Game not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedSession loads a live session belonging to the caller, or writes 404.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request, id string) (*game.Session, bool) {
	if id == "" {
		writeError(w, http.StatusNotFound, "Game not found")
		return nil, false
	}
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil || sess.Closed() || sess.Owner != s.ownerKey(w, r) {
		writeError(w, http.StatusNotFound, "Game not found")
		return nil, false
	}
	return sess, true
}

// notifier fans session events out to live feeds and records finished games.
func (s *Server) notifier(sessionID, userID string) func(game.Event) {
	return func(ev game.Event) {
		if ev.Type == game.EventClosed {
			// session discarded: hang up the feeds
			s.broker.Close(sessionID)
			return
		}
		s.broker.Publish(sessionID, ev)
		if ev.Type != game.EventEnded || userID == "" || s.results == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		res := results.FromSnapshot(userID, ev.State)
		if err := s.results.Record(ctx, res); err != nil {
			log.Warn().Err(err).Str("gameId", sessionID).Str("user", userID).Msg("record result")
			return
		}
		log.Info().Str("gameId", sessionID).Str("outcome", res.Outcome).Int("attempts", res.Attempts).Msg("game recorded")
	}
}

// gameErrorStatus maps session errors to a status and a message for players.
func gameErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrEmptyGuess):
		return http.StatusBadRequest, "Enter a Pokémon name"
	case errors.Is(err, game.ErrInvalidSetup):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, game.ErrNotInProgress):
		return http.StatusConflict, "Game is not in progress"
	case errors.Is(err, game.ErrGuessPending):
		return http.StatusConflict, "A guess is already being checked"
	case errors.Is(err, game.ErrSessionClosed):
		return http.StatusNotFound, "Game not found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Request cancelled"
	}
	return http.StatusInternalServerError, "guess_failed"
}

func writeGameError(w http.ResponseWriter, err error) {
	status, msg := gameErrorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("submit guess")
	}
	writeError(w, status, msg)
}

func (s *Server) lives() int {
	if s.cfg.Lives > 0 {
		return s.cfg.Lives
	}
	return game.DefaultLives
}

func (s *Server) seconds() int {
	if s.cfg.Seconds > 0 {
		return s.cfg.Seconds
	}
	return game.DefaultSeconds
}
