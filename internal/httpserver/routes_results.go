package httpserver

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pokeguess/internal/daily"
	"github.com/robalobadob/pokeguess/internal/results"
)

type statsRes struct {
	ID string `json:"id"`
	results.Stats
}

type leaderboardRes struct {
	Date string          `json:"date"`
	Rows []results.LBRow `json:"rows"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	st, err := s.results.Stats(r.Context(), me.ID)
	if err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("load stats")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, statsRes{ID: me.ID, Stats: st})
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	rows, err := s.results.Recent(r.Context(), me.ID, 50)
	if err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("load games")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleLeaderboard lists the best competitive wins for a day (default today, UTC).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(s.clock.Now())
	} else if _, err := daily.ParseKey(date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	rows, err := s.results.Leaderboard(r.Context(), date, 20)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("load leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, leaderboardRes{Date: date, Rows: rows})
}
