// internal/httpserver/routes_pokemon.go
//
// Species lookups that never touch a session: a single-name suggestion
// resolved through PokeAPI, and prefix autocomplete over the roster.

package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pokeguess/internal/pokeapi"
	"github.com/robalobadob/pokeguess/internal/roster"
)

const (
	defaultSuggestLimit = 10
	maxSuggestLimit     = 50
)

type autocompleteRes struct {
	Prefix  string         `json:"prefix"`
	Results []roster.Entry `json:"results"`
}

// handleSuggest resolves a name without touching any session.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	rec, err := s.lookup.Lookup(r.Context(), name)
	switch {
	case errors.Is(err, pokeapi.ErrNotFound):
		writeError(w, http.StatusNotFound, "No Pokémon by that name")
		return
	case err != nil:
		log.Warn().Err(err).Str("name", name).Msg("suggestion lookup")
		writeError(w, http.StatusBadGateway, "Lookup failed")
		return
	case !rec.Resolved():
		writeError(w, http.StatusNotFound, "No Pokémon by that name")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleAutocomplete matches the roster by name prefix.
func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	limit := defaultSuggestLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSuggestLimit)
	}
	res := autocompleteRes{Prefix: prefix, Results: []roster.Entry{}}
	if s.roster != nil {
		res.Results = s.roster.Suggest(prefix, limit)
	}
	writeJSON(w, http.StatusOK, res)
}
