package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// HealthResponse reports each dependency check and the live session count.
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Sessions int               `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	res := HealthResponse{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK
	for name, check := range s.checks {
		res.Checks[name] = "ok"
		if err := check(ctx); err != nil {
			log.Error().Err(err).Str("name", name).Msg("health check failed")
			res.Checks[name] = "error"
			res.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	if s.sessions != nil {
		res.Sessions = s.sessions.Len()
	}
	writeJSON(w, status, res)
}
