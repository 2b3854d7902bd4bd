package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pokeguess/internal/accounts"
)

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRes struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type okRes struct {
	OK bool `json:"ok"`
}

// mountAuthRoutes registers authentication + gated routes (/auth/*, /stats/me, /games/mine).
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/auth/me", s.handleMe)
		r.Get("/stats/me", s.handleStats)
		r.Get("/games/mine", s.handleMyGames)
	})
}

// handleRegister creates an account. It does not sign the user in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body accounts.RegisterRequest
	if err := readJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.users.Register(r.Context(), body)
	var verr *accounts.ValidationError
	switch {
	case err == nil:
	case errors.Is(err, accounts.ErrPasswordMismatch):
		writeError(w, http.StatusBadRequest, "Passwords do not match")
		return
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Msg)
		return
	case errors.Is(err, accounts.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "Username taken")
		return
	default:
		log.Error().Err(err).Msg("register")
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, authUser{ID: u.ID, Username: u.Username})
}

// handleLogin authenticates, sets the auth cookie and returns the token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := readJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if body.Username == "" || body.Password == "" {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	id, err := s.auth.Verify(r.Context(), body.Username, body.Password)
	if errors.Is(err, accounts.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("verify credentials")
		writeError(w, http.StatusInternalServerError, "Sign in failed")
		return
	}
	u, err := s.users.User(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("user", id).Msg("load user")
		writeError(w, http.StatusInternalServerError, "Sign in failed")
		return
	}
	tok, exp, err := s.tokens.Sign(u)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	http.SetCookie(w, s.cookie(s.cfg.CookieName, tok, exp))
	writeJSON(w, http.StatusOK, loginRes{ID: u.ID, Username: u.Username, Token: tok})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.cookie(s.cfg.CookieName, "", time.Time{}))
	writeJSON(w, http.StatusOK, okRes{OK: true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}
