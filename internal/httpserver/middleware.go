// internal/httpserver/middleware.go
//
// Request middleware:
//   - jsonContentType: default JSON Content-Type.
//   - cors:            credentialed CORS for the configured client origin.
//   - accessLog:       one zerolog line per request.
//   - withOptionalAuth / requireAuth: JWT from bearer header or cookie.
//   - ensureAnonID:    stable guest identifier cookie.
package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog writes a structured line for every request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			ev := log.Info()
			if ww.Status() >= http.StatusInternalServerError {
				ev = log.Warn()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}

// authUser is placed into request context by the auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

func currentUser(r *http.Request) *authUser {
	u, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return u
}

// bearerOrCookie extracts a bearer token from the Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// authenticate resolves the request's token to a live user, or nil.
func (s *Server) authenticate(r *http.Request) *authUser {
	tok := s.bearerOrCookie(r)
	if tok == "" {
		return nil
	}
	claims, err := s.tokens.Parse(tok)
	if err != nil {
		return nil
	}
	// the account may have been removed since the token was issued
	u, err := s.users.User(r.Context(), claims.ID)
	if err != nil {
		return nil
	}
	return &authUser{ID: u.ID, Username: u.Username}
}

// withOptionalAuth decorates requests with the user when a valid token is present.
// It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := s.authenticate(r); u != nil {
			r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth enforces a valid token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.bearerOrCookie(r) == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		u := s.authenticate(r)
		if u == nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
	})
}

const anonCookieName = "pokeguess_anon"

// ensureAnonID returns an existing anon cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, s.cookie(anonCookieName, id, time.Now().Add(180*24*time.Hour)))
	return id
}

// ownerKey identifies who may see a session: the user, or the guest cookie.
func (s *Server) ownerKey(w http.ResponseWriter, r *http.Request) string {
	if me := currentUser(r); me != nil {
		return "user:" + me.ID
	}
	return "anon:" + s.ensureAnonID(w, r)
}

// cookie builds a cookie with the deployment's security attributes.
// A zero expiry deletes the cookie.
func (s *Server) cookie(name, value string, exp time.Time) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if s.cfg.Secure {
		sameSite = http.SameSiteNoneMode // cross-site requires Secure
	}
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: sameSite,
		Expires:  exp,
	}
	if exp.IsZero() {
		c.MaxAge = -1
	}
	return c
}
