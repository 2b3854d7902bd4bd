// internal/httpserver/server.go
//
// HTTP server wiring for the pokeguess backend.
// Responsibilities:
//   - Router + middleware (request IDs, access log, panic recovery, CORS,
//     timeouts, JSON content type).
//   - Public endpoints: "/", "/health", "/openapi.json", "/docs".
//   - Game endpoints (optional auth): /game/*, including the live feed.
//   - Lookup endpoints: /pokemon/{name}, /pokemon?prefix=, /share/qr.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine, /leaderboard.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - The websocket route sits outside the timeout group; it lives as long
//     as the client stays connected.
//   - Sessions are owned by "user:<id>" or "anon:<cookie>"; other owners get 404.

package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/swaggest/swgui/v5emb"

	"github.com/robalobadob/pokeguess/internal/accounts"
	"github.com/robalobadob/pokeguess/internal/game"
	"github.com/robalobadob/pokeguess/internal/results"
	"github.com/robalobadob/pokeguess/internal/roster"
	"github.com/robalobadob/pokeguess/internal/store"
	"github.com/robalobadob/pokeguess/internal/target"
)

const defaultHandlerTimeout = 15 * time.Second

// Users is the slice of the account service the handlers need.
type Users interface {
	Register(ctx context.Context, req accounts.RegisterRequest) (*accounts.User, error)
	User(ctx context.Context, id string) (*accounts.User, error)
}

// Results persists finished games and serves stats.
type Results interface {
	Record(ctx context.Context, r results.Result) error
	Stats(ctx context.Context, userID string) (results.Stats, error)
	Recent(ctx context.Context, userID string, limit int) ([]results.Result, error)
	Leaderboard(ctx context.Context, date string, limit int) ([]results.LBRow, error)
}

// Settings are the deployment knobs the handlers read.
type Settings struct {
	CookieName   string
	ClientOrigin string
	PublicURL    string
	Secure       bool // production cookies
	Lives        int
	Seconds      int
	Timeout      time.Duration
}

// Deps bundles everything New needs.
type Deps struct {
	Settings Settings
	Sessions store.Store
	Users    Users
	Auth     accounts.Authenticator
	Tokens   *accounts.Tokens
	Results  Results
	Lookup   game.Lookup
	Targets  target.Picker
	Roster   *roster.Roster
	Prefetch game.Prefetcher
	Clock    clockwork.Clock
	Checks   map[string]func(context.Context) error // health checks by name
}

// Server bundles router, live sessions and persistence.
type Server struct {
	r        *chi.Mux
	cfg      Settings
	sessions store.Store
	users    Users
	auth     accounts.Authenticator
	tokens   *accounts.Tokens
	results  Results
	lookup   game.Lookup
	targets  target.Picker
	roster   *roster.Roster
	prefetch game.Prefetcher
	clock    clockwork.Clock
	checks   map[string]func(context.Context) error
	broker   *Broker
	upgrader websocket.Upgrader
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Settings.Timeout <= 0 {
		d.Settings.Timeout = defaultHandlerTimeout
	}
	if d.Settings.CookieName == "" {
		d.Settings.CookieName = "pokeguess_token"
	}
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      d.Settings,
		sessions: d.Sessions,
		users:    d.Users,
		auth:     d.Auth,
		tokens:   d.Tokens,
		results:  d.Results,
		lookup:   d.Lookup,
		targets:  d.Targets,
		roster:   d.Roster,
		prefetch: d.Prefetch,
		clock:    d.Clock,
		checks:   d.Checks,
		broker:   NewBroker(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)          // add X-Request-ID
	s.r.Use(chimw.RealIP)             // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)                // one log line per request
	s.r.Use(chimw.Recoverer)          // recover from panics
	s.r.Use(cors(s.cfg.ClientOrigin)) // credentials-friendly CORS

	// --- docs ---
	s.r.Get("/openapi.json", handleOpenAPI())
	s.r.Mount("/docs", v5emb.New("pokeguess API", "/openapi.json", "/docs"))

	// Live feed: no handler timeout.
	s.r.With(s.withOptionalAuth).Get("/game/{id}/ws", s.handleGameFeed)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(s.cfg.Timeout)) // bound handler time
		r.Use(jsonContentType)              // default JSON responses

		r.Get("/", handleIndex)
		r.Get("/health", s.handleHealth)

		// Game endpoints: optional auth (guests can play casual)
		r.Group(func(r chi.Router) {
			r.Use(s.withOptionalAuth)
			r.Get("/game/modes", s.handleModes)
			r.Post("/game/new", s.handleNewGame)
			r.Post("/game/guess", s.handleGuess)
			r.Get("/game/{id}", s.handleGetGame)
			r.Delete("/game/{id}", s.handleDeleteGame)
		})

		// Lookups never count as attempts.
		r.Get("/pokemon", s.handleAutocomplete)
		r.Get("/pokemon/{name}", s.handleSuggest)
		r.Get("/share/qr", s.handleShareQR)
		r.Get("/leaderboard", s.handleLeaderboard)

		s.mountAuthRoutes(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// ServeHTTP lets the Server be used as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

// Broker exposes the session event broker.
func (s *Server) Broker() *Broker { return s.broker }

// NewHTTPServer wraps h with the listener timeouts used in production.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

type indexRes struct {
	Service   string   `json:"service"`
	Endpoints []string `json:"endpoints"`
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, indexRes{
		Service: "pokeguess",
		Endpoints: []string{
			"/health", "/docs",
			"GET /game/modes", "POST /game/new", "POST /game/guess", "/game/{id}", "/game/{id}/ws",
			"/pokemon/{name}", "/pokemon?prefix=", "/share/qr", "/leaderboard", "/auth/*",
		},
	})
}
