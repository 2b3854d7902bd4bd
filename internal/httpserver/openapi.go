package httpserver

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/robalobadob/pokeguess/internal/accounts"
	"github.com/robalobadob/pokeguess/internal/game"
	"github.com/robalobadob/pokeguess/internal/pokemon"
	"github.com/robalobadob/pokeguess/internal/results"
)

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "pokeguess API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Guess the hidden Pokémon from field-by-field hints.")

	// GET /health
	getHealth, _ := r.NewOperationContext(http.MethodGet, "/health")
	getHealth.SetSummary("Health check")
	getHealth.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealth.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealth)

	// POST /auth/register
	postRegister, _ := r.NewOperationContext(http.MethodPost, "/auth/register")
	postRegister.SetSummary("Create an account")
	postRegister.SetDescription("Password and confirmation must match. Does not sign in.")
	postRegister.AddReqStructure(accounts.RegisterRequest{})
	postRegister.AddRespStructure(authUser{}, openapi.WithHTTPStatus(http.StatusCreated))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postRegister)

	// POST /auth/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/auth/login")
	postLogin.SetSummary("Sign in")
	postLogin.SetDescription("Sets the session cookie and returns the token for bearer use.")
	postLogin.AddReqStructure(loginReq{})
	postLogin.AddRespStructure(loginRes{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /auth/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/auth/logout")
	postLogout.SetSummary("Sign out")
	postLogout.AddRespStructure(okRes{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /auth/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/auth/me")
	getMe.SetSummary("Current user")
	getMe.AddRespStructure(authUser{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /game/modes
	getModes, _ := r.NewOperationContext(http.MethodGet, "/game/modes")
	getModes.SetSummary("Mode selection catalogue")
	getModes.SetDescription("Competitive is locked for guests.")
	getModes.AddRespStructure(modesRes{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getModes)

	// POST /game/new
	postNew, _ := r.NewOperationContext(http.MethodPost, "/game/new")
	postNew.SetSummary("Start a game")
	postNew.SetDescription("Casual needs a difficulty and at least one generation. Competitive needs a signed-in user.")
	postNew.AddReqStructure(game.Setup{})
	postNew.AddRespStructure(game.Snapshot{}, openapi.WithHTTPStatus(http.StatusCreated))
	postNew.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postNew.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postNew)

	// POST /game/guess
	postGuess, _ := r.NewOperationContext(http.MethodPost, "/game/guess")
	postGuess.SetSummary("Submit a guess")
	postGuess.SetDescription("Unknown names return resolved=false; the attempt still counts.")
	postGuess.AddReqStructure(guessReq{})
	postGuess.AddRespStructure(guessRes{}, openapi.WithHTTPStatus(http.StatusOK))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postGuess)

	// GET /game/{id}
	getGame, _ := r.NewOperationContext(http.MethodGet, "/game/{id}")
	getGame.SetSummary("Game state")
	getGame.AddRespStructure(game.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getGame)

	// DELETE /game/{id}
	deleteGame, _ := r.NewOperationContext(http.MethodDelete, "/game/{id}")
	deleteGame.SetSummary("Discard a game")
	deleteGame.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteGame)

	// GET /game/{id}/ws
	getFeed, _ := r.NewOperationContext(http.MethodGet, "/game/{id}/ws")
	getFeed.SetSummary("Live game feed")
	getFeed.SetDescription("WebSocket stream of state, tick, guess and ended events. Accepts {\"type\":\"guess\",\"name\":...}.")
	getFeed.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getFeed)

	// GET /pokemon/{name}
	getPokemon, _ := r.NewOperationContext(http.MethodGet, "/pokemon/{name}")
	getPokemon.SetSummary("Look up a Pokémon")
	getPokemon.SetDescription("Does not count as a guess.")
	getPokemon.AddRespStructure(pokemon.Record{}, openapi.WithHTTPStatus(http.StatusOK))
	getPokemon.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getPokemon)

	// GET /pokemon
	getAuto, _ := r.NewOperationContext(http.MethodGet, "/pokemon")
	getAuto.SetSummary("Autocomplete names")
	getAuto.AddRespStructure(autocompleteRes{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getAuto)

	// GET /share/qr
	getQR, _ := r.NewOperationContext(http.MethodGet, "/share/qr")
	getQR.SetSummary("Share link QR code")
	getQR.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType("image/png"))
	getQR.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getQR)

	// GET /stats/me
	getStats, _ := r.NewOperationContext(http.MethodGet, "/stats/me")
	getStats.SetSummary("My counters")
	getStats.AddRespStructure(statsRes{}, openapi.WithHTTPStatus(http.StatusOK))
	getStats.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getStats)

	// GET /games/mine
	getMine, _ := r.NewOperationContext(http.MethodGet, "/games/mine")
	getMine.SetSummary("My recent games")
	getMine.AddRespStructure([]results.Result{}, openapi.WithHTTPStatus(http.StatusOK))
	getMine.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMine)

	// GET /leaderboard
	getLB, _ := r.NewOperationContext(http.MethodGet, "/leaderboard")
	getLB.SetSummary("Competitive leaderboard")
	getLB.SetDescription("Fewest attempts, then fastest, for a UTC date (default today).")
	getLB.AddRespStructure(leaderboardRes{}, openapi.WithHTTPStatus(http.StatusOK))
	getLB.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getLB)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
