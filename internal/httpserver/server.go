// internal/httpserver/server.go
//
// HTTP wiring for the Clash of Cans backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Game API: POST /api/start-game, GET /api/scores, POST /api/scores.
//   - Diagnostics: "/", "/health".
//   - Static client serving (the presentational collaborator) when a static
//     directory is configured and present.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled.
//   - All core decisions live in internal/{game,session,submit,scoreboard};
//     handlers only translate JSON to calls and errors to statuses.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/clash-of-cans/go-server/internal/scoreboard"
	"github.com/clash-of-cans/go-server/internal/session"
	"github.com/clash-of-cans/go-server/internal/submit"
)

// Server bundles the router with the core components behind it.
type Server struct {
	r         *chi.Mux
	registry  session.Registry
	store     scoreboard.Store
	validator *submit.Validator
}

// New constructs a Server, installs middleware, and registers routes.
// staticDir may be empty or missing; the API works without a client bundle.
func New(reg session.Registry, store scoreboard.Store, v *submit.Validator, staticDir string) *Server {
	s := &Server{r: chi.NewRouter(), registry: reg, store: store, validator: v}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// --- game API ---
	s.r.Post("/api/start-game", s.handleStartGame)
	s.r.Get("/api/scores", s.handleGetScores)
	s.r.Post("/api/scores", s.handleSubmitScore)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	// Static client at the root, if a bundle is present.
	if info, err := os.Stat(staticDir); staticDir != "" && err == nil && info.IsDir() {
		fileServer := http.FileServer(http.Dir(staticDir))
		s.r.Handle("/*", stripJSONContentType(fileServer))
		log.Info().Str("dir", staticDir).Msg("serving static client")
	} else {
		s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"clash-of-cans","endpoints":["/health","POST /api/start-game","GET /api/scores","POST /api/scores"]}`))
		})
	}

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// stripJSONContentType undoes the JSON default for static files so the
// file server's own content sniffing wins.
func stripJSONContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Del("Content-Type")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ handlers -----------------------------------

// startGameReq/Res payloads for POST /api/start-game.
type startGameReq struct {
	CanCount int `json:"canCount"`
}
type startGameRes struct {
	Token string `json:"token"`
}

// handleStartGame opens a session for the requested puzzle size and returns
// its token. The client keeps the token until it wins.
func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req startGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	token, err := s.registry.Issue(req.CanCount)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSize) {
			http.Error(w, `{"error":"canCount must be between 5 and 8"}`, http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("issue session token")
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(startGameRes{Token: token})
}

// handleGetScores returns the scoreboard with each bucket ranked ascending
// by turns.
func (s *Server) handleGetScores(w http.ResponseWriter, r *http.Request) {
	board, err := s.store.All(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load scoreboard")
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(scoreboard.Ranked(board))
}

// submitScoreReq is the POST /api/scores payload.
type submitScoreReq struct {
	CanCount int    `json:"canCount"`
	Turns    int    `json:"turns"`
	Name     string `json:"name"`
	Token    string `json:"token"`
	GameTime int    `json:"gameTime"` // client-measured elapsed ms
}

// handleSubmitScore validates a win claim and appends it to the scoreboard.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	_, err := s.validator.Submit(r.Context(), submit.Request{
		Name:      req.Name,
		Size:      req.CanCount,
		Turns:     req.Turns,
		Token:     req.Token,
		ElapsedMs: req.GameTime,
	})
	switch {
	case err == nil:
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Score saved successfully"})
	case errors.Is(err, submit.ErrInvalidName):
		http.Error(w, `{"error":"invalid name"}`, http.StatusBadRequest)
	case errors.Is(err, submit.ErrInvalidRequest):
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
	case errors.Is(err, submit.ErrForbidden):
		http.Error(w, `{"error":"invalid or expired session token"}`, http.StatusForbidden)
	default:
		log.Error().Err(err).Msg("persist score")
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
	}
}
