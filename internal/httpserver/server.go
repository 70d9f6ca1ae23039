// internal/httpserver/server.go
//
// HTTP presentation layer for the gurdle engine.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words", "/metrics".
//   - Game endpoints: create a session, type/delete characters, confirm or
//     submit whole guesses, read snapshots, reveal the secret.
//   - Event stream: "/game/{id}/events" pushes every engine notification
//     over a websocket (see events.go).
//
// Notes:
//   - Every engine access goes through store.Session.Do, which serialises
//     requests touching the same game.
//   - "{id}" may be "current", resolved from the signed session cookie
//     (see session.go).
//   - Illegal guesses are not HTTP errors: the snapshot's state reports them.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gurdle/internal/game"
	"github.com/robalobadob/gurdle/internal/metrics"
	"github.com/robalobadob/gurdle/internal/store"
)

// Options configures a Server. Zero values fall back to development defaults.
type Options struct {
	ClientOrigin   string        // allowed CORS origin
	RequestTimeout time.Duration // per-request bound for JSON endpoints
	JWTSecret      string        // HMAC key for session cookies
	CookieName     string        // session cookie name
	Secure         bool          // Secure + SameSite=None cookies
	FirstSecret    string        // secret for the first game created without one

	// Registry receives the engine metrics and backs /metrics.
	// A private registry is created when nil.
	Registry *prometheus.Registry
}

func (o *Options) defaults() {
	if o.ClientOrigin == "" {
		o.ClientOrigin = "http://localhost:5173"
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.JWTSecret == "" {
		o.JWTSecret = "dev_secret_change_me"
	}
	if o.CookieName == "" {
		o.CookieName = "gurdle_session"
	}
	if o.Registry == nil {
		o.Registry = prometheus.NewRegistry()
	}
}

// Server bundles router, session store and word source.
type Server struct {
	r       *chi.Mux
	store   store.Store
	words   game.WordSource
	metrics *metrics.Metrics
	opts    Options

	seedMu sync.Mutex
	seed   string // FirstSecret until consumed
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, src game.WordSource, opts Options) *Server {
	opts.defaults()
	s := &Server{
		r:       chi.NewRouter(),
		store:   st,
		words:   src,
		metrics: metrics.New(opts.Registry),
		opts:    opts,
		seed:    opts.FirstSecret,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)         // add X-Request-ID
	s.r.Use(chimw.RealIP)            // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)         // recover from panics
	s.r.Use(cors(opts.ClientOrigin)) // credentials-friendly CORS

	// Websocket stream: long-lived, so outside the timeout group.
	s.r.With(s.withSession).Get("/game/{id}/events", s.handleEvents)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.RequestTimeout)) // bound handler time
		r.Use(jsonContentType)                    // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"gurdle","endpoints":["/health","POST /game/new","/game/{id}","/game/{id}/events"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", s.handleWordStats)
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))

		// --- game ---
		r.Post("/game/new", s.handleNewGame)
		g := r.With(s.withSession)
		g.Get("/game/{id}", s.handleSnapshot)
		g.Post("/game/{id}/new", s.handleRestart)
		g.Post("/game/{id}/char", s.handleChar)
		g.Post("/game/{id}/backspace", s.handleBackspace)
		g.Post("/game/{id}/confirm", s.handleConfirm)
		g.Post("/game/{id}/guess", s.handleGuess)
		g.Get("/game/{id}/secret", s.handleSecret)
		g.Delete("/game/{id}", s.handleDelete)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Handler exposes the router (useful for tests and http.Server).
func (s *Server) Handler() http.Handler { return s.r }

// Start serves on addr until ctx ends, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.RequestTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// ----------------------------- middleware ----------------------------------

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

// ------------------------------ payloads -----------------------------------

// snapshot is everything a client needs to redraw a game.
type snapshot struct {
	GameID      string                 `json:"gameId"`
	Created     time.Time              `json:"created"`
	State       game.State             `json:"state"`
	Attempts    int                    `json:"attempts"`
	MaxAttempts int                    `json:"maxAttempts"`
	WordSize    int                    `json:"wordSize"`
	Guess       string                 `json:"guess"`
	Grid        game.Grid              `json:"grid"`
	Keyboard    map[string]game.Status `json:"keyboard"`
}

// takeSnapshot must run inside Session.Do (or an observer callback).
func takeSnapshot(sess *store.Session, e *game.Engine) snapshot {
	keys := make(map[string]game.Status)
	for r, st := range e.Keyboard() {
		keys[string(r)] = st
	}
	return snapshot{
		GameID:      sess.ID,
		Created:     sess.Created,
		State:       e.GameState(),
		Attempts:    e.NumAttempts(),
		MaxAttempts: game.NumTries,
		WordSize:    game.WordSize,
		Guess:       e.Guess(),
		Grid:        e.Grid(),
		Keyboard:    keys,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// decode reads an optional JSON body; an empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ------------------------------ handlers -----------------------------------

func (s *Server) handleWordStats(w http.ResponseWriter, r *http.Request) {
	type statser interface{ Stats() (int, int) }
	out := map[string]int{"games": s.store.Len()}
	if st, ok := s.words.(statser); ok {
		out["answers"], out["allowed"] = st.Stats()
	}
	writeJSON(w, out)
}

// newGameReq is the payload for POST /game/new and /game/{id}/new.
type newGameReq struct {
	Secret string `json:"secret"` // optional fixed secret (testing, sharing)
}

// takeSeed returns the configured first secret once.
func (s *Server) takeSeed() string {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	seed := s.seed
	s.seed = ""
	return seed
}

// startGame starts a new game on e, from req.Secret, the first-game seed
// or the word source, in that order.
func (s *Server) startGame(e *game.Engine, req newGameReq) error {
	if req.Secret != "" {
		return e.NewGameWith(req.Secret)
	}
	if seed := s.takeSeed(); seed != "" {
		return e.NewGameWith(seed)
	}
	return e.NewGame()
}

// handleNewGame creates a session, starts its game and hands out the
// session cookie.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	e := game.New(s.words)
	s.metrics.Observe(e)
	sess := store.NewSession(e)

	var snap snapshot
	err := sess.Do(func(e *game.Engine) error {
		if err := s.startGame(e, req); err != nil {
			return err
		}
		snap = takeSnapshot(sess, e)
		return nil
	})
	if errors.Is(err, game.ErrSecretLength) {
		writeError(w, http.StatusBadRequest, "invalid_secret")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("start game")
		writeError(w, http.StatusInternalServerError, "start_failed")
		return
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	if err := s.setSessionCookie(w, sess.ID); err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("sign session cookie")
	}
	log.Info().Str("gameId", sess.ID).Msg("game started")

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, snap)
}

// mutate runs fn against the request's engine and answers with the
// resulting snapshot.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(e *game.Engine) error) {
	sess := sessionFrom(r.Context())
	var snap snapshot
	err := sess.Do(func(e *game.Engine) error {
		if err := fn(e); err != nil {
			return err
		}
		snap = takeSnapshot(sess, e)
		return nil
	})
	if err != nil {
		var he httpError
		if errors.As(err, &he) {
			writeError(w, he.status, he.code)
			return
		}
		log.Error().Err(err).Str("gameId", sess.ID).Msg("game update")
		writeError(w, http.StatusInternalServerError, "update_failed")
		return
	}
	writeJSON(w, snap)
}

// httpError carries a status and code out of a mutate callback.
type httpError struct {
	status int
	code   string
}

func (e httpError) Error() string { return e.code }

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(*game.Engine) error { return nil })
}

// handleRestart starts a new game within the same session.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.mutate(w, r, func(e *game.Engine) error {
		if err := s.startGame(e, req); err != nil {
			if errors.Is(err, game.ErrSecretLength) {
				return httpError{http.StatusBadRequest, "invalid_secret"}
			}
			return err
		}
		return nil
	})
}

type charReq struct {
	Char string `json:"char"`
}

func (s *Server) handleChar(w http.ResponseWriter, r *http.Request) {
	var req charReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	runes := []rune(req.Char)
	if len(runes) != 1 {
		writeError(w, http.StatusBadRequest, "one_char_expected")
		return
	}
	s.mutate(w, r, func(e *game.Engine) error {
		e.EnterGuessChar(runes[0])
		return nil
	})
}

func (s *Server) handleBackspace(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(e *game.Engine) error {
		e.DeleteGuessChar()
		return nil
	})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(e *game.Engine) error {
		e.ConfirmGuess()
		return nil
	})
}

type guessReq struct {
	Guess string `json:"guess"`
}

// handleGuess replaces the buffer with a whole word and confirms it.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.mutate(w, r, func(e *game.Engine) error {
		e.SubmitGuess(req.Guess)
		return nil
	})
}

// handleSecret reveals the secret word (the "cheat" affordance).
func (s *Server) handleSecret(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var secret string
	_ = sess.Do(func(e *game.Engine) error {
		secret = e.Secret()
		return nil
	})
	writeJSON(w, map[string]string{"gameId": sess.ID, "secret": secret})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := s.store.Delete(r.Context(), sess.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
