package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/fundedai/boothchat/internal/chat"
	"github.com/fundedai/boothchat/internal/config"
	"github.com/fundedai/boothchat/internal/db"
	"github.com/fundedai/boothchat/internal/llm"
)

// Orchestrator answers booth questions and serves quick-info cards.
type Orchestrator interface {
	Answer(ctx context.Context, question string, history []llm.Message) (string, error)
	QuickInfoCards(ctx context.Context) ([]chat.Card, error)
}

// Reindexer rebuilds the vector index from the docs directory.
type Reindexer interface {
	EnsureIndex(ctx context.Context) error
}

// Server is the booth chat HTTP surface.
type Server struct {
	cfg          *config.Config
	orchestrator Orchestrator
	reindexer    Reindexer
	transcripts  *db.DB

	// reindexMu single-flights /reload; ingestion must not run
	// concurrently with itself.
	reindexMu sync.Mutex

	router     chi.Router
	httpServer *http.Server
}

// New creates a Server. transcripts may be nil to disable session recording.
func New(cfg *config.Config, orchestrator Orchestrator, reindexer Reindexer, transcripts *db.DB) *Server {
	s := &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		reindexer:    reindexer,
		transcripts:  transcripts,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.Server.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
		corsOpts.AllowCredentials = false
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/chat", s.handleChat)
	r.Post("/reload", s.handleReload)
	r.Get("/cards", s.handleCards)
	r.Get("/sessions/{id}/transcript", s.handleTranscript)
	r.Get("/ws", s.handleWebSocket)

	return r
}

// requestLogger logs one line per request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// Router returns the chi router, exposed for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("boothchat server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
