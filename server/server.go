// Package server hosts the SignSense control plane: session creation with
// media token minting, agent lifecycle endpoints and the per-session SSE
// event feed.
package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Marophobia/signsense/agent"
	"github.com/Marophobia/signsense/agent/classify"
	"github.com/Marophobia/signsense/config"
)

const (
	defaultKeepaliveInterval = 15 * time.Second
	shutdownTimeout          = 10 * time.Second
)

// Server carries the HTTP API state: the SSE hub, the registry of running
// agents and the wiring used to launch new ones.
type Server struct {
	config            config.Config
	hub               *Hub
	runner            AgentRunner
	classifier        agent.Classifier
	keepaliveInterval time.Duration

	mu     sync.Mutex
	agents map[string]*runningAgent

	handler http.Handler
}

type Option func(*Server)

// WithAgentRunner replaces the production pipeline runner.
func WithAgentRunner(runner AgentRunner) Option {
	return func(s *Server) {
		s.runner = runner
	}
}

// WithImageClassifier replaces the classifier behind the debug endpoint.
func WithImageClassifier(classifier agent.Classifier) Option {
	return func(s *Server) {
		s.classifier = classifier
	}
}

// WithKeepaliveInterval overrides how often the event stream pings idle
// subscribers.
func WithKeepaliveInterval(interval time.Duration) Option {
	return func(s *Server) {
		s.keepaliveInterval = interval
	}
}

func New(cfg config.Config, opts ...Option) *Server {
	server := &Server{
		config:            cfg,
		hub:               NewHub(),
		agents:            map[string]*runningAgent{},
		keepaliveInterval: defaultKeepaliveInterval,
	}

	for _, opt := range opts {
		opt(server)
	}

	if server.runner == nil {
		server.runner = newAgentRunner(cfg)
	}
	if server.classifier == nil && cfg.Roboflow.APIKey != "" {
		server.classifier = classify.NewClient(cfg.Roboflow.APIKey, cfg.Roboflow.ModelID)
	}

	server.handler = server.routes()
	return server
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions/create", s.handleCreateSession)
	mux.HandleFunc("POST /api/sessions/{id}/start-agent", s.handleStartAgent)
	mux.HandleFunc("DELETE /api/sessions/{id}/stop-agent", s.handleStopAgent)
	mux.HandleFunc("GET /api/sessions/{id}/status", s.handleAgentStatus)
	mux.HandleFunc("GET /api/sessions/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/debug/classify-image", s.handleClassifyImage)

	return otelhttp.NewHandler(s.withCORS(mux), "signsense-server")
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.config.FrontendURL; origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves the API until the context is cancelled, then stops
// the running agents and drains in-flight requests. Request contexts descend
// from ctx, so cancelling it also releases open event streams.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.config.HTTPAddr,
		Handler: s.handler,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errs := make(chan error, 1)
	go func() {
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	s.stopAllAgents()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
