// Package server provides the HTTP REST API and SSE streaming for the
// CV match service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/med-zino/cvmatch/internal/db"
	"github.com/med-zino/cvmatch/internal/pipeline"
	"github.com/med-zino/cvmatch/internal/server/middleware"
	"github.com/med-zino/cvmatch/internal/server/ratelimit"
	"github.com/med-zino/cvmatch/internal/types"
)

// Store is the persistence surface the handlers need. *db.DB satisfies it.
type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*db.UserRecord, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	SaveJob(ctx context.Context, userID uuid.UUID, req *types.SaveJobRequest) (*types.SavedJob, error)
	ListSavedJobs(ctx context.Context, userID uuid.UUID) ([]types.SavedJob, error)
	UpdateSavedJob(ctx context.Context, id, userID uuid.UUID, req *types.UpdateSavedJobRequest) (*types.SavedJob, error)
	DeleteSavedJob(ctx context.Context, id, userID uuid.UUID) error

	AddSubscriber(ctx context.Context, email string) (*db.Subscriber, error)
	ListSubscribers(ctx context.Context) ([]db.Subscriber, error)
}

// MatchRunner drives one streamed match run.
type MatchRunner interface {
	Run(ctx context.Context, req types.FindMatchesRequest, emit pipeline.EmitFunc) error
}

// Config holds server wiring.
type Config struct {
	Port       int
	Store      Store
	Runner     MatchRunner
	JWTService *JWTService
	Users      *UserService

	// MaxConcurrentRuns caps simultaneous match streams.
	MaxConcurrentRuns int

	// RunTimeout bounds one match run end to end. Zero selects the
	// default, which matches the HTTP write timeout.
	RunTimeout time.Duration

	// OnShutdown runs after the HTTP server has drained.
	OnShutdown func()
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       Store
	runner      MatchRunner
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler
	runSem      *semaphore.Weighted
	runTimeout  time.Duration
	onShutdown  func()
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("server config: store is required")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("server config: runner is required")
	}
	if cfg.JWTService == nil {
		return nil, fmt.Errorf("server config: jwt service is required")
	}
	if cfg.Users == nil {
		return nil, fmt.Errorf("server config: user service is required")
	}
	if cfg.MaxConcurrentRuns <= 0 {
		cfg.MaxConcurrentRuns = 4
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 300 * time.Second
	}

	s := &Server{
		store:       cfg.Store,
		runner:      cfg.Runner,
		jwtService:  cfg.JWTService,
		userService: cfg.Users,
		runSem:      semaphore.NewWeighted(int64(cfg.MaxConcurrentRuns)),
		runTimeout:  cfg.RunTimeout,
		onShutdown:  cfg.OnShutdown,
	}
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	requireAuth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", s.authHandler.Login)

	mux.HandleFunc("POST /api/cv/find-matches", s.handleFindMatches)

	mux.Handle("GET /api/saved-jobs", requireAuth(http.HandlerFunc(s.handleListSavedJobs)))
	mux.Handle("POST /api/saved-jobs", requireAuth(http.HandlerFunc(s.handleSaveJob)))
	mux.Handle("PATCH /api/saved-jobs/{id}", requireAuth(http.HandlerFunc(s.handleUpdateSavedJob)))
	mux.Handle("DELETE /api/saved-jobs/{id}", requireAuth(http.HandlerFunc(s.handleDeleteSavedJob)))

	mux.HandleFunc("POST /api/subscribe", s.handleSubscribe)
	mux.HandleFunc("GET /api/subscribers", s.handleListSubscribers)

	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for match streams
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.onShutdown != nil {
		s.onShutdown()
	}
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		if !allowed {
			s.setRateLimitHeaders(w, info)
			s.rateLimitResponse(w, info)
			return
		}

		s.setRateLimitHeaders(w, info)
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request.
// Uses the IP address from RemoteAddr; X-Forwarded-For would need a
// trusted proxy list first.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
