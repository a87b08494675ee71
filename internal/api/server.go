// Package api assembles the CRUD/HTTP surface: workflow and credential
// management, execution lookup/cancel/stream, Gmail OAuth, health, metrics,
// and the live dashboard feed. Grounded on the teacher's
// internal/api/server.go chi router + CORS + middleware composition,
// narrowed from its ~20 route groups down to the five resources this engine
// exposes.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/flowcraft-dev/flowcraft/internal/api/handlers"
	"github.com/flowcraft-dev/flowcraft/internal/api/middleware"
	"github.com/flowcraft-dev/flowcraft/internal/api/ws"
	"github.com/flowcraft-dev/flowcraft/internal/domain/repositories"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/config"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/crypto"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/metrics"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/oauth"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/queue"
	"github.com/flowcraft-dev/flowcraft/internal/worker/progress"
)

type Server struct {
	cfg        *config.Config
	router     *chi.Mux
	httpServer *http.Server
	hub        *ws.Hub
}

// Deps bundles the server's wiring so cmd/api's main only has to construct
// each dependency once and hand it off.
type Deps struct {
	DB          *gorm.DB
	RedisClient *redis.Client
	Store       *repositories.GormStore
	JWTManager  *crypto.JWTManager
	Encryptor   *crypto.Encryptor
	QueueClient *queue.Client
	Bus         *progress.Bus
	Gmail       *oauth.GmailClient
}

func NewServer(cfg *config.Config, deps *Deps) *Server {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger())
	router.Use(middleware.Recoverer())
	router.Use(chimiddleware.Timeout(60 * time.Second))

	allowedOrigins := strings.Split(cfg.App.FrontendURL, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	router.Use(corsHandler.Handler)

	hub := ws.NewHub(deps.Bus)

	workflowHandler := handlers.NewWorkflowHandler(deps.Store.Workflows, deps.Store.Executions, deps.QueueClient)
	executionHandler := handlers.NewExecutionHandler(deps.Store.Executions, deps.Bus, &cfg.Redis)
	credentialHandler := handlers.NewCredentialHandler(deps.Store.Credentials, deps.Encryptor)
	oauthHandler := handlers.NewOAuthHandler(deps.Store.Credentials, deps.Encryptor, deps.Gmail, cfg.Gmail.ClientID, cfg.Gmail.ClientSecret, cfg.Gmail.RedirectURL)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.RedisClient)
	dashboardHandler := handlers.NewDashboardHandler(hub)

	authMiddleware := middleware.Auth(deps.JWTManager)

	router.Get("/health", healthHandler.Health)
	router.Get("/health/live", healthHandler.Live)
	router.Handle("/metrics", metrics.Handler())
	router.Get("/ws/dashboard", dashboardHandler.Serve)

	router.Route("/api", func(r chi.Router) {
		r.Get("/oauth/gmail/authorize", oauthHandler.Authorize)
		r.Get("/oauth/gmail/callback", oauthHandler.Callback)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.Route("/workflows", func(r chi.Router) {
				r.Get("/", workflowHandler.List)
				r.Post("/", workflowHandler.Create)
				r.Get("/{id}", workflowHandler.Get)
				r.Put("/{id}", workflowHandler.Update)
				r.Delete("/{id}", workflowHandler.Delete)
				r.Post("/{id}/execute", workflowHandler.Execute)
				r.Post("/{id}/preview", workflowHandler.Preview)
			})

			r.Route("/executions", func(r chi.Router) {
				r.Get("/", executionHandler.List)
				r.Get("/{id}", executionHandler.Get)
				r.Post("/{id}/cancel", executionHandler.Cancel)
				r.Get("/{id}/stream", executionHandler.Stream)
			})

			r.Route("/credentials", func(r chi.Router) {
				r.Get("/", credentialHandler.List)
				r.Post("/", credentialHandler.Create)
				r.Get("/{id}", credentialHandler.Get)
				r.Put("/{id}", credentialHandler.Update)
				r.Delete("/{id}", credentialHandler.Delete)
			})
		})
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{cfg: cfg, router: router, httpServer: httpServer, hub: hub}
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

func (s *Server) Router() *chi.Mux {
	return s.router
}
