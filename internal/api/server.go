package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/modem-scraper/modem-scraper-pro/internal/auth"
	"github.com/modem-scraper/modem-scraper-pro/internal/config"
	"github.com/modem-scraper/modem-scraper-pro/internal/storage"
	"github.com/modem-scraper/modem-scraper-pro/internal/validation"
)

// RESTServer serves the operational API: health, auth and the latest scrape
// snapshot. It never talks to the modem itself.
type RESTServer struct {
	config     *config.Config
	store      storage.Store
	jwtManager *auth.JWTManager
	validator  *validation.Validator
	httpServer *http.Server
}

// NewRESTServer creates the API server.
func NewRESTServer(cfg *config.Config, store storage.Store) *RESTServer {
	return &RESTServer{
		config:     cfg,
		store:      store,
		jwtManager: auth.NewJWTManager(&cfg.JWT),
		validator:  validation.NewValidator(),
	}
}

// Start begins listening. It blocks until the listener fails or Shutdown is
// called.
func (s *RESTServer) Start() error {
	router := s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         s.config.APIAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", s.httpServer.Addr).Msg("Starting REST API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *RESTServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *RESTServer) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.HandleHealth)

		r.Post("/auth/login", s.HandleLogin)
		r.Post("/auth/refresh", s.HandleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/status", s.HandleStatus)
			r.Get("/status/downstream", s.HandleDownstream)
			r.Get("/status/upstream", s.HandleUpstream)
		})
	})

	return r
}

// authMiddleware requires a valid bearer token.
func (s *RESTServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			respondError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		claims, err := s.jwtManager.ValidateToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey{}, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type usernameKey struct{}
