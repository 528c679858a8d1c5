package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/somniary/somniary/internal/analysis"
	"github.com/somniary/somniary/internal/auth"
	"github.com/somniary/somniary/internal/dream"
	"github.com/somniary/somniary/internal/insights"
	"github.com/somniary/somniary/internal/store"
)

// Store is the slice of the storage layer the HTTP handlers need.
type Store interface {
	CreateUser(ctx context.Context, u *store.User) error
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)

	CreateDream(ctx context.Context, d *dream.Dream) error
	UpdateDream(ctx context.Context, d *dream.Dream) error
	GetDream(ctx context.Context, id, userID uuid.UUID) (*dream.Dream, error)
	ListDreams(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dream.Dream, error)
	DeleteDream(ctx context.Context, id, userID uuid.UUID) error

	GetAnalysisByDreamID(ctx context.Context, dreamID, userID uuid.UUID) (*analysis.Analysis, error)
	AttachFeedback(ctx context.Context, analysisID, userID uuid.UUID, fb *analysis.Feedback) error
	FindAnalysesInWindow(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]insights.Record, error)
}

// Publisher emits analysis generation triggers. Publishing is fire-and-forget:
// a dream write never waits for, or fails on, the generation side.
type Publisher interface {
	Publish(subject string, data any) error
}

type Server struct {
	router *chi.Mux
	store  Store
	bus    Publisher
	auth   *auth.Manager
	logger *slog.Logger
	port   int
}

func NewServer(port int, st Store, pub Publisher, authMgr *auth.Manager, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		store:  st,
		bus:    pub,
		auth:   authMgr,
		logger: logger,
		port:   port,
	}

	router.Get("/health", s.health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.register)
		r.Post("/auth/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(authMgr.Middleware)

			r.Post("/dreams", s.createDream)
			r.Get("/dreams", s.listDreams)
			r.Get("/dreams/{id}", s.getDream)
			r.Put("/dreams/{id}", s.updateDream)
			r.Delete("/dreams/{id}", s.deleteDream)

			r.Get("/dreams/{id}/analysis", s.getAnalysis)
			r.Post("/dreams/{id}/analysis/regenerate", s.regenerateAnalysis)
			r.Post("/analyses/{id}/feedback", s.submitFeedback)

			r.Get("/insights", s.getInsights)
		})
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// pathID parses the {id} route parameter. A malformed UUID reports false after
// writing the 400 response.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
