package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/security"
	"tally/internal/middleware/trace"
)

type UserService interface {
	Register(ctx context.Context, n core.NewUser) (core.User, error)
	Login(ctx context.Context, email, password string) (core.User, error)
	User(ctx context.Context, id int64) (core.User, error)
}

type CategoryService interface {
	List(ctx context.Context, userID int64) ([]core.CategoryWithStats, error)
	Create(ctx context.Context, n core.NewCategory) (core.Category, error)
	Update(ctx context.Context, id, userID int64, u core.CategoryUpdate) (core.Category, error)
	Delete(ctx context.Context, id, userID int64) (int, error)
	SeedDefaults(ctx context.Context, userID int64) ([]core.Category, error)
}

type ExpenseService interface {
	List(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.ExpenseWithCategory, error)
	Get(ctx context.Context, id, userID int64) (core.Expense, error)
	Create(ctx context.Context, n core.NewExpense) (core.Expense, error)
	Update(ctx context.Context, id, userID int64, u core.ExpenseUpdate) (core.Expense, error)
	Delete(ctx context.Context, id, userID int64) error
}

type StatsService interface {
	Stats(ctx context.Context, userID int64) (core.ExpenseStats, error)
}

// Pinger reports whether a dependency is reachable. Used by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the server. Logger, AuthLimiter and Detector are optional.
type Options struct {
	Addr           string
	Users          UserService
	Categories     CategoryService
	Expenses       ExpenseService
	Stats          StatsService
	Sessions       *SessionManager
	Readiness      Pinger
	Logger         *log.Logger
	AllowedOrigins []string
	AuthLimiter    *ratelimit.Limiter
	Detector       *security.Detector
}

type Server struct {
	http.Server

	users      UserService
	categories CategoryService
	expenses   ExpenseService
	stats      StatsService
	sessions   *SessionManager
	readiness  Pinger
	logger     *log.Logger

	allowedOrigins []string
	authLimiter    *ratelimit.Limiter
	detector       *security.Detector
	started        time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(opts Options) *Server {
	s := &Server{
		users:          opts.Users,
		categories:     opts.Categories,
		expenses:       opts.Expenses,
		stats:          opts.Stats,
		sessions:       opts.Sessions,
		readiness:      opts.Readiness,
		logger:         opts.Logger,
		allowedOrigins: opts.AllowedOrigins,
		authLimiter:    opts.AuthLimiter,
		detector:       opts.Detector,
		started:        time.Now(),
	}
	if s.logger == nil {
		s.logger = log.FromContext(context.Background())
	}
	if s.detector == nil {
		s.detector = security.NewDetector()
	}

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{trace.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, msgRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.authLimiter != nil {
				r.Use(s.authLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited))
			}
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)

			r.Get("/categories", s.handleListCategories)
			r.Post("/categories", s.handleCreateCategory)
			r.Post("/categories/default", s.handleSeedDefaultCategories)
			r.Put("/categories/{id}", s.handleUpdateCategory)
			r.Delete("/categories/{id}", s.handleDeleteCategory)

			r.Get("/expenses", s.handleListExpenses)
			r.Post("/expenses", s.handleCreateExpense)
			r.Get("/expenses/{id}", s.handleGetExpense)
			r.Put("/expenses/{id}", s.handleUpdateExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)

			r.Get("/stats", s.handleStats)
		})
	})

	return r
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	writeMessage(w, http.StatusTooManyRequests, msgTooManyRequests)
}
