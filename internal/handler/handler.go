package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"prestalab/portal/internal/model"
	"prestalab/portal/internal/service"
	"prestalab/portal/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
)

// Services are the feature facades the pages call.
type Services struct {
	Auth          *service.AuthService
	Catalog       *service.CatalogService
	Waitlist      *service.WaitlistService
	Fines         *service.FineService
	Notifications *service.NotificationService
	Profile       *service.ProfileService
	Suggestions   *service.SuggestionService
	Reports       *service.ReportService
	Admin         *service.AdminService
}

type Options struct {
	// CSRFKey enables form protection when set; it must be 32 bytes.
	CSRFKey       []byte
	SecureCookies bool
	Sedes         []model.Sede
	PageSize      int
}

type Handler struct {
	router   *chi.Mux
	svc      Services
	sessions *session.Store
	opts     Options
	pages    map[string]*template.Template
}

func NewHandler(svc Services, sessions *session.Store, opts Options) *Handler {
	if opts.PageSize <= 0 {
		opts.PageSize = 24
	}
	// templates are embedded, so a parse failure is a build defect
	pages, err := parsePages()
	if err != nil {
		panic(err)
	}
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	if len(opts.CSRFKey) > 0 {
		router.Use(csrf.Protect(opts.CSRFKey,
			csrf.Secure(opts.SecureCookies),
			csrf.Path("/"),
			csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
		))
	} else {
		slog.Warn("csrf_disabled", "reason", "CSRF_KEY not set")
	}

	h := &Handler{
		router:   router,
		svc:      svc,
		sessions: sessions,
		opts:     opts,
		pages:    pages,
	}

	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	h.router.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)
	})

	h.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	h.router.Get("/login", h.LoginPage)
	h.router.Post("/login", h.Login)
	h.router.Get("/signup", h.SignupPage)
	h.router.Post("/signup", h.Signup)
	h.router.Post("/logout", h.Logout)

	h.router.Group(func(r chi.Router) {
		r.Use(h.sessions.RequireAuth)

		r.Get("/dashboard", h.Dashboard)

		r.Get("/catalog", h.Catalog)
		r.Post("/catalog/request", h.RequestItem)

		r.Get("/requests", h.Requests)
		r.Post("/requests/{id}/status", h.DecideRequest)

		r.Get("/loans", h.Loans)
		r.Post("/loans/{id}/{action}", h.LoanAction)

		r.Get("/waitlist", h.Waitlist)
		r.Post("/waitlist/join", h.JoinWaitlist)
		r.Post("/waitlist/leave", h.LeaveWaitlist)

		r.Get("/fines", h.Fines)
		r.Get("/notifications", h.Notifications)

		r.Get("/profile", h.Profile)
		r.Post("/profile", h.SaveProfile)

		r.Get("/suggestions", h.Suggestions)
		r.Post("/suggestions", h.SubmitSuggestion)
		r.Post("/suggestions/{id}/{decision}", h.DecideSuggestion)

		r.Get("/reports", h.Reports)
		r.Get("/reports/history.csv", h.HistoryCSV)

		r.Route("/admin", func(r chi.Router) {
			r.Use(session.RequireAdmin)
			r.Get("/", h.Admin)
			r.Post("/users/{id}/status", h.SetUserStatus)
			r.Post("/solicitudes/{id}/status", h.AdminDecideRequest)
		})
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func csrfFailure(w http.ResponseWriter, r *http.Request) {
	slog.Warn("csrf_rejected", "path", r.URL.Path, "reason", csrf.FailureReason(r))
	http.Error(w, "Formulario expirado. Recarga la página e inténtalo de nuevo.", http.StatusForbidden)
}
