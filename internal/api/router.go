package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cleancity/cleancity-be/internal/api/handlers"
	"github.com/cleancity/cleancity-be/internal/auth"
	"github.com/cleancity/cleancity-be/internal/metrics"
	"github.com/cleancity/cleancity-be/internal/services"
	"github.com/cleancity/cleancity-be/internal/storage"
	"github.com/cleancity/cleancity-be/internal/trace"
	ws "github.com/cleancity/cleancity-be/internal/websocket"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	UserService   services.UserServiceProvider
	ReportService services.ReportServiceProvider
	EventService  services.EventServiceProvider
	BlobStore     storage.Store
	TokenService  *auth.TokenService
	Hub           *ws.Hub
	Metrics       *metrics.Metrics
	CORSOrigins   []string
	UploadTimeout time.Duration
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(trace.Middleware)
	r.Use(deps.Metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(deps.UserService, deps.TokenService)
	reportHandler := handlers.NewReportHandler(deps.ReportService, deps.Metrics)
	uploadHandler := handlers.NewUploadHandler(deps.BlobStore, deps.Metrics)
	eventHandler := handlers.NewEventHandler(deps.EventService)
	systemHandler := handlers.NewSystemHandler()
	wsHandler := handlers.NewWebSocketHandler(deps.Hub)

	requireAuth := deps.TokenService.RequireAuth

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", systemHandler.Health)
		r.With(requireAuth, auth.RequireAdmin).Get("/system", systemHandler.System)
		r.With(requireAuth, auth.RequireAdmin).Get("/events", eventHandler.GetRecent)

		// Live report event feed
		r.Get("/ws", wsHandler.Serve)
		r.Get("/ws/reports/{id}", wsHandler.Serve)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(requireAuth).Get("/me", authHandler.GetMe)
		})

		r.Route("/reports", func(r chi.Router) {
			// Public routes
			r.Get("/", reportHandler.GetAll)

			// Protected routes - require authentication
			r.With(requireAuth).Post("/", reportHandler.Create)
			r.With(requireAuth).Get("/my/reports", reportHandler.GetMine)

			// Admin only routes
			r.With(requireAuth, auth.RequireAdmin).Get("/admin/stats", reportHandler.GetStats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", reportHandler.Get)
				r.With(requireAuth, auth.RequireAdmin).Put("/", reportHandler.Update)
				r.With(requireAuth).Delete("/", reportHandler.Delete)
			})
		})

		r.Route("/upload", func(r chi.Router) {
			// Uploads stream to the blob store; give them their own timeout.
			r.With(requireAuth, middleware.Timeout(deps.UploadTimeout)).Post("/", uploadHandler.Upload)
			r.Get("/{id}", uploadHandler.Download)
		})
	})

	return r
}
