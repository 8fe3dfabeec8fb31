package api

import (
	"time"

	"github.com/Project-Sylos/Sitemap/internal/api/handlers"
	apimiddleware "github.com/Project-Sylos/Sitemap/internal/api/middleware"
	xlog "github.com/Project-Sylos/Sitemap/internal/log"
	"github.com/Project-Sylos/Sitemap/internal/metrics"
	"github.com/Project-Sylos/Sitemap/internal/telemetry"
	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/Project-Sylos/Sitemap/sdk"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// requestTimeout bounds every request except artifact transfers
const requestTimeout = 60 * time.Second

// Router represents the HTTP API router
type Router struct {
	sm      *sdk.Sitemap
	config  types.APIConfig
	version string
}

// NewRouter creates a new API router
func NewRouter(sm *sdk.Sitemap, config types.APIConfig, version string) *Router {
	return &Router{sm: sm, config: config, version: version}
}

// SetupRoutes configures all API routes using modular handlers
func (r *Router) SetupRoutes() *chi.Mux {
	router := chi.NewRouter()

	// Standard middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(xlog.Middleware())
	router.Use(middleware.Recoverer)
	router.Use(apimiddleware.OTelHTTP(telemetry.ServiceName))
	router.Use(metrics.Middleware())

	// Custom middleware
	router.Use(apimiddleware.CORS(r.config.AllowedOrigins))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(r.sm, r.version)
	projectHandler := handlers.NewProjectHandler(r.sm)
	itemHandler := handlers.NewItemHandler(r.sm, r.config.MaxUploadBytes)
	markerHandler := handlers.NewMarkerHandler(r.sm)
	flowHandler := handlers.NewFlowHandler(r.sm)
	systemHandler := handlers.NewSystemHandler(r.sm, r.version)

	// Health check and metrics
	router.Get("/health", healthHandler.HealthCheck)
	router.Handle("/metrics", metrics.Handler())

	// API routes
	router.Route("/api", func(api chi.Router) {
		api.Use(apimiddleware.APIRateLimit(r.config.RateLimit))

		// Artifact transfers may outlast the request timeout
		api.Route("/items/{id}/artifact", func(artifact chi.Router) {
			artifact.Put("/", itemHandler.UploadArtifact)
			artifact.Get("/", itemHandler.GetArtifact)
		})

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(requestTimeout))

			api.Route("/projects", func(projects chi.Router) {
				projects.Get("/", projectHandler.ListProjects)
				projects.Post("/", projectHandler.CreateProject)
				projects.Get("/{id}", projectHandler.GetProject)
				projects.Patch("/{id}", projectHandler.UpdateProject)
				projects.Delete("/{id}", projectHandler.DeleteProject)
				projects.Get("/{id}/items", projectHandler.GetItems)
				projects.Post("/{id}/items", projectHandler.CreateItem)
			})

			api.Route("/items/{id}", func(items chi.Router) {
				items.Get("/", itemHandler.GetItem)
				items.Patch("/", itemHandler.UpdateItem)
				items.Delete("/", itemHandler.DeleteItem)
				items.Post("/move", itemHandler.MoveItem)
				items.Post("/toggle", itemHandler.ToggleItem)
				items.Get("/markers", markerHandler.ListMarkers)
				items.Post("/markers", markerHandler.CreateMarker)
			})

			api.Route("/markers/{id}", func(markers chi.Router) {
				markers.Get("/", markerHandler.GetMarker)
				markers.Patch("/", markerHandler.UpdateMarker)
				markers.Delete("/", markerHandler.DeleteMarker)
				markers.Get("/history", markerHandler.ListHistory)
				markers.Post("/history", markerHandler.AddComment)
			})

			api.Route("/flows/{id}", func(flows chi.Router) {
				flows.Get("/", flowHandler.GetFlow)
				flows.Get("/nodes", flowHandler.ListNodes)
				flows.Post("/nodes", flowHandler.AddNode)
				flows.Get("/edges", flowHandler.ListEdges)
				flows.Post("/edges", flowHandler.AddEdge)
				flows.Post("/save", flowHandler.SaveFlow)
			})

			// System operations
			api.Route("/system", func(system chi.Router) {
				system.Get("/stats", systemHandler.GetStats)
				system.Get("/config", systemHandler.GetConfig)
				system.Post("/reset", systemHandler.Reset)
				system.Post("/seed", systemHandler.Seed)
			})
			api.Get("/openapi.json", systemHandler.OpenAPI)
		})
	})

	return router
}
