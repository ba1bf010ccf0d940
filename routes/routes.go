package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/learnhub/app"
	"github.com/upb/learnhub/handlers"
	"github.com/upb/learnhub/internal/observability"
	"github.com/upb/learnhub/models"
	"github.com/upb/learnhub/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if deps.Config.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(deps.Config.Server.RequestTimeout))
	}
	r.Use(observability.HTTPMetricsMiddleware(deps.Metrics))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{deps.Config.CORS.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(deps.DB.DB, deps.Config.Environment, deps.Logger)
	authHandler := handlers.NewAuthHandler(deps.Credentials, deps.Tokens, deps.Gate, deps.Metrics, deps.Logger)
	operators := handlers.NewOperatorHandler(deps.Credentials, deps.Logger)
	content := handlers.NewContentHandler(deps.Content, deps.Metrics, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", observability.Handler(deps.Registry))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", health.HandleStatus)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Get("/verify", authHandler.HandleVerify)
			r.With(deps.Gate.RequireAuth).Put("/password", authHandler.HandleChangePassword)
		})

		// Reads for any authenticated operator
		r.Group(func(r chi.Router) {
			r.Use(deps.Gate.RequireAuth)

			r.Get("/categories", content.HandleListCategories)
			r.Get("/categories/{id}", content.HandleGetCategory)

			r.Get("/sites", content.HandleListSites)
			r.Get("/sites/category/{categoryId}", content.HandleListSites)
			r.Get("/sites/{id}", content.HandleGetSite)

			r.Get("/lessons", content.HandleListLessons)
			r.Get("/lessons/site/{siteId}", content.HandleListLessons)
			r.Get("/lessons/{id}", content.HandleGetLesson)
		})

		// Administration requires the ADMINISTRATOR role, re-read per request
		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.Gate.RequireRole(models.RoleAdministrator))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", operators.HandleList)
				r.Post("/", operators.HandleCreate)
				r.Get("/{id}", operators.HandleGet)
				r.Put("/{id}", operators.HandleUpdate)
				r.Delete("/{id}", operators.HandleDelete)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", content.HandleListCategories)
				r.Post("/", content.HandleCreateCategory)
				r.Get("/{id}", content.HandleGetCategory)
				r.Put("/{id}", content.HandleUpdateCategory)
				r.Delete("/{id}", content.HandleDeleteCategory)
			})

			r.Route("/sites", func(r chi.Router) {
				r.Get("/", content.HandleListSites)
				r.Post("/", content.HandleCreateSite)
				r.Get("/{id}", content.HandleGetSite)
				r.Put("/{id}", content.HandleUpdateSite)
				r.Delete("/{id}", content.HandleDeleteSite)
			})

			r.Route("/lessons", func(r chi.Router) {
				r.Get("/", content.HandleListLessons)
				r.Post("/", content.HandleCreateLesson)
				r.Get("/{id}", content.HandleGetLesson)
				r.Put("/{id}", content.HandleUpdateLesson)
				r.Delete("/{id}", content.HandleDeleteLesson)
			})
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
