package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	cmdbus "mindweave/application/commands/bus"
	querybus "mindweave/application/queries/bus"
	"mindweave/interfaces/http/rest/handlers"
	"mindweave/interfaces/http/rest/middleware"
	"mindweave/pkg/auth"
)

// Router creates and configures the HTTP router
type Router struct {
	commandBus *cmdbus.CommandBus
	queryBus   *querybus.QueryBus
	validator  *auth.JWTValidator
	enableCORS bool
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *cmdbus.CommandBus,
	queryBus *querybus.QueryBus,
	validator *auth.JWTValidator,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		validator:  validator,
		enableCORS: enableCORS,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.logger))

		graphHandler := handlers.NewGraphHandler(rt.commandBus, rt.queryBus, rt.logger)
		instanceHandler := handlers.NewInstanceHandler(rt.commandBus, rt.queryBus, rt.logger)
		nodeHandler := handlers.NewNodeHandler(rt.commandBus, rt.queryBus, rt.logger)

		r.Route("/graphs", func(r chi.Router) {
			r.Get("/", graphHandler.ListGraphs)
			r.Get("/default", graphHandler.GetDefaultGraph)

			r.Route("/{graphID}", func(r chi.Router) {
				r.Get("/", graphHandler.GetGraph)
				r.Get("/export", graphHandler.ExportGraph)
				r.Post("/import", graphHandler.ImportGraph)
				r.Post("/undo", graphHandler.Undo)
				r.Post("/redo", graphHandler.Redo)

				r.Post("/roots", instanceHandler.CreateRoot)

				r.Route("/instances/{instanceID}", func(r chi.Router) {
					r.Post("/children", instanceHandler.CreateChild)
					r.Post("/siblings", instanceHandler.CreateSibling)
					r.Delete("/", instanceHandler.DeleteInstance)
					r.Post("/collapse", instanceHandler.ToggleCollapse)
					r.Put("/order", instanceHandler.Reorder)
					r.Put("/parent", instanceHandler.Reparent)
					r.Put("/focus", instanceHandler.SetFocus)
				})

				r.Route("/nodes/{nodeID}", func(r chi.Router) {
					r.Put("/title", nodeHandler.Rename)
					r.Put("/link", nodeHandler.Link)
				})
			})
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
