package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/CameronXie/prosthesis-orders/internal/api/rest/handlers"
	"github.com/CameronXie/prosthesis-orders/internal/api/rest/middlewares"
	"github.com/CameronXie/prosthesis-orders/internal/api/rest/response"
)

const corsMaxAge = 300

type RouterConfig struct {
	Collection          string
	OrderHandler        *handlers.OrderHandler
	AllowedOrigins      []string
	RequestLogger       middlewares.Middleware
	RecovererMiddleware middlewares.Middleware
}

// NewRouter initializes a chi router mounting the order collection under /api/{collection}.
func NewRouter(cfg *RouterConfig) http.Handler {
	router := chi.NewRouter()

	router.Use(
		middleware.RequestID,
		cfg.RequestLogger.Handle,
		cfg.RecovererMiddleware.Handle,
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         corsMaxAge,
		}),
	)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.JSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	router.Route("/api/"+cfg.Collection, func(r chi.Router) {
		r.Get("/", cfg.OrderHandler.ListOrders)
		r.Post("/", cfg.OrderHandler.CreateOrder)
		r.Post("/bulk-update", cfg.OrderHandler.BulkUpdateOrders)
		r.Put("/{id}", cfg.OrderHandler.UpdateOrder)
		r.Delete("/{id}", cfg.OrderHandler.DeleteOrder)
	})

	return router
}
