package api

import (
	"context"
	"net/http"

	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matiasleandrokruk/nutrisense/internal/api/handlers"
	"github.com/matiasleandrokruk/nutrisense/internal/api/mcptools"
	apmiddleware "github.com/matiasleandrokruk/nutrisense/internal/api/middleware"
	"github.com/matiasleandrokruk/nutrisense/internal/domain/nutrition"
	"github.com/matiasleandrokruk/nutrisense/internal/infra/metrics"
	"github.com/matiasleandrokruk/nutrisense/internal/version"
)

// Service is everything the HTTP and MCP surfaces call into.
// nutrition.Resolver satisfies it.
type Service interface {
	ResolveFood(ctx context.Context, q nutrition.FoodQuery) (nutrition.FoodResolution, error)
	AnalyzeImage(ctx context.Context, q nutrition.ImageQuery) (nutrition.ImageResolution, error)
	Chat(ctx context.Context, q nutrition.ChatQuery) (nutrition.ChatReply, error)
	Compare(ctx context.Context, first, second string, weightGrams float64) (nutrition.Comparison, error)
}

// Deps are the collaborators of the router. Service is required; the rest
// may be zero.
type Deps struct {
	Service      Service
	Health       handlers.HealthChecker
	Metrics      *metrics.Metrics
	Logger       log.Interface
	MaxBodyBytes int64
}

// NewRouter creates and configures a new chi router with all routes.
func NewRouter(deps Deps) (*chi.Mux, error) {
	if deps.Service == nil {
		return nil, ErrMissingService
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Log
	}
	var observer apmiddleware.RequestObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}

	r := chi.NewRouter()

	// Global middleware (runs on all routes, matched or not)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apmiddleware.AccessLog(logger, observer))
	r.Use(apmiddleware.Recover(logger))
	r.Use(apmiddleware.CORS(handlers.HeaderSource))

	// ===== OPERATIONAL =====

	healthHandler := handlers.NewHealthHandler(deps.Health, version.Get(), logger)
	r.Get("/health", healthHandler.Live)        // GET /health
	r.Get("/health/ready", healthHandler.Ready) // GET /health/ready
	r.Get("/version", healthHandler.Version)    // GET /version
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler()) // GET /metrics
	}

	// ===== NUTRITION API =====

	nutritionHandler := handlers.NewNutritionHandler(deps.Service, deps.MaxBodyBytes)
	compareHandler := handlers.NewCompareHandler(deps.Service, deps.MaxBodyBytes)
	bmiHandler := handlers.NewBMIHandler(deps.MaxBodyBytes)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/nutrition", nutritionHandler.Resolve) // POST /api/v1/nutrition
		r.Post("/compare", compareHandler.Compare)     // POST /api/v1/compare
		r.Get("/bmi", bmiHandler.Query)                // GET /api/v1/bmi
		r.Post("/bmi", bmiHandler.Compute)             // POST /api/v1/bmi
	})

	// Path of the original serverless function, kept for existing clients.
	r.Post("/nutrition-ai", nutritionHandler.Resolve) // POST /nutrition-ai

	// ===== MCP =====

	r.Handle("/mcp", mcptools.NewHandler(mcptools.NewServer(deps.Service, version.Version)))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	return r, nil
}
