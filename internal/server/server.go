package server

import (
	"log/slog"
	"net/http"

	"swiggy-dashboard/internal/handlers"
	"swiggy-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
	Metrics   http.Handler
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	if templateHandlers.Metrics != nil {
		s.mux.Handle("GET /metrics", templateHandlers.Metrics)
	}

	// REST API endpoints
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/monthly-sales", s.apiHandlers.HandleMonthlySales)
	s.mux.HandleFunc("GET /api/daily-sales", s.apiHandlers.HandleDailySales)
	s.mux.HandleFunc("GET /api/weekly-sales", s.apiHandlers.HandleWeeklySales)
	s.mux.HandleFunc("GET /api/food-type-trend", s.apiHandlers.HandleFoodTypeTrend)
	s.mux.HandleFunc("GET /api/state-sales", s.apiHandlers.HandleStateSales)
	s.mux.HandleFunc("GET /api/top-cities", s.apiHandlers.HandleTopCities)
	s.mux.HandleFunc("GET /api/quarterly", s.apiHandlers.HandleQuarterly)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/summary", s.sseHandlers.HandleSummary)
	s.mux.HandleFunc("GET /sse/monthly-sales", s.sseHandlers.HandleMonthlySales)
	s.mux.HandleFunc("GET /sse/weekly-sales", s.sseHandlers.HandleWeeklySales)
	s.mux.HandleFunc("GET /sse/food-type-trend", s.sseHandlers.HandleFoodTypeTrend)
	s.mux.HandleFunc("GET /sse/state-sales", s.sseHandlers.HandleStateSales)
	s.mux.HandleFunc("GET /sse/top-cities", s.sseHandlers.HandleTopCities)
	s.mux.HandleFunc("GET /sse/quarterly", s.sseHandlers.HandleQuarterly)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
