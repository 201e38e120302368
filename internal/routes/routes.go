package routes

import (
	"net/http"

	"nuttally/internal/config"
	"nuttally/internal/handlers"
	"nuttally/internal/logger"
	"nuttally/internal/middleware"
	"nuttally/internal/services"
)

// Status describes the modes the service was started in, for /health.
type Status struct {
	InferenceLive bool
	StoreState    string
}

// SetupRoutes registers the API and log endpoints and wraps the mux
// with CORS and request logging.
func SetupRoutes(manager *services.Manager, cfg *config.Config, logger *logger.Logger, status Status) http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/analyze", handlers.AnalyzeHandler(manager, cfg, logger))
	mux.HandleFunc("/api/live", handlers.LiveWebsocketHandler(manager.GetWebsocketService(), logger))
	mux.HandleFunc("/api/submissions", handlers.ListSubmissionsHandler(manager.GetLedger(), manager.Classes(), logger))
	mux.HandleFunc("/api/submissions/get", handlers.GetSubmissionHandler(manager.GetLedger(), logger))
	mux.HandleFunc("/api/submissions/stats", handlers.StatsHandler(manager.GetLedger(), logger))
	mux.HandleFunc("/api/submissions/clear", handlers.ClearSubmissionsHandler(manager.GetLedger(), logger))
	mux.HandleFunc("/health", handlers.HealthHandler(status.InferenceLive, status.StoreState))

	// Log endpoints
	mux.HandleFunc("/logs", handlers.ShowLogsHandler(logger))
	mux.HandleFunc("/logs/clear", handlers.ClearLogsHandler(logger))

	mux.HandleFunc("/", handlers.NotFoundHandler)

	return middleware.CORS(middleware.RequestLogger(logger)(mux))
}
