package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"nuttally/internal/logger"
)

// ShowLogsHandler serves the log file of the "level" query parameter (default info).
func ShowLogsHandler(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, ok := logFileName(r)
		if !ok {
			http.Error(w, "Unknown log level", http.StatusBadRequest)
			return
		}
		if log.Dir() == "" {
			http.Error(w, "File logging disabled", http.StatusNotFound)
			return
		}

		filePath := filepath.Join(log.Dir(), name)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.Error(w, "Log file not found: "+name, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, filePath)
	}
}

// ClearLogsHandler truncates the log file of the "level" query parameter.
func ClearLogsHandler(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		level := r.URL.Query().Get("level")
		if err := log.CleanLogs(level); err != nil {
			log.Error("Failed to clear %s logs: %v", level, err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func logFileName(r *http.Request) (string, bool) {
	level := r.URL.Query().Get("level")
	if level == "" {
		level = "info"
	}
	name, ok := logger.Levels[level]
	return name, ok
}
