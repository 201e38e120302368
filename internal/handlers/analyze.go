package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"nuttally/internal/config"
	"nuttally/internal/logger"
	"nuttally/internal/model"
	"nuttally/internal/services/inference"
)

// Analyzer is the part of services.Manager the analyze endpoint needs.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, filename string) (*model.Submission, error)
}

// AnalyzeResponse is returned on completion, whether or not the row was stored.
type AnalyzeResponse struct {
	ID          string              `json:"id"`
	Status      model.OutcomeStatus `json:"status"`
	Message     string              `json:"message"`
	Row         []interface{}       `json:"row"`
	ClassCounts map[string]int      `json:"classCounts"`
	Total       int                 `json:"total"`
	Diagnostics []string            `json:"diagnostics,omitempty"`
}

// AnalyzeHandler accepts a multipart upload ("file", optional "name") and
// returns its tally. Only inference failures produce a 500.
func AnalyzeHandler(analyzer Analyzer, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadSize)
		if err := r.ParseMultipartForm(cfg.MaxUploadSize); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondError(w, "Image too large", http.StatusRequestEntityTooLarge)
				return
			}
			respondError(w, "No image provided", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			respondError(w, "No image provided", http.StatusBadRequest)
			return
		}
		defer file.Close()

		image, err := io.ReadAll(file)
		if err != nil {
			logger.Error("Failed to read upload: %v", err)
			respondError(w, "Failed to read image", http.StatusBadRequest)
			return
		}
		if len(image) == 0 {
			respondError(w, "No image provided", http.StatusBadRequest)
			return
		}

		name := submissionName(r.FormValue("name"), header.Filename)

		submission, err := analyzer.Analyze(r.Context(), image, name)
		if err != nil {
			if !inference.IsInferenceError(err) {
				logger.Error("Analysis of %s failed: %v", name, err)
			}
			respondError(w, fmt.Sprintf("Detection failed: %v", err), http.StatusInternalServerError)
			return
		}

		respondJSON(w, AnalyzeResponse{
			ID:          submission.ID,
			Status:      submission.Outcome.Status,
			Message:     submission.Outcome.Message(),
			Row:         submission.Row.Values(),
			ClassCounts: submission.ClassCounts,
			Total:       submission.Row.Total,
			Diagnostics: submission.Diagnostics,
		}, http.StatusOK)
	}
}

// submissionName prefers the display name and falls back to the upload's base name.
func submissionName(displayName, uploadName string) string {
	if strings.TrimSpace(displayName) != "" {
		return displayName
	}
	if uploadName != "" {
		return filepath.Base(uploadName)
	}
	return "upload"
}
