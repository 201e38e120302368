package handlers

import (
	"net/http"
	"strconv"

	"nuttally/internal/logger"
	"nuttally/internal/model"
	"nuttally/internal/repository"
)

// SubmissionsData is a paginated listing of the ledger.
type SubmissionsData struct {
	Submissions []model.Submission `json:"submissions"`
	Classes     []string           `json:"classes"`
	Total       int                `json:"total"`
	Limit       int                `json:"limit"`
	Offset      int                `json:"offset"`
}

// ListSubmissionsHandler lists recorded submissions newest first.
// Query: limit, offset, status.
func ListSubmissionsHandler(ledger repository.SubmissionRepository, classes []string, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		q := r.URL.Query()
		limit := atoiDefault(q.Get("limit"), 25)
		offset, err := strconv.Atoi(q.Get("offset"))
		if err != nil || offset < 0 {
			offset = 0
		}
		filter := &model.SubmissionFilter{
			Status: model.OutcomeStatus(q.Get("status")),
			Limit:  limit,
			Offset: offset,
		}

		total, err := ledger.GetTotalCount(filter)
		if err != nil {
			logger.Error("Failed to count submissions: %v", err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		submissions, err := ledger.GetAll(filter)
		if err != nil {
			logger.Error("Failed to list submissions: %v", err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if submissions == nil {
			submissions = []model.Submission{}
		}

		respondJSON(w, SubmissionsData{
			Submissions: submissions,
			Classes:     classes,
			Total:       total,
			Limit:       limit,
			Offset:      offset,
		}, http.StatusOK)
	}
}

// GetSubmissionHandler returns one submission by the "id" query parameter.
func GetSubmissionHandler(ledger repository.SubmissionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			respondError(w, "id parameter is required", http.StatusBadRequest)
			return
		}

		submission, err := ledger.GetByID(id)
		if err != nil {
			logger.Error("Failed to load submission %s: %v", id, err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if submission == nil {
			respondError(w, "Submission not found", http.StatusNotFound)
			return
		}
		respondJSON(w, submission, http.StatusOK)
	}
}

// StatsHandler returns totals per class and per outcome status.
func StatsHandler(ledger repository.SubmissionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := ledger.GetStats()
		if err != nil {
			logger.Error("Failed to compute stats: %v", err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		respondJSON(w, stats, http.StatusOK)
	}
}

// ClearSubmissionsHandler empties the local ledger. The sheet is untouched.
func ClearSubmissionsHandler(ledger repository.SubmissionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := ledger.DeleteAll(); err != nil {
			logger.Error("Failed to clear ledger: %v", err)
			respondError(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		logger.Info("Submission ledger cleared")
		w.WriteHeader(http.StatusNoContent)
	}
}

// atoiDefault parses a positive integer, returning def otherwise.
func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
