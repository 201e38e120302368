package handlers

import "net/http"

// HealthHandler reports which modes the service runs in. storeState is one of
// the sheets.State* values.
func HealthHandler(inferenceLive bool, storeState string) http.HandlerFunc {
	inference := "placeholder"
	if inferenceLive {
		inference = "live"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]string{
			"status":    "ok",
			"inference": inference,
			"store":     storeState,
		}, http.StatusOK)
	}
}

// NotFoundHandler answers every unknown path with a JSON 404.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	respondError(w, "Not found", http.StatusNotFound)
}
