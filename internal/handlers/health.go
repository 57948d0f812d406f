package handlers

import "net/http"

// Health handles GET /health, used by monitoring and the Docker healthcheck.
func Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "Calculator API is running",
	})
}
