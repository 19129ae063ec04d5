package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/models"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{
		Error:     message,
		Timestamp: time.Now().UTC(),
	})
}
