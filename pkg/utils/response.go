package utils

import (
	"net/http"

	"github.com/goccy/go-json"
)

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteRejection reports a business-rule rejection with its stable code so
// the dashboard can map it to a localized message.
func WriteRejection(w http.ResponseWriter, code string) {
	WriteJSON(w, http.StatusConflict, map[string]string{
		"error": "order update rejected",
		"code":  code,
	})
}
