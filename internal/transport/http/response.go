package http

import (
	"encoding/json"
	"net/http"
)

// statusResponse is the envelope of the write endpoints.
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// errorResponse is the envelope of read endpoint failures.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: message})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, statusResponse{Success: false, Message: message})
}

func writeFailureDetail(w http.ResponseWriter, status int, message string, err error) {
	writeJSON(w, status, statusResponse{Success: false, Message: message, Error: err.Error()})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeErrorDetail(w http.ResponseWriter, status int, message string, err error) {
	writeJSON(w, status, errorResponse{Error: message, Details: err.Error()})
}

// notFound answers every unmatched request, method mismatches included.
func notFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("Not found"))
}
