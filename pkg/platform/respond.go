package platform

import (
	"encoding/json"
	"net/http"
)

type successResponse struct {
	Data interface{} `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RespondSuccess writes data wrapped in a {"data": ...} envelope.
func RespondSuccess(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, successResponse{Data: data})
}

func RespondCreated(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusCreated, successResponse{Data: data})
}

func RespondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, errorResponse{Error: message})
}

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
