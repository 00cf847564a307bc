package middleware

import (
	"encoding/json"
	"net/http"
)

const (
	detailNotAuthenticated = "Not authenticated"
	detailTooManyRequests  = "Too many requests"
	detailUnavailable      = "Service unavailable"
	detailInternal         = "Internal server error"
)

type errorBody struct {
	Detail string `json:"detail"`
}

func writeUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detailNotAuthenticated)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Detail: detail})
}
