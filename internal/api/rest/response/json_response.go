package response

import (
	"encoding/json"
	"net/http"
)

// SuccessBody acknowledges a completed write.
type SuccessBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorBody carries a client-facing error message.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSONResponse writes the given data as a JSON response with the specified status code.
func JSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// JSONErrorResponse writes an error message as a JSON response with the specified status code.
func JSONErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, ErrorBody{Error: message})
}

// JSONSuccessResponse writes a 200 acknowledgment with the given message.
func JSONSuccessResponse(w http.ResponseWriter, message string) {
	JSONResponse(w, http.StatusOK, SuccessBody{Success: true, Message: message})
}
