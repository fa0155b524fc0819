// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"net/http"
)

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(data)
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func Success(w http.ResponseWriter, message string) {
	OK(w, MessageResponse{Success: true, Message: message})
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// JSONError writes err as {"error": message}. Anything that is not an
// AppError is reported as a generic 500 so causes never reach the client.
func JSONError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		Error(w, appErr.StatusCode, appErr.Message)
		return
	}

	Error(w, http.StatusInternalServerError, "Internal server error")
}
