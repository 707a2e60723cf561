// Package httpx holds the JSON and problem-details helpers shared by every domain handler.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	ProblemTypeValidation   = "https://pagebot.dev/problems/validation-error"
	ProblemTypeNotFound     = "https://pagebot.dev/problems/not-found"
	ProblemTypeConflict     = "https://pagebot.dev/problems/conflict"
	ProblemTypeUnauthorized = "https://pagebot.dev/problems/unauthorized"
	ProblemTypeRateLimited  = "https://pagebot.dev/problems/rate-limited"
	ProblemTypeInternal     = "https://pagebot.dev/problems/internal-error"
)

// maxBodyBytes caps decoded request bodies.
const maxBodyBytes = 1 << 20

// ProblemDetails is the RFC 7807 body returned for every error response.
type ProblemDetails struct {
	Type   string              `json:"type,omitempty"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// MutationResult is the body returned by create/update/delete operations.
type MutationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}

// ErrInvalidBody is returned by DecodeJSON when the payload is not valid JSON.
var ErrInvalidBody = errors.New("invalid request body")

// NewProblem builds a problem body, deep-copying field errors.
func NewProblem(status int, problemType, title, detail string, fieldErrors map[string][]string) ProblemDetails {
	problem := ProblemDetails{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
	}

	if len(fieldErrors) > 0 {
		problem.Errors = make(map[string][]string, len(fieldErrors))
		for field, messages := range fieldErrors {
			problem.Errors[field] = append([]string(nil), messages...)
		}
	}
	return problem
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteProblem writes an application/problem+json response.
func WriteProblem(w http.ResponseWriter, problem ProblemDetails) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}

// WriteSuccess writes a 200 MutationResult.
func WriteSuccess(w http.ResponseWriter, message, id string) {
	WriteJSON(w, http.StatusOK, MutationResult{Success: true, Message: message, ID: id})
}

// Unauthorized writes a 401 problem.
func Unauthorized(w http.ResponseWriter, detail string) {
	WriteProblem(w, NewProblem(http.StatusUnauthorized, ProblemTypeUnauthorized, "Unauthorized", detail, nil))
}

// DecodeJSON decodes the request body into dst. Unknown fields are tolerated.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrInvalidBody
	}

	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}
