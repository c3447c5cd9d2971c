package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the error envelope every endpoint returns:
// {error, hint?, ...context}. Context keys are flattened into the object
// alongside error/hint rather than nested under their own key.
type ErrorResponse struct {
	Error   string
	Hint    string
	Context map[string]interface{}
}

// MarshalJSON flattens Context into the top-level object. error and hint
// always win a key collision.
func (e ErrorResponse) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(e.Context)+2)
	for k, v := range e.Context {
		out[k] = v
	}
	out["error"] = e.Error
	if e.Hint != "" {
		out["hint"] = e.Hint
	}
	return json.Marshal(out)
}

// JSON writes data with the given status code. The status line is already
// flushed if encoding fails, so the failure can only be logged.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("httputil: encode response: %v", err)
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 response with the given data.
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// Error writes the error envelope with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// ErrorWith writes the full envelope: message plus optional hint and
// context keys.
func ErrorWith(w http.ResponseWriter, status int, message, hint string, context map[string]interface{}) {
	JSON(w, status, ErrorResponse{Error: message, Hint: hint, Context: context})
}

// BadRequest writes a 400 error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// NotFound writes a 404 error.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// InternalError writes a 500 error. The real error is logged, never sent
// to the client.
func InternalError(w http.ResponseWriter, err error) {
	log.Printf("httputil: internal error: %v", err)
	Error(w, http.StatusInternalServerError, "internal server error")
}

// Decode reads the JSON request body into dst, answering 400 itself on a
// parse failure. Returns false when the caller should stop.
func Decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
