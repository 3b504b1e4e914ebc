// Package httpx provides HTTP response utilities for the JSON API surface.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Envelope is the uniform response body for successful operations.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Problem is the uniform response body for failures.
type Problem struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends a 200 envelope.
func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created sends a 201 envelope.
func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Fail sends a failure body with an explicit status and code.
func Fail(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, Problem{Message: message, Code: code})
}

// FailFields sends a 400 validation failure with per-field detail.
func FailFields(w http.ResponseWriter, message string, fields map[string]string) {
	JSON(w, http.StatusBadRequest, Problem{Message: message, Code: CodeValidation, Fields: fields})
}

// DecodeJSON decodes a JSON request body into the target struct. Unknown
// fields are tolerated; malformed bodies surface as a validation error.
func DecodeJSON(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return errors.Join(errDecode, err)
	}
	return nil
}

var errDecode = errors.New("malformed request body")
