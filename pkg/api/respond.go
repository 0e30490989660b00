// Package api exposes the HTTP resource handlers and the shared response
// envelope. Every response, success or failure, is the same shape:
//
//	{ "success": bool, "data": ..., "error": "...", "code": "..." }
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/traction-pm/traction/pkg/authz"
	"github.com/traction-pm/traction/pkg/store"
)

// Envelope is the uniform response body.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// WriteData writes a success envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

// WriteMessage writes a success envelope carrying data and a human message.
func WriteMessage(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

// WriteErrorCode writes a failure envelope with a taxonomy code.
func WriteErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Envelope{Success: false, Error: message, Code: code})
}

// WriteForbidden writes a 403 policy failure.
func WriteForbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Insufficient permissions for this module"
	}
	WriteErrorCode(w, http.StatusForbidden, CodeForbidden, message)
}

// WriteMissingFields writes a 400 validation failure.
func WriteMissingFields(w http.ResponseWriter, message string) {
	WriteErrorCode(w, http.StatusBadRequest, CodeMissingFields, message)
}

// WriteInternal logs err in full and returns a generic 500 envelope. The
// error text is never exposed to the client.
func WriteInternal(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)
	WriteErrorCode(w, http.StatusInternalServerError, CodeInternalError, "An unexpected error occurred")
}

// WriteStoreError translates a storage failure into the taxonomy. opCode is
// the operation-class fallback (CREATE_ERROR, UPDATE_ERROR, ...) used when
// the failure is not a recognized constraint or missing-row case.
func WriteStoreError(w http.ResponseWriter, err error, opCode string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteErrorCode(w, http.StatusNotFound, CodeNotFound, "Resource not found")
		return
	case errors.Is(err, authz.ErrProjectNotFound):
		WriteErrorCode(w, http.StatusNotFound, CodeProjectNotFound, "Project not found")
		return
	}

	var cerr *store.ConstraintError
	if errors.As(err, &cerr) {
		switch cerr.Kind {
		case store.ConstraintDuplicate:
			WriteErrorCode(w, http.StatusOK, CodeDuplicateEntry, "A matching entry already exists")
		case store.ConstraintForeignKey:
			WriteErrorCode(w, http.StatusOK, CodeForeignKeyViolation, "Referenced resource does not exist")
		case store.ConstraintNotNull:
			WriteErrorCode(w, http.StatusOK, CodeNotNullViolation, "A required column was missing")
		}
		return
	}

	slog.Error("storage operation failed", "error", err, "code", opCode)
	WriteErrorCode(w, http.StatusOK, opCode, "The operation could not be completed")
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
