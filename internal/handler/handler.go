// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/notes/tarefas/internal/handler/dto"
)

// Error codes shared by all handlers.
const (
	CodeInvalidID        = "INVALID_ID"
	CodeInvalidJSON      = "INVALID_JSON"
	CodeInvalidFilter    = "INVALID_FILTER"
	CodeValidation       = "VALIDATION_ERROR"
	CodeTaskNotFound     = "TASK_NOT_FOUND"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternal         = "INTERNAL_ERROR"
)

// Messages returned to clients.
const (
	MsgInvalidID       = "ID inválido. Use um numero inteiro!"
	MsgInvalidJSON     = "Corpo da requisição inválido. Certifique-se de enviar um JSON válido."
	MsgTitleRequired   = "O campo 'titulo' é obrigatório."
	MsgTaskNotFound    = "Tarefa não encontrada com o ID: %d"
	MsgPayloadTooLarge = "Corpo da requisição muito grande."
	MsgInternal        = "Erro interno do servidor."
)

var errTrailingData = errors.New("unexpected data after JSON value")

// Handler serves router-level fallbacks.
type Handler struct {
	logger *slog.Logger
}

// New creates a new Handler instance.
func New(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, CodeNotFound, "Recurso não encontrado.")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Método não permitido.")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; an encode failure here means the client went away.
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}

// decodeJSON reads exactly one JSON value from the request body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return errTrailingData
	}
	return nil
}

// writeDecodeError maps a body decoding failure to a response.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, MsgPayloadTooLarge)
		return
	}
	writeError(w, http.StatusBadRequest, CodeInvalidJSON, MsgInvalidJSON)
}
