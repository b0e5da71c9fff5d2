package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/notes/tarefas/internal/handler/dto"
)

// HelloMessage is the plain-text body of GET /hello.
const HelloMessage = "Hello, Tarefas!"

// UtilHandler serves the public utility endpoints.
type UtilHandler struct {
	now func() time.Time
}

// NewUtilHandler creates a new UtilHandler.
func NewUtilHandler() *UtilHandler {
	return &UtilHandler{now: time.Now}
}

// Hello handles GET /hello.
func (h *UtilHandler) Hello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(HelloMessage))
}

// Status handles GET /status. The timestamp carries the server's UTC offset.
func (h *UtilHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.StatusResponse{
		Status:    "ok",
		Timestamp: h.now().Format(time.RFC3339Nano),
	})
}

// Echo handles POST /echo.
func (h *UtilHandler) Echo(w http.ResponseWriter, r *http.Request) {
	var msg dto.Message
	if err := decodeJSON(r, &msg); err != nil {
		writeDecodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// Greeting handles GET /saudacao/{nome}. The name is path-decoded.
func (h *UtilHandler) Greeting(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "nome")
	// chi matches on RawPath when set, leaving escapes like %2F in the param.
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	greeting := "Olá, " + name + "!"
	writeJSON(w, http.StatusOK, dto.Message{Mensagem: &greeting})
}
