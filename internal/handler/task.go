package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/notes/tarefas/internal/auth"
	"github.com/notes/tarefas/internal/handler/dto"
	"github.com/notes/tarefas/internal/middleware"
	"github.com/notes/tarefas/internal/model"
	"github.com/notes/tarefas/internal/repository"
	"github.com/notes/tarefas/internal/service"
	"github.com/notes/tarefas/internal/validation"
)

// TaskService is the business API the task handler depends on.
type TaskService interface {
	ListTasks(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error)
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	CreateTask(ctx context.Context, input service.CreateTaskInput) (*model.Task, error)
	UpdateTask(ctx context.Context, id int64, input service.UpdateTaskInput) (*model.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// TaskHandler handles HTTP requests for task operations.
type TaskHandler struct {
	svc      TaskService
	validate *validation.Validator
	logger   *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc TaskService, validate *validation.Validator, logger *slog.Logger) *TaskHandler {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		svc:      svc,
		validate: validate,
		logger:   logger,
	}
}

// List handles GET /tarefas.
// The optional concluida query parameter filters by completion.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repository.TaskFilter

	if raw := r.URL.Query().Get("concluida"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidFilter, "Parâmetro 'concluida' inválido. Use true ou false.")
			return
		}
		filter.Completed = &completed
	}

	tasks, err := h.svc.ListTasks(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, 0, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// Get handles GET /tarefas/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	task, err := h.svc.GetTask(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, id, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// Create handles POST /tarefas.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if !h.validRequest(w, req) {
		return
	}

	task, err := h.svc.CreateTask(r.Context(), service.CreateTaskInput{
		Title:       req.Titulo,
		Description: req.Descricao,
	})
	if err != nil {
		h.handleServiceError(w, r, 0, err)
		return
	}

	h.logger.Info("task_created",
		"task_id", task.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusCreated, task)
}

// Update handles PUT /tarefas/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if !h.validRequest(w, req) {
		return
	}

	task, err := h.svc.UpdateTask(r.Context(), id, service.UpdateTaskInput{
		Title:       req.Titulo,
		Description: req.Descricao,
		Completed:   req.Concluida,
	})
	if err != nil {
		h.handleServiceError(w, r, id, err)
		return
	}

	h.logger.Info("task_updated",
		"task_id", task.ID,
		"concluida", task.Completed,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /tarefas/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteTask(r.Context(), id); err != nil {
		h.handleServiceError(w, r, id, err)
		return
	}

	h.logger.Info("task_deleted",
		"task_id", id,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	w.WriteHeader(http.StatusNoContent)
}

// validRequest writes a 400 and returns false when req fails validation.
func (h *TaskHandler) validRequest(w http.ResponseWriter, req any) bool {
	errs := h.validate.ValidateStruct(req)
	if len(errs) == 0 {
		return true
	}

	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
		Error:   firstMessage(errs),
		Code:    CodeValidation,
		Details: errs,
	})
	return false
}

// handleServiceError maps service errors to HTTP responses.
func (h *TaskHandler) handleServiceError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, CodeTaskNotFound, fmt.Sprintf(MsgTaskNotFound, id))
	case errors.Is(err, service.ErrTitleMissing):
		writeError(w, http.StatusBadRequest, CodeValidation, MsgTitleRequired)
	case errors.Is(err, service.ErrTitleTooLong):
		writeError(w, http.StatusBadRequest, CodeValidation,
			fmt.Sprintf("O campo 'titulo' deve ter no máximo %d caracteres.", model.MaxTitleLength))
	default:
		h.logger.Error("internal_error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
			"token_id", auth.TokenIDFromContext(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, CodeInternal, MsgInternal)
	}
}

// parseID reads the {id} URL parameter, writing a 400 when it is not an integer.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidID, MsgInvalidID)
		return 0, false
	}
	return id, true
}

// firstMessage picks a stable headline from a validation error map,
// preferring titulo.
func firstMessage(errs map[string]string) string {
	if msg, ok := errs["titulo"]; ok {
		return msg
	}
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return errs[fields[0]]
}
