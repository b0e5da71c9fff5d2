// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// CreateTaskRequest represents the request body for creating a task.
type CreateTaskRequest struct {
	Titulo    string  `json:"titulo" validate:"required,notblank,max=255"`
	Descricao *string `json:"descricao"`
}

// UpdateTaskRequest represents the request body for replacing a task.
type UpdateTaskRequest struct {
	Titulo    string  `json:"titulo" validate:"required,notblank,max=255"`
	Descricao *string `json:"descricao"`
	Concluida bool    `json:"concluida"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Message is the body of POST /echo and GET /saudacao/{nome}.
type Message struct {
	Mensagem *string `json:"mensagem"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}
