package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/taskflow/internal/backend"
	"github.com/shaiso/taskflow/internal/commit"
	"github.com/shaiso/taskflow/internal/editor"
	"github.com/shaiso/taskflow/internal/engine"
	"github.com/shaiso/taskflow/internal/store"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeReadOnly           ErrorCode = "READ_ONLY"
	ErrCodeInvalidTask        ErrorCode = "INVALID_TASK"
	ErrCodeInvalidReference   ErrorCode = "INVALID_REFERENCE"
	ErrCodeCommitFailed       ErrorCode = "COMMIT_FAILED"
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeInternalError      ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`

	// Details — данные для исправления (поля кандидата, нарушения списка).
	Details any `json:"details,omitempty"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Created отправляет ответ о создании ресурса.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, DataResponse{Data: data})
}

// NoContent отправляет ответ без тела (204).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	ErrorWithDetails(w, status, code, message, nil)
}

// ErrorWithDetails отправляет ответ с ошибкой и данными для исправления.
func ErrorWithDetails(w http.ResponseWriter, status int, code ErrorCode, message string, details any) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleError преобразует ошибку редактора в HTTP ответ.
// Возвращает false, если err == nil.
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	if err == nil {
		return false
	}

	var vErr *engine.ValidationError
	switch {
	case errors.As(err, &vErr):
		ErrorWithDetails(w, http.StatusUnprocessableEntity, ErrCodeInvalidTask, vErr.Error(),
			map[string]any{"fields": vErr.Fields})

	case errors.Is(err, editor.ErrTaskNotFound):
		NotFound(w, "task not found")

	case errors.Is(err, editor.ErrWorkflowUnavailable) && errors.Is(err, backend.ErrWorkflowNotFound):
		NotFound(w, "workflow not found")

	case errors.Is(err, editor.ErrWorkflowUnavailable):
		Error(w, http.StatusBadGateway, ErrCodeBackendUnavailable, err.Error())

	case errors.Is(err, store.ErrReadOnly), errors.Is(err, commit.ErrAlreadySaved):
		Error(w, http.StatusConflict, ErrCodeReadOnly, "task list is saved; reopen it to edit")

	case errors.Is(err, commit.ErrCommitInProgress), errors.Is(err, store.ErrCommitting):
		Error(w, http.StatusConflict, ErrCodeConflict, err.Error())

	case errors.Is(err, engine.ErrNotEmailTask), errors.Is(err, engine.ErrIneligibleReference):
		Error(w, http.StatusUnprocessableEntity, ErrCodeInvalidReference, err.Error())

	case errors.Is(err, store.ErrConfigMismatch),
		errors.Is(err, store.ErrUnknownType),
		errors.Is(err, store.ErrInvalidDirection):
		BadRequest(w, err.Error())

	case errors.Is(err, commit.ErrCommitFailed):
		logger.Warn("commit failed", "error", err)
		Error(w, http.StatusBadGateway, ErrCodeCommitFailed, err.Error())

	case errors.Is(err, backend.ErrRequestFailed):
		Error(w, http.StatusBadGateway, ErrCodeBackendUnavailable, err.Error())

	default:
		InternalError(w, logger, err)
	}
	return true
}
