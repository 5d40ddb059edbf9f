package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"

	"github.com/shaiso/taskflow/internal/domain"
)

// Config — конфигурация клиента backend.
type Config struct {
	// BaseURL — адрес backend без завершающего "/".
	BaseURL string

	// SessionToken — токен сессии пользователя, отправляется как Bearer.
	SessionToken string

	// Timeout — таймаут одного HTTP запроса.
	Timeout time.Duration

	// FetchRetries — число повторов чтения workflow.
	FetchRetries uint64

	// RetryBackoff — начальная задержка между повторами.
	RetryBackoff time.Duration

	Logger *slog.Logger
}

// Client — HTTP-клиент внешнего backend (workflow и задачи).
type Client struct {
	http    *resty.Client
	retries uint64
	backoff time.Duration
	logger  *slog.Logger
}

// New создаёт клиент.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 200 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.SessionToken != "" {
		httpClient.SetAuthToken(cfg.SessionToken)
	}

	return &Client{
		http:    httpClient,
		retries: cfg.FetchRetries,
		backoff: cfg.RetryBackoff,
		logger:  cfg.Logger,
	}
}

// ---- Workflows ----

// GetWorkflow возвращает метаданные workflow.
//
// Сетевые ошибки и 5xx повторяются с экспоненциальной задержкой.
// 404 возвращается сразу как ErrWorkflowNotFound.
func (c *Client) GetWorkflow(ctx context.Context, id int64) (*domain.Workflow, error) {
	var wf domain.Workflow

	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.http.R().
			SetContext(ctx).
			Get("/workflow/" + strconv.FormatInt(id, 10))
		if err != nil {
			c.logger.Debug("workflow fetch failed, retrying", "workflow_id", id, "error", err)
			return retry.RetryableError(fmt.Errorf("%w: %w", ErrRequestFailed, err))
		}

		if resp.StatusCode() == http.StatusNotFound {
			return ErrWorkflowNotFound
		}
		if err := checkResponse(resp); err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Retryable() {
				c.logger.Debug("workflow fetch failed, retrying", "workflow_id", id, "status", apiErr.StatusCode)
				return retry.RetryableError(err)
			}
			return err
		}

		if err := json.Unmarshal(resp.Body(), &wf); err != nil {
			return fmt.Errorf("decode workflow: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

// CreateWorkflow создаёт новый workflow.
func (c *Client) CreateWorkflow(ctx context.Context, name, description string, createdBy int64) (*domain.Workflow, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
		"created_by":  createdBy,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/workflow/create")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var wf domain.Workflow
	if err := json.Unmarshal(resp.Body(), &wf); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}
	return &wf, nil
}

// ListWorkflows возвращает workflow текущего пользователя.
func (c *Client) ListWorkflows(ctx context.Context) ([]domain.Workflow, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/workflow/get_workflow_by_user")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var list []domain.Workflow
	if err := json.Unmarshal(resp.Body(), &list); err != nil {
		return nil, fmt.Errorf("decode workflows: %w", err)
	}
	return list, nil
}

// ---- Tasks ----

// AddTasksBulk создаёт все задачи workflow одним запросом.
//
// Запрос не идемпотентен, поэтому не повторяется.
// Успех определяется только статусом 2xx: тело, которое не удалось
// разобрать, даёт пустой BulkResult без ошибки.
func (c *Client) AddTasksBulk(ctx context.Context, tasks []TaskRequest) (*BulkResult, error) {
	if tasks == nil {
		tasks = []TaskRequest{}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(tasks).
		Post("/task/add_tasks_bulk")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	res, err := parseBulkResult(resp.Body())
	if err != nil {
		c.logger.Warn("tasks created, response ids unreadable", "status", resp.StatusCode(), "error", err)
		return &BulkResult{}, nil
	}
	return res, nil
}

// ---- Users ----

// Me возвращает пользователя, которому принадлежит сессия.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/user/me")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(resp.Body(), &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

// checkResponse превращает ответ вне 2xx в *APIError.
func checkResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	return &APIError{
		StatusCode: resp.StatusCode(),
		Body:       truncate(string(resp.Body()), 512),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
