package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xela07ax/icu-console/internal/domain"
	"github.com/xela07ax/icu-console/internal/infra"
)

// Client — типизированная обертка над REST API бэкенда и единственная точка
// нормализации ошибок. Ретраев внутри нет: политика повторов — это следующий
// тик цикла синхронизации.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *infra.Metrics
}

func NewClient(cfg infra.BackendConfig, logger *zap.Logger, metrics *infra.Metrics) *Client {
	c := &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger.Named("backend-client"),
		metrics: metrics,
	}

	// Настройка предохранителя: при серии отказов перестаем долбить бэкенд,
	// refresh при этом падает быстро и с тем же видимым сообщением.
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "icu-backend",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				metrics.BreakerState.Set(1)
			} else {
				metrics.BreakerState.Set(0)
			}
			c.logger.Warn("breaker state changed",
				zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	return c
}

// PatientQuery — параметры выборки списка пациентов.
type PatientQuery struct {
	Risk   string
	Search string
	Limit  int
}

// Summary — GET /summary.
func (c *Client) Summary(ctx context.Context) (*domain.SummaryResponse, error) {
	var out domain.SummaryResponse
	if err := c.request(ctx, http.MethodGet, "/summary", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Patients — GET /patients с фильтром, поиском и лимитом.
func (c *Client) Patients(ctx context.Context, q PatientQuery) (*domain.PatientList, error) {
	vals := url.Values{}
	if q.Risk != "" {
		vals.Set("risk", q.Risk)
	}
	if q.Search != "" {
		vals.Set("search", q.Search)
	}
	vals.Set("limit", strconv.Itoa(q.Limit))

	var out domain.PatientList
	if err := c.request(ctx, http.MethodGet, "/patients?"+vals.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PatientDetail — GET /patients/{id}.
func (c *Client) PatientDetail(ctx context.Context, subjectID int) (*domain.PatientDetail, error) {
	var out domain.PatientDetail
	path := fmt.Sprintf("/patients/%d", subjectID)
	if err := c.request(ctx, http.MethodGet, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LiveAlerts — GET /alerts/live.
func (c *Client) LiveAlerts(ctx context.Context, limit int) (*domain.AlertList, error) {
	var out domain.AlertList
	path := "/alerts/live?limit=" + strconv.Itoa(limit)
	if err := c.request(ctx, http.MethodGet, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NotificationStatus — GET /notifications/status.
func (c *Client) NotificationStatus(ctx context.Context) (*domain.NotificationStatus, error) {
	var out domain.NotificationStatus
	if err := c.request(ctx, http.MethodGet, "/notifications/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reload — POST /reload: просит бэкенд пересчитать исходные данные.
func (c *Client) Reload(ctx context.Context) error {
	return c.request(ctx, http.MethodPost, "/reload", nil)
}

// Health — GET /health, стартовая проверка доступности.
func (c *Client) Health(ctx context.Context) error {
	return c.request(ctx, http.MethodGet, "/health", nil)
}

func (c *Client) request(ctx context.Context, method, path string, out any) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, method, path, out)
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.metrics.RequestErrors.WithLabelValues("network").Inc()
		return &NetworkError{Cause: err}
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		c.metrics.RequestErrors.WithLabelValues("request").Inc()
	} else {
		c.metrics.RequestErrors.WithLabelValues("network").Inc()
	}
	return err
}

// do выполняет один запрос и приводит любой отказ к RequestError/NetworkError.
func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return &NetworkError{Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Cause: err}
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, res.Body)
		return &RequestError{Status: res.StatusCode, StatusText: http.StatusText(res.StatusCode)}
	}

	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		// Битый JSON от живого бэкенда — тоже транспортная проблема для вызывающего
		return &NetworkError{Cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
