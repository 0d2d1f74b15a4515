package broker

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/ravitejakamalapuram/copytradepro-sub014/internal/errors"
	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/resilience"
)

const defaultRequestTimeout = 10 * time.Second

// apiClient is the single request-building routine shared by the adapters.
// Every network call goes through it: sliding-window rate limiting, circuit
// breaking, a bounded timeout, and transport-error wrapping.
type apiClient struct {
	broker  string
	baseURL string
	http    *http.Client
	breaker *resilience.CircuitBreaker
	limiter *resilience.RateLimiter
	logger  zerolog.Logger
}

func newAPIClient(broker, baseURL string, timeout time.Duration, logger zerolog.Logger) *apiClient {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &apiClient{
		broker:  broker,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		breaker: resilience.NewCircuitBreaker(broker, resilience.DefaultCircuitBreakerConfig()),
		limiter: resilience.NewRateLimiter(10, time.Second),
		logger:  logger,
	}
}

// post issues a POST of body to path with the given headers and returns the
// HTTP status and raw response body. Broker error payloads ride back in the
// body even on non-2xx statuses; only transport-level failures are errors.
func (c *apiClient) post(ctx context.Context, operation, path string, headers map[string]string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, apperrors.NewTransportError(c.broker, operation, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(operation, req)
}

// get issues a GET to path (including any query string) with the given
// headers.
func (c *apiClient) get(ctx context.Context, operation, path string, headers map[string]string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, apperrors.NewTransportError(c.broker, operation, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(operation, req)
}

func (c *apiClient) do(operation string, req *http.Request) (int, []byte, error) {
	if err := c.limiter.WaitIfNeeded(req.Context()); err != nil {
		return 0, nil, apperrors.NewTransportError(c.broker, operation, err)
	}

	var status int
	var body []byte
	start := time.Now()

	err := c.breaker.Execute(req.Context(), func() error {
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		body, err = io.ReadAll(resp.Body)
		return err
	})

	event := c.logger.Debug().
		Str("event", "api_call").
		Str("broker", c.broker).
		Str("method", req.Method).
		Str("operation", operation).
		Dur("duration", time.Since(start))

	if err != nil {
		event.Err(err).Msg("API call failed")
		return 0, nil, apperrors.NewTransportError(c.broker, operation, err)
	}
	event.Int("status", status).Msg("API call completed")

	return status, body, nil
}
