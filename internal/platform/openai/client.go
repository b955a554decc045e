package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/curriculum-backend/internal/observability"
	"github.com/yungbote/curriculum-backend/internal/pkg/httpx"
	"github.com/yungbote/curriculum-backend/internal/platform/envutil"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

const responsesPath = "/v1/responses"

// Client is the Responses API surface used by the lesson pipeline.
type Client interface {
	CreateResponse(ctx context.Context, req ResponseRequest) (*Response, error)
	// DefaultModel is used when a request leaves Model empty.
	DefaultModel() string
}

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	// MaxRetries defaults to 0: upstream failures reach the caller unretried.
	MaxRetries  int
	Temperature *float64
	// Exact model ids, or prefixes ending in "*", that reject temperature.
	NoTemperatureModels []string
}

// LoadConfig reads OPENAI_* settings from the environment.
func LoadConfig() Config {
	cfg := Config{
		BaseURL:    strings.TrimRight(envutil.String("OPENAI_BASE_URL", "https://api.openai.com"), "/"),
		APIKey:     envutil.String("OPENAI_API_KEY", ""),
		Model:      envutil.String("OPENAI_MODEL", "gpt-4.1"),
		Timeout:    envutil.Seconds("OPENAI_TIMEOUT_SECONDS", 10*time.Minute),
		MaxRetries: envutil.Int("OPENAI_MAX_RETRIES", 0),
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	switch raw := strings.ToLower(envutil.String("OPENAI_TEMPERATURE", "0.7")); raw {
	case "off", "none", "false":
	default:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.Temperature = &f
		}
	}
	for _, part := range strings.Split(envutil.String("OPENAI_NO_TEMPERATURE_MODELS", ""), ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			cfg.NoTemperatureModels = append(cfg.NoTemperatureModels, p)
		}
	}
	return cfg
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client

	// Models that rejected temperature at runtime.
	noTempMu   sync.RWMutex
	noTempSeen map[string]bool
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	return NewClientWithHTTP(log, cfg, nil)
}

// NewClientWithHTTP lets callers supply the transport.
func NewClientWithHTTP(log *logger.Logger, cfg Config, httpClient *http.Client) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &client{
		log:        log.With("service", "OpenAIClient"),
		cfg:        cfg,
		httpClient: httpClient,
		noTempSeen: map[string]bool{},
	}, nil
}

func (c *client) DefaultModel() string { return c.cfg.Model }

// HTTPError is a non-2xx response from the API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, truncate(e.Body, 512))
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) CreateResponse(ctx context.Context, req ResponseRequest) (*Response, error) {
	if strings.TrimSpace(req.Model) == "" {
		req.Model = c.cfg.Model
	}
	if req.Temperature == nil {
		req.Temperature = c.cfg.Temperature
	}
	if c.modelIsNoTemp(req.Model) {
		req.Temperature = nil
	}

	var resp Response
	err := c.doWithRetry(ctx, &req, &resp)
	if err != nil && req.Temperature != nil && isUnsupportedTemperature(err) {
		c.noteNoTempModel(req.Model)
		req.Temperature = nil
		c.log.Warn("Model rejected temperature; retrying without it", "model", req.Model)
		err = c.doWithRetry(ctx, &req, &resp)
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) doOnce(ctx context.Context, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+responsesPath, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) doWithRetry(ctx context.Context, req *ResponseRequest, out *Response) error {
	backoff := time.Second
	start := time.Now()
	metrics := observability.Current()

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, raw, err := c.doOnce(ctx, req)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				metrics.ObserveLLMRequest(req.Model, responsesPath, "decode_error", time.Since(start), 0, 0)
				return fmt.Errorf("openai decode error: %w", uErr)
			}
			u := out.Usage.normalized()
			metrics.ObserveLLMRequest(req.Model, responsesPath, statusFromResp(resp), time.Since(start), u.InputTokens, u.OutputTokens)
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries || ctx.Err() != nil {
			metrics.ObserveLLMRequest(req.Model, responsesPath, statusFromErr(resp, err), time.Since(start), 0, 0)
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("OpenAI request retrying",
			"model", req.Model,
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if sErr := httpx.Sleep(ctx, sleepFor); sErr != nil {
			return sErr
		}
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}

func (c *client) modelIsNoTemp(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	if m == "" {
		return false
	}
	for _, rule := range c.cfg.NoTemperatureModels {
		if strings.HasSuffix(rule, "*") {
			if strings.HasPrefix(m, strings.TrimSuffix(rule, "*")) {
				return true
			}
			continue
		}
		if rule == m {
			return true
		}
	}
	c.noTempMu.RLock()
	defer c.noTempMu.RUnlock()
	return c.noTempSeen[m]
}

func (c *client) noteNoTempModel(model string) {
	c.noTempMu.Lock()
	c.noTempSeen[strings.ToLower(strings.TrimSpace(model))] = true
	c.noTempMu.Unlock()
}

func isUnsupportedTemperature(err error) bool {
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(he.Body)
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, hint := range []string{"unsupported", "not supported", "does not support", "unknown parameter", "only the default"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

func statusFromResp(resp *http.Response) string {
	if resp == nil {
		return "unknown"
	}
	return strconv.Itoa(resp.StatusCode)
}

func statusFromErr(resp *http.Response, err error) string {
	if resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
