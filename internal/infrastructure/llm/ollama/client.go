package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lexops/legalintel/internal/infrastructure/resilience"
)

// Client talks to an Ollama server hosting the language-model capability.
// Calls are rate limited and wrapped by the resilience executor; the
// per-call timeout bounds the sole blocking operation of the pipeline.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor

	privilegeCapable bool
}

type Config struct {
	BaseURL string
	Model   string

	// CallTimeout bounds one inference call (default 30s).
	CallTimeout time.Duration

	// RequestsPerSecond throttles inference calls; zero disables the
	// limiter.
	RequestsPerSecond float64
	Burst             int

	// PrivilegeCapable declares the deployment approved for
	// ATTORNEY_CLIENT_PRIVILEGED content (e.g. on-prem model hosting).
	PrivilegeCapable bool

	Executor *resilience.Executor
}

const defaultCallTimeout = 30 * time.Second

func New(cfg Config) *Client {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	executor := cfg.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}

	return &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		model:            cfg.Model,
		httpClient:       &http.Client{Timeout: timeout},
		limiter:          limiter,
		executor:         executor,
		privilegeCapable: cfg.PrivilegeCapable,
	}
}

// ModelVersion identifies the model tag for reproducible audit trails.
func (c *Client) ModelVersion() string {
	return c.model
}

func (c *Client) generateJSON(ctx context.Context, operation, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", reqBody, &response, operation)
	}
	if err := c.executor.Execute(ctx, "ollama."+operation, call, classifyModelError); err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
