// Package narrative is the optional remote text-generation fallback used for
// questions no built-in analysis recognizes.
//
// Everything here sits behind a timeout and a bounded retry loop; a failure
// only ever means "no narrative", never a failed answer.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultEndpoint       = "https://api-inference.huggingface.co/models"
	DefaultModel          = "openai/gpt-oss-20b"
	DefaultTimeout        = 30 * time.Second
	DefaultRetries        = 3
	DefaultMaxNewTokens   = 500
	DefaultLoadingBackoff = 10 * time.Second
	DefaultErrorBackoff   = 2 * time.Second
)

// ErrDisabled is returned when no API token is configured.
var ErrDisabled = errors.New("narrative: no API token configured")

// Narrator turns a prompt into free text.
type Narrator interface {
	Narrate(ctx context.Context, prompt string) (string, error)
}

// Config describes a Hugging Face style inference endpoint.
type Config struct {
	Endpoint       string
	Model          string
	Token          string
	Timeout        time.Duration
	Retries        int
	MaxNewTokens   int
	LoadingBackoff time.Duration
	ErrorBackoff   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
	if c.MaxNewTokens <= 0 {
		c.MaxNewTokens = DefaultMaxNewTokens
	}
	if c.LoadingBackoff <= 0 {
		c.LoadingBackoff = DefaultLoadingBackoff
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = DefaultErrorBackoff
	}
	return c
}

// Client calls the inference endpoint.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.SugaredLogger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for failed attempts.
func WithLogger(log *zap.SugaredLogger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient returns a client for cfg. Zero-valued fields take the defaults.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	c := &Client{
		cfg:  cfg.withDefaults(),
		http: &http.Client{},
		log:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether a token is configured.
func (c *Client) Enabled() bool {
	return strings.TrimSpace(c.cfg.Token) != ""
}

// URL is the model endpoint the client posts to.
func (c *Client) URL() string {
	return strings.TrimRight(c.cfg.Endpoint, "/") + "/" + c.cfg.Model
}

type request struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
}

type parameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
	DoSample       bool    `json:"do_sample"`
	ReturnFullText bool    `json:"return_full_text"`
}

type generation struct {
	GeneratedText string `json:"generated_text"`
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("inference endpoint returned %d: %s", e.code, e.body)
}

// Narrate posts the prompt, retrying a model that is still loading (503) and
// transport failures. Each attempt is bounded by the configured timeout.
func (c *Client) Narrate(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	body, err := json.Marshal(request{
		Inputs: prompt,
		Parameters: parameters{
			MaxNewTokens:   c.cfg.MaxNewTokens,
			Temperature:    0.7,
			TopP:           0.9,
			DoSample:       true,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode narrative request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.Retries; attempt++ {
		text, err := c.attempt(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.log.Warnf("narrative attempt %d/%d failed: %v", attempt, c.cfg.Retries, err)

		if attempt == c.cfg.Retries {
			break
		}
		var se *statusError
		var waitErr error
		switch {
		case errors.As(err, &se) && se.code == http.StatusServiceUnavailable:
			waitErr = sleep(ctx, c.cfg.LoadingBackoff)
		case errors.As(err, &se):
			// Other HTTP statuses are retried straight away.
		default:
			waitErr = sleep(ctx, c.cfg.ErrorBackoff)
		}
		if waitErr != nil {
			return "", waitErr
		}
	}
	return "", fmt.Errorf("narrative failed after %d attempts: %w", c.cfg.Retries, lastErr)
}

func (c *Client) attempt(ctx context.Context, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build narrative request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post narrative request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read narrative response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(payload))}
	}
	return parseGeneration(payload)
}

// parseGeneration accepts either a list of generations or a single object.
func parseGeneration(payload []byte) (string, error) {
	var list []generation
	if err := json.Unmarshal(payload, &list); err == nil {
		if len(list) == 0 {
			return "", nil
		}
		return strings.TrimSpace(list[0].GeneratedText), nil
	}
	var single generation
	if err := json.Unmarshal(payload, &single); err != nil {
		return "", fmt.Errorf("decode narrative response: %w", err)
	}
	return strings.TrimSpace(single.GeneratedText), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
