package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Provider selects the backend wire format
type Provider string

const (
	// ProviderAnthropic sends the flattened single-prompt format to the Messages API.
	ProviderAnthropic Provider = "anthropic"
	// ProviderDeepSeek sends multi-turn OpenAI-compatible chat completions.
	ProviderDeepSeek Provider = "deepseek"
)

const (
	defaultAnthropicURL   = "https://api.anthropic.com/v1/messages"
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	anthropicVersion      = "2023-06-01"
	defaultDeepSeekURL    = "https://api.deepseek.com/v1/chat/completions"
	defaultDeepSeekModel  = "deepseek-chat"
	defaultMaxTokens      = 4096
	defaultCallTimeout    = 60 * time.Second
	errorBodyLimit        = 512
)

// Config holds the backend endpoint, credentials and model identifier
type Config struct {
	Provider  Provider
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// Timeout bounds each individual backend call.
	Timeout time.Duration
}

// Client issues single completion calls to the LLM backend. It owns the
// connection details and error classification but never retries.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// ClientOption customizes the client
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the client logger
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a model client for the configured provider
func NewClient(cfg Config, opts ...ClientOption) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Provider == "" {
		cfg.Provider = ProviderAnthropic
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultURL(cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel(cfg.Provider)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCallTimeout
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultURL(p Provider) string {
	if p == ProviderDeepSeek {
		return defaultDeepSeekURL
	}
	return defaultAnthropicURL
}

func defaultModel(p Provider) string {
	if p == ProviderDeepSeek {
		return defaultDeepSeekModel
	}
	return defaultAnthropicModel
}

// Complete sends the conversation to the backend and returns the raw text reply
func (c *Client) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if err := checkMessages(messages); err != nil {
		return "", err
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}

	var (
		body []byte
		err  error
	)
	switch c.cfg.Provider {
	case ProviderDeepSeek:
		body, err = json.Marshal(c.chatCompletionRequest(messages, maxTokens, opts.Temperature))
	default:
		body, err = json.Marshal(anthropicRequest{
			Model:       c.cfg.Model,
			MaxTokens:   maxTokens,
			Temperature: opts.Temperature,
			Messages:    []anthropicMessage{{Role: string(RoleUser), Content: renderPrompt(messages)}},
		})
	}
	if err != nil {
		return "", &BackendError{Kind: KindInvalidRequest, Message: "failed to marshal request", Err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	respBody, err := c.send(ctx, callCtx, body)
	if err != nil {
		return "", err
	}

	var text string
	if c.cfg.Provider == ProviderDeepSeek {
		text, err = decodeChatCompletion(respBody)
	} else {
		text, err = decodeAnthropic(respBody)
	}
	if err != nil {
		return "", err
	}
	c.log.Debug("llm completion received",
		zap.String("provider", string(c.cfg.Provider)),
		zap.Int("chars", len(text)))
	return text, nil
}

func (c *Client) send(parent, callCtx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, &BackendError{Kind: KindInvalidRequest, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Provider == ProviderDeepSeek {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.APIKey))
	} else {
		req.Header.Set("x-api-key", c.cfg.APIKey)
		req.Header.Set("anthropic-version", anthropicVersion)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(parent, callCtx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(parent, callCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := kindForStatus(resp.StatusCode)
		c.log.Warn("llm backend returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("kind", kind.String()))
		return nil, &BackendError{
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Message:    snippet(respBody, errorBodyLimit),
		}
	}
	return respBody, nil
}

// transportError classifies failures that happen before a status is known.
// Cancellation of the caller's context is returned as-is so it is never retried.
func (c *Client) transportError(parent, callCtx context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &BackendError{Kind: KindServerUnavailable, Timeout: true, Message: fmt.Sprintf("no response within %s", c.cfg.Timeout), Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &BackendError{Kind: KindServerUnavailable, Timeout: true, Message: netErr.Error(), Err: err}
	}
	return &BackendError{Kind: KindServerUnavailable, Message: err.Error(), Err: err}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeAnthropic(body []byte) (string, error) {
	var result anthropicResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &BackendError{Kind: KindUnknown, Message: "failed to decode response", Err: err}
	}
	if result.Error != nil {
		return "", &BackendError{Kind: KindUnknown, Message: result.Error.Message}
	}
	for _, block := range result.Content {
		if block.Type == "text" || block.Type == "" {
			return block.Text, nil
		}
	}
	return "", &BackendError{Kind: KindUnknown, Message: "no text content in response"}
}

// chatCompletionRequest mirrors the DeepSeek chat completions body
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *Client) chatCompletionRequest(messages []Message, maxTokens int, temperature float64) chatCompletionRequest {
	preamble, turns := splitPreamble(messages)
	wire := make([]chatMessage, 0, len(turns)+1)
	if preamble != "" {
		wire = append(wire, chatMessage{Role: string(RoleSystem), Content: preamble})
	}
	for _, m := range turns {
		wire = append(wire, chatMessage{Role: string(m.Role), Content: strings.TrimSpace(m.Content)})
	}
	return chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    wire,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

func decodeChatCompletion(body []byte) (string, error) {
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &BackendError{Kind: KindUnknown, Message: "failed to decode response", Err: err}
	}
	if result.Error != nil {
		return "", &BackendError{Kind: KindUnknown, Message: result.Error.Message}
	}
	if len(result.Choices) == 0 {
		return "", &BackendError{Kind: KindUnknown, Message: "no response from API"}
	}
	return result.Choices[0].Message.Content, nil
}

func snippet(body []byte, limit int) string {
	s := strings.Join(strings.Fields(string(body)), " ")
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
