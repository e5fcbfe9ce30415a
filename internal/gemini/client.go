// Package gemini is a minimal client for the Gemini generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"

	chatAcknowledgement = "I understand. I'll help you with personalized financial advice based on your spending data."
)

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

var defaultGenerationConfig = generationConfig{
	Temperature:     0.7,
	TopP:            0.95,
	TopK:            40,
	MaxOutputTokens: 1024,
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Client calls a Gemini model. It satisfies services.Generator.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

func WithRetryConfig(cfg RetryConfig) Option { return func(c *Client) { c.retry = cfg } }

// NewClient creates a client for model, falling back to DefaultModel.
func NewClient(apiKey, model string, opts ...Option) *Client {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		retry:      DefaultRetryConfig,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends a single prompt and returns the reply text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, []content{{Role: "user", Parts: []part{{Text: prompt}}}})
}

// Chat replays history after a system turn built from snapshot and asks
// message. Assistant turns are sent with the "model" role.
func (c *Client) Chat(ctx context.Context, history []core.ChatMessage, message, snapshot string) (string, error) {
	contents := make([]content, 0, len(history)+3)
	contents = append(contents,
		content{Role: "user", Parts: []part{{Text: systemPrompt(snapshot)}}},
		content{Role: "model", Parts: []part{{Text: chatAcknowledgement}}},
	)
	for _, m := range history {
		role := "user"
		if m.Role == core.RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: m.Content}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: message}}})

	return c.generate(ctx, contents)
}

func systemPrompt(snapshot string) string {
	var b strings.Builder
	b.WriteString("You are a helpful financial advisor assistant.\n")
	b.WriteString("You help users understand their spending patterns and provide personalized advice.\n\n")
	b.WriteString(snapshot)
	b.WriteString("\nBe concise, friendly, and provide actionable advice.\n")
	b.WriteString("Focus on practical tips that can help the user improve their financial health.\n")
	return b.String()
}

func (c *Client) generate(ctx context.Context, contents []content) (string, error) {
	if c.apiKey == "" {
		return "", &Error{Code: ErrNotConfigured, Message: "GEMINI_API_KEY is not set"}
	}

	body, err := json.Marshal(generateRequest{Contents: contents, GenerationConfig: defaultGenerationConfig})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	text, err := withRetry(ctx, c.retry, func(ctx context.Context) (string, error) {
		return c.do(ctx, body)
	})
	if err != nil {
		slog.WarnContext(ctx, "Gemini request failed", "model", c.model, "error", err, "duration", time.Since(start))
		return "", err
	}

	slog.DebugContext(ctx, "Gemini reply received", "model", c.model, "reply_len", len(text), "duration", time.Since(start))
	return text, nil
}

func (c *Client) do(ctx context.Context, body []byte) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The key stays out of the URL so transport errors cannot leak it.
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", classifyHTTPError(resp.StatusCode, string(raw))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &Error{Code: ErrBadReply, Message: "decode response", Cause: err}
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", &Error{Code: ErrEmptyReply, Message: "no candidates in response"}
	}

	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}
