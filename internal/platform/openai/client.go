package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/studygraph-backend/internal/platform/httpx"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

// Client is the OpenAI-compatible API client used by the rest of the backend.
// The embedding contract tolerates per-item failure: a batch slot may come
// back nil and callers must handle the gap.
type Client interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	EmbedOne(ctx context.Context, input string) ([]float32, error)

	// Dimension reports the embedding width of the configured embed model.
	Dimension(ctx context.Context) (int, error)

	// Plain text generation (system + user prompt).
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	embedModel string

	httpClient  *http.Client
	embedClient *http.Client

	maxRetries int

	dimMu sync.Mutex
	dim   int
}

var knownDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing LLM_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("API_GATEWAY_URL"))
	if baseURL == "" {
		baseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("LLM_MODEL"))
	if model == "" {
		model = "gpt-4o-mini"
	}

	embedModel := strings.TrimSpace(os.Getenv("EMBED_MODEL"))
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}

	timeoutSec := 60
	if v := strings.TrimSpace(os.Getenv("LLM_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}
	embedTimeoutSec := 30
	if v := strings.TrimSpace(os.Getenv("EMBED_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			embedTimeoutSec = parsed
		}
	}

	maxRetries := 3
	if v := strings.TrimSpace(os.Getenv("LLM_MAX_RETRIES")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:         log.With("client", "OpenAI"),
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		embedModel:  embedModel,
		httpClient:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		embedClient: &http.Client{Timeout: time.Duration(embedTimeoutSec) * time.Second},
		maxRetries:  maxRetries,
		dim:         knownDimensions[embedModel],
	}, nil
}

type apiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *apiHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, truncate(e.Body, 300))
}

func (e *apiHTTPError) HTTPStatusCode() int { return e.StatusCode }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (c *client) doOnce(ctx context.Context, httpClient *http.Client, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	if httpClient == nil {
		httpClient = c.httpClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &apiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) doWithClient(ctx context.Context, httpClient *http.Client, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, httpClient, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w; raw=%s", uErr, truncate(string(raw), 300))
			}
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

// -------------------- Embeddings --------------------

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	req := embeddingsRequest{Model: c.embedModel, Input: clean}

	var resp embeddingsResponse
	if err := c.doWithClient(ctx, c.embedClient, "POST", "/v1/embeddings", req, &resp); err != nil {
		return nil, err
	}

	out := make([][]float32, len(clean))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = vec
		}
	}

	missing := 0
	for i := range out {
		if out[i] == nil {
			missing++
		}
	}
	if missing > 0 {
		c.log.Warn("Embeddings response missing slots",
			"requested", len(clean),
			"returned", len(resp.Data),
			"missing", missing,
			"model", c.embedModel,
		)
	}

	c.noteDimension(out)
	return out, nil
}

func (c *client) EmbedOne(ctx context.Context, input string) ([]float32, error) {
	vecs, err := c.Embed(ctx, []string{input})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || vecs[0] == nil {
		return nil, fmt.Errorf("embedding missing for input")
	}
	return vecs[0], nil
}

func (c *client) Dimension(ctx context.Context) (int, error) {
	c.dimMu.Lock()
	if c.dim > 0 {
		d := c.dim
		c.dimMu.Unlock()
		return d, nil
	}
	c.dimMu.Unlock()

	// Unknown model: probe with a single token and remember the width.
	vec, err := c.EmbedOne(ctx, "dimension probe")
	if err != nil {
		return 0, fmt.Errorf("probe embedding dimension: %w", err)
	}
	c.dimMu.Lock()
	c.dim = len(vec)
	c.dimMu.Unlock()
	return len(vec), nil
}

func (c *client) noteDimension(vecs [][]float32) {
	for _, v := range vecs {
		if len(v) > 0 {
			c.dimMu.Lock()
			if c.dim == 0 {
				c.dim = len(v)
			}
			c.dimMu.Unlock()
			return
		}
	}
}

// -------------------- Text generation --------------------

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	msgs := make([]chatMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: user})

	req := chatRequest{Model: c.model, Messages: msgs}

	var resp chatResponse
	if err := c.doWithClient(ctx, c.httpClient, "POST", "/v1/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
