package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/config"
	"github.com/evetabi/liquidation-roulette/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	messagesPath   = "/v1/messages"
	maxRetries     = 3
	baseRetryWait  = 500 * time.Millisecond
	limiterBurst   = 2
)

// Client talks to the Anthropic Messages API with rate limiting and retries.
type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	limiter   *rate.Limiter
	retryWait time.Duration
	logger    *slog.Logger
}

// NewClient builds a Client from cfg.  Timeouts are applied per call by the
// caller's context; the transport timeout is a backstop.
func NewClient(cfg config.NarrativeConfig, logger *slog.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:      &http.Client{Timeout: 2 * cfg.Timeout},
		baseURL:   base,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RPS), limiterBurst),
		retryWait: baseRetryWait,
		logger:    logger,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Narrator implementation
// ──────────────────────────────────────────────────────────────────────────────

// RiskAnalysis ranks the protocols by liquidation risk.
func (c *Client) RiskAnalysis(ctx context.Context, protocols []domain.Candidate) (string, error) {
	return c.complete(ctx, riskPrompt(protocols), riskMaxTokens)
}

// PredictRound picks a likely winner for an open round.
func (c *Client) PredictRound(ctx context.Context, brief RoundBrief) (string, error) {
	return c.complete(ctx, predictionPrompt(brief), predictionMaxTokens)
}

// PostMortem explains the outcome of a resolved round.
func (c *Client) PostMortem(ctx context.Context, brief PostMortemBrief) (string, error) {
	return c.complete(ctx, postMortemPrompt(brief), postMortemMaxTokens)
}

// ──────────────────────────────────────────────────────────────────────────────
// Wire format
// ──────────────────────────────────────────────────────────────────────────────

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// errEmptyCompletion is returned when the API answers without a text block.
var errEmptyCompletion = errors.New("empty completion")

// complete sends a single-turn prompt and returns the first text block.
// The per-prompt budget is capped by the configured MaxTokens.
func (c *Client) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.maxTokens > 0 && maxTokens > c.maxTokens {
		maxTokens = c.maxTokens
	}
	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("narrative: marshal request: %w", err)
	}

	var out messagesResponse
	if err := c.doWithRetry(ctx, body, &out); err != nil {
		return "", err
	}
	for _, block := range out.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", errEmptyCompletion
}

// doWithRetry posts body with exponential backoff on 429 and 5xx.
func (c *Client) doWithRetry(ctx context.Context, body []byte, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("narrative: rate limiter: %w", err)
		}

		resp, err := c.post(ctx, body)
		if err != nil {
			if ctx.Err() != nil || attempt == maxRetries {
				return fmt.Errorf("narrative: request failed after %d attempts: %w", attempt+1, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			c.logger.Warn("narrative backend unavailable", "status", resp.StatusCode, "attempt", attempt+1)
			if attempt == maxRetries {
				return fmt.Errorf("narrative: status %d after %d attempts", resp.StatusCode, attempt+1)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("narrative: client error %d: %s", resp.StatusCode, string(msg))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("narrative: decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("narrative: exhausted %d retries", maxRetries)
}

func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	return c.http.Do(req)
}

// sleep waits with exponential backoff, returning early if ctx is done.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
