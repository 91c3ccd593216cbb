// Package backoffice is the operator tooling for a running roulette server:
// a typed HTTP client, table rendering and the command dispatcher behind
// cmd/backoffice.
package backoffice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Wire types
// ──────────────────────────────────────────────────────────────────────────────

// APIError is a non-success envelope returned by the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// OddsRow is one line of a round's odds breakdown, kept in display form.
type OddsRow struct {
	Name        string          `json:"name"`
	Pool        decimal.Decimal `json:"pool"`
	Odds        string          `json:"odds"`
	Probability string          `json:"probability"`
}

// RoundDetail is the payload of GET /api/rounds/:id.
type RoundDetail struct {
	domain.Round
	OddsBreakdown map[string]OddsRow `json:"oddsBreakdown"`
	TimeRemaining int64              `json:"timeRemaining"` // milliseconds
}

// Settlement is the payload of POST /api/rounds/:id/resolve.
type Settlement struct {
	Round   domain.Round    `json:"round"`
	Winners []domain.Payout `json:"winners"`
	Message string          `json:"message"`
}

// Health is the payload of GET /api/health.
type Health struct {
	Status string `json:"status"`
	Stats  struct {
		TrackedProtocols int `json:"trackedProtocols"`
		ActiveRounds     int `json:"activeRounds"`
		OpenRounds       int `json:"openRounds"`
		TotalBets        int `json:"totalBets"`
	} `json:"stats"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Client
// ──────────────────────────────────────────────────────────────────────────────

// Client talks to the public HTTP API.  Token, when set, is sent as a Bearer
// header on every request.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a Client for the server at baseURL.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health fetches liveness and registry counters.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Protocols lists the tracked candidates.
func (c *Client) Protocols(ctx context.Context) ([]domain.Candidate, error) {
	var out struct {
		Protocols []domain.Candidate `json:"protocols"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/protocols", nil, &out); err != nil {
		return nil, err
	}
	return out.Protocols, nil
}

// ListRounds returns summaries of the open rounds.
func (c *Client) ListRounds(ctx context.Context) ([]domain.RoundSummary, error) {
	var out struct {
		Rounds []domain.RoundSummary `json:"rounds"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/rounds", nil, &out); err != nil {
		return nil, err
	}
	return out.Rounds, nil
}

// GetRound fetches one round with its odds.
func (c *Client) GetRound(ctx context.Context, id string) (*RoundDetail, error) {
	var out RoundDetail
	if err := c.do(ctx, http.MethodGet, "/api/rounds/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBet fetches a bet by id.
func (c *Client) GetBet(ctx context.Context, id string) (*domain.Bet, error) {
	var out struct {
		Bet domain.Bet `json:"bet"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/bets/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out.Bet, nil
}

// CreateRound opens a round.  Zero duration or a nil minBet take the server
// defaults.
func (c *Client) CreateRound(ctx context.Context, duration time.Duration, minBet *decimal.Decimal) (*domain.Round, error) {
	body := map[string]any{}
	if duration > 0 {
		body["duration"] = duration.Seconds()
	}
	if minBet != nil {
		body["minBet"] = minBet
	}
	var out struct {
		Round domain.Round `json:"round"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/rounds/create", body, &out); err != nil {
		return nil, err
	}
	return &out.Round, nil
}

// Resolve settles a round with per-protocol liquidation counts.
func (c *Client) Resolve(ctx context.Context, id string, counts map[string]int64) (*Settlement, error) {
	var out Settlement
	body := map[string]any{"liquidationData": counts}
	if err := c.do(ctx, http.MethodPost, "/api/rounds/"+id+"/resolve", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backoffice: encode %s: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("backoffice: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backoffice: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("backoffice: read body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var env struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		_ = json.Unmarshal(raw, &env)
		if env.Error == "" {
			env.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Error}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("backoffice: decode %s: %w", path, err)
	}
	return nil
}
