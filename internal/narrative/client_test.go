package narrative

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/config"
	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(config.NarrativeConfig{
		APIKey:    "sk-test",
		BaseURL:   srv.URL + "/",
		Model:     "test-model",
		MaxTokens: 300,
		Timeout:   2 * time.Second,
		RPS:       1000,
	}, nil)
	c.retryWait = time.Millisecond
	return c
}

func textReply(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
}

func TestRiskAnalysis_SendsMessagesRequest(t *testing.T) {
	var got messagesRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, messagesPath, r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		textReply(w, "Solend looks fragile.")
	}))

	out, err := c.RiskAnalysis(context.Background(), []domain.Candidate{
		{ID: "solend", Name: "Solend", TVL: 420e6, AvgHealthFactor: 1.25, Liquidations24h: 34},
	})
	require.NoError(t, err)
	assert.Equal(t, "Solend looks fragile.", out)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 300, got.MaxTokens, "capped by configured MaxTokens")
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, `"name":"Solend"`)
	assert.Contains(t, got.Messages[0].Content, `"recentLiquidations":34`)
}

func TestPostMortem_Prompt(t *testing.T) {
	var prompt string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		prompt = req.Messages[0].Content
		textReply(w, "ok")
	}))

	_, err := c.PostMortem(context.Background(), PostMortemBrief{
		RoundID:      "r1",
		Winner:       "solend",
		WinnerName:   "Solend",
		Liquidations: map[string]int64{"solend": 45, "drift": 28},
		TotalPool:    decimal.NewFromInt(400),
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Winner: Solend")
	assert.Contains(t, prompt, "Total pot: $400.00")
	assert.Contains(t, prompt, `"solend":45`)
}

func TestRetriesOnServerError(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		textReply(w, "third time lucky")
	}))

	out, err := c.PredictRound(context.Background(), RoundBrief{RoundID: "r1", Protocols: []string{"drift"}})
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", out)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.PredictRound(context.Background(), RoundBrief{RoundID: "r1"})
	require.Error(t, err)
	assert.EqualValues(t, maxRetries+1, atomic.LoadInt32(&calls))
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))

	_, err := c.RiskAnalysis(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "401"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestEmptyCompletion(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))

	_, err := c.RiskAnalysis(context.Background(), nil)
	assert.ErrorIs(t, err, errEmptyCompletion)
}

func TestContextDeadline(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		textReply(w, "late")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.RiskAnalysis(ctx, nil)
	assert.Error(t, err)
}

func TestNewRoundBrief(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := domain.NewRound("r1", []string{"solend", "drift"}, decimal.NewFromInt(5), t0, 30*time.Minute)
	r.ApplyBet(domain.Bet{ID: "b1", AgentID: "a", ProtocolID: "drift", Amount: decimal.NewFromInt(10)})

	b := NewRoundBrief(r)
	assert.Equal(t, "r1", b.RoundID)
	assert.Equal(t, 30*time.Minute, b.Duration)
	assert.Equal(t, []string{"drift", "solend"}, b.Protocols)
	require.Len(t, b.Bets, 1)
	assert.Equal(t, "drift", b.Bets[0].ProtocolID)
}
