package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/evetabi/liquidation-roulette/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RoundHandler handles round lifecycle endpoints.
type RoundHandler struct {
	roundSvc      *service.RoundService
	resolutionSvc *service.ResolutionService
}

// NewRoundHandler creates a RoundHandler.
func NewRoundHandler(roundSvc *service.RoundService, resolutionSvc *service.ResolutionService) *RoundHandler {
	return &RoundHandler{roundSvc: roundSvc, resolutionSvc: resolutionSvc}
}

// ── Request bodies ────────────────────────────────────────────────────────────

type createRoundRequest struct {
	Duration *float64         `json:"duration"` // seconds
	MinBet   *decimal.Decimal `json:"minBet"`
}

type resolveRequest struct {
	LiquidationData map[string]int64 `json:"liquidationData"`
}

// roundResponse flattens a RoundView next to the success flag.
type roundResponse struct {
	Success bool `json:"success"`
	*service.RoundView
}

// ──────────────────────────────────────────────────────────────────────────────
// POST /api/rounds/create
// ──────────────────────────────────────────────────────────────────────────────

// Create opens a new round.  An empty body takes every default.
func (h *RoundHandler) Create(c *gin.Context) {
	var req createRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return
	}

	round, err := h.roundSvc.Create(c.Request.Context(), service.CreateRoundRequest{
		Duration: req.Duration,
		MinBet:   req.MinBet,
	})
	if err != nil {
		respondDomainError(c, err, "failed to create round")
		return
	}

	respondSuccess(c, http.StatusCreated, gin.H{
		"round":   round,
		"message": "Round " + round.ID + " created. Place your bets!",
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// GET /api/rounds/:id
// ──────────────────────────────────────────────────────────────────────────────

// Get returns one round with its odds breakdown and remaining time.
func (h *RoundHandler) Get(c *gin.Context) {
	view, err := h.roundSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "failed to fetch round")
		return
	}
	c.JSON(http.StatusOK, roundResponse{Success: true, RoundView: view})
}

// ──────────────────────────────────────────────────────────────────────────────
// GET /api/rounds
// ──────────────────────────────────────────────────────────────────────────────

// List returns summaries of every open round.
func (h *RoundHandler) List(c *gin.Context) {
	rounds, err := h.roundSvc.ListOpen(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "failed to list rounds")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"rounds": rounds,
		"count":  len(rounds),
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// POST /api/rounds/:id/resolve
// ──────────────────────────────────────────────────────────────────────────────

// Resolve settles a round against the reported liquidation counts.
func (h *RoundHandler) Resolve(c *gin.Context) {
	roundID := c.Param("id")
	if err := h.roundSvc.Exists(roundID); err != nil {
		respondDomainError(c, err, "failed to resolve round")
		return
	}

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return
	}

	st, err := h.resolutionSvc.Resolve(c.Request.Context(), roundID, req.LiquidationData)
	if err != nil {
		respondDomainError(c, err, "failed to resolve round")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"round":   st.Round,
		"winners": st.Payouts,
		"message": resolvedMessage(st),
	})
}

func resolvedMessage(st *service.Settlement) string {
	name := st.WinnerName
	if name == "" {
		name = st.Winner
	}
	paid := domain.TotalPaid(st.Payouts)
	return name + " had the most liquidations. " + paid.StringFixed(2) + " USDC paid to " +
		strconv.Itoa(len(st.Payouts)) + " winner(s)."
}

// ──────────────────────────────────────────────────────────────────────────────
// GET /api/protocols
// ──────────────────────────────────────────────────────────────────────────────

// Protocols lists the tracked candidates in catalogue order.
func (h *RoundHandler) Protocols(c *gin.Context) {
	protocols := h.roundSvc.Protocols()
	respondSuccess(c, http.StatusOK, gin.H{
		"protocols": protocols,
		"count":     len(protocols),
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// GET /health
// ──────────────────────────────────────────────────────────────────────────────

// Health reports liveness together with registry counters.
func (h *RoundHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"service":     "liquidation-roulette",
		"description": "Bet on which Solana protocol will have the most liquidations",
		"stats":       h.roundSvc.Stats(),
	})
}
