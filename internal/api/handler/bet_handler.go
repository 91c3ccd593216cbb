package handler

import (
	"net/http"

	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/evetabi/liquidation-roulette/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BetHandler handles bet placement and lookup.
type BetHandler struct {
	betSvc   *service.BetService
	roundSvc *service.RoundService
}

// NewBetHandler creates a BetHandler.
func NewBetHandler(betSvc *service.BetService, roundSvc *service.RoundService) *BetHandler {
	return &BetHandler{betSvc: betSvc, roundSvc: roundSvc}
}

type placeBetRequest struct {
	AgentID    string          `json:"agentId"`
	ProtocolID string          `json:"protocolId"`
	Amount     decimal.Decimal `json:"amount"`
}

// ──────────────────────────────────────────────────────────────────────────────
// POST /api/rounds/:id/bet
// ──────────────────────────────────────────────────────────────────────────────

// PlaceBet stakes an agent on one protocol of an open round.
func (h *BetHandler) PlaceBet(c *gin.Context) {
	roundID := c.Param("id")
	if err := h.roundSvc.Exists(roundID); err != nil {
		respondDomainError(c, err, "failed to place bet")
		return
	}

	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.betSvc.PlaceBet(c.Request.Context(), domain.PlaceBetRequest{
		RoundID:     roundID,
		AgentID:     req.AgentID,
		CandidateID: req.ProtocolID,
		Amount:      req.Amount,
	})
	if err != nil {
		respondDomainError(c, err, "failed to place bet")
		return
	}

	respondSuccess(c, http.StatusCreated, gin.H{
		"bet":         res.Bet,
		"totalPool":   res.TotalPool,
		"currentOdds": res.CurrentOdds,
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// GET /api/bets/:id
// ──────────────────────────────────────────────────────────────────────────────

// GetBet returns a bet by id from any round.
func (h *BetHandler) GetBet(c *gin.Context) {
	bet, err := h.roundSvc.GetBet(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "failed to fetch bet")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"bet": bet})
}
