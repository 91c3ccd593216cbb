package handler

import (
	"net/http"

	"github.com/evetabi/liquidation-roulette/internal/service"
	"github.com/gin-gonic/gin"
)

// NarrativeHandler serves the generated risk commentary.
type NarrativeHandler struct {
	svc *service.NarrativeService
}

// NewNarrativeHandler creates a NarrativeHandler.
func NewNarrativeHandler(svc *service.NarrativeService) *NarrativeHandler {
	return &NarrativeHandler{svc: svc}
}

// RiskAnalysis handles GET /api/ai/risk-analysis.
func (h *NarrativeHandler) RiskAnalysis(c *gin.Context) {
	text, err := h.svc.RiskAnalysis(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "failed to generate analysis")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"analysis": text})
}

// PredictRound handles GET /api/ai/predict-round/:id.
func (h *NarrativeHandler) PredictRound(c *gin.Context) {
	id := c.Param("id")
	text, err := h.svc.PredictRound(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "failed to generate prediction")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"roundId": id, "prediction": text})
}

// PostMortem handles POST /api/ai/post-mortem/:id.
func (h *NarrativeHandler) PostMortem(c *gin.Context) {
	id := c.Param("id")
	text, err := h.svc.PostMortem(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "failed to generate post-mortem")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"roundId": id, "analysis": text})
}
