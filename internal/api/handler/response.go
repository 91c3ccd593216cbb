package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/gin-gonic/gin"
)

// ──────────────────────────────────────────────────────────────────────────────
// Standard response helpers
// ──────────────────────────────────────────────────────────────────────────────

// respondSuccess writes {"success": true, ...fields} with the given status.
func respondSuccess(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// respondError writes {"success": false, "error": msg, "code": code}.
func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   msg,
		"code":    code,
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Domain error mapping
// ──────────────────────────────────────────────────────────────────────────────

// errorMapping ties a sentinel to its HTTP status and public code.
type errorMapping struct {
	err    error
	status int
	code   string
	detail bool // expose the text wrapped around the sentinel
}

var errorMappings = []errorMapping{
	{domain.ErrRoundNotFound, http.StatusNotFound, "ERR_ROUND_NOT_FOUND", false},
	{domain.ErrBetNotFound, http.StatusNotFound, "ERR_BET_NOT_FOUND", false},
	{domain.ErrCandidateNotFound, http.StatusNotFound, "ERR_PROTOCOL_NOT_FOUND", true},
	{domain.ErrMissingBetFields, http.StatusBadRequest, "ERR_VALIDATION", false},
	{domain.ErrBetTooSmall, http.StatusBadRequest, "ERR_BET_TOO_SMALL", true},
	{domain.ErrInvalidDuration, http.StatusBadRequest, "ERR_VALIDATION", false},
	{domain.ErrInvalidMinBet, http.StatusBadRequest, "ERR_VALIDATION", false},
	{domain.ErrEmptyOutcome, http.StatusBadRequest, "ERR_INVALID_OUTCOME", false},
	{domain.ErrNegativeCount, http.StatusBadRequest, "ERR_INVALID_OUTCOME", true},
	{domain.ErrRoundNotOpen, http.StatusBadRequest, "ERR_ROUND_NOT_OPEN", false},
	{domain.ErrRoundAlreadyResolved, http.StatusBadRequest, "ERR_ROUND_RESOLVED", false},
	{domain.ErrRoundNotResolved, http.StatusBadRequest, "ERR_ROUND_NOT_RESOLVED", false},
	{domain.ErrNarrativeUnavailable, http.StatusServiceUnavailable, "ERR_NARRATIVE_UNAVAILABLE", false},
	{domain.ErrNarrativeFailed, http.StatusInternalServerError, "ERR_NARRATIVE_FAILED", false},
}

// respondDomainError translates a service error into the error envelope.
// Unknown errors become a 500 with fallback as the message.
func respondDomainError(c *gin.Context, err error, fallback string) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		msg := m.err.Error()
		if m.detail {
			msg = fromSentinel(err, m.err)
		}
		respondError(c, m.status, m.code, msg)
		return
	}
	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", fallback)
}

// fromSentinel drops the service-layer prefixes in front of sentinel's text,
// keeping any detail the domain appended after it.
func fromSentinel(err, sentinel error) string {
	full := err.Error()
	if i := strings.Index(full, sentinel.Error()); i >= 0 {
		return full[i:]
	}
	return sentinel.Error()
}

// respondBindError reports a malformed request body.
func respondBindError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "invalid request body: "+err.Error())
}
