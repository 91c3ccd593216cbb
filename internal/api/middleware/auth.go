package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// RoleOperator is the only role allowed to create and resolve rounds.
const RoleOperator = "operator"

// CtxOperator is the gin.Context key holding the token subject.
const CtxOperator = "operator"

// OperatorClaims are the JWT claims carried by operator tokens.
type OperatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var errTokenInvalid = errors.New("invalid or expired token")

// ──────────────────────────────────────────────────────────────────────────────
// Token helpers
// ──────────────────────────────────────────────────────────────────────────────

// IssueOperatorToken signs an HS256 operator token for subject, valid for ttl.
func IssueOperatorToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := OperatorClaims{
		Role: RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign operator token: %w", err)
	}
	return signed, nil
}

// ParseOperatorToken verifies signature, algorithm and expiry.
func ParseOperatorToken(secret, tokenString string) (*OperatorClaims, error) {
	claims := &OperatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errTokenInvalid
	}
	return claims, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// OperatorMiddleware
// ──────────────────────────────────────────────────────────────────────────────

// OperatorMiddleware guards operator routes with a Bearer token whose role
// claim is "operator".  With an empty secret every request passes.
func OperatorMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			abort(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "missing bearer token")
			return
		}

		claims, err := ParseOperatorToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			abort(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", err.Error())
			return
		}
		if claims.Role != RoleOperator {
			abort(c, http.StatusForbidden, "ERR_FORBIDDEN", "operator role required")
			return
		}

		c.Set(CtxOperator, claims.Subject)
		c.Next()
	}
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   msg,
		"code":    code,
	})
}
