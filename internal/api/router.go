package api

import (
	"net/http"

	"github.com/evetabi/liquidation-roulette/internal/api/handler"
	"github.com/evetabi/liquidation-roulette/internal/api/middleware"
	"github.com/evetabi/liquidation-roulette/internal/config"
	"github.com/evetabi/liquidation-roulette/internal/service"
	"github.com/evetabi/liquidation-roulette/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	RoundSvc      *service.RoundService
	BetSvc        *service.BetService
	ResolutionSvc *service.ResolutionService
	NarrativeSvc  *service.NarrativeService
	Hub           *ws.Hub
	Cfg           *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	// Request bodies are closed structs.
	binding.EnableDecoderDisallowUnknownFields = true

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Handlers ─────────────────────────────────────────────────────────────
	roundH := handler.NewRoundHandler(deps.RoundSvc, deps.ResolutionSvc)
	betH := handler.NewBetHandler(deps.BetSvc, deps.RoundSvc)
	narrativeH := handler.NewNarrativeHandler(deps.NarrativeSvc)

	// ── Middleware ────────────────────────────────────────────────────────────
	operatorMW := middleware.OperatorMiddleware(deps.Cfg.Auth.OperatorSecret)
	betRL := middleware.RateLimitMiddleware(deps.Cfg.Server.BetRateLimit)
	aiRL := middleware.RateLimitMiddleware(deps.Cfg.Server.AIRateLimit)

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", roundH.Health)

	api := r.Group("/api")
	{
		api.GET("/health", roundH.Health)
		api.GET("/protocols", roundH.Protocols)

		// ── Rounds ───────────────────────────────────────────────────────────
		rounds := api.Group("/rounds")
		{
			rounds.POST("/create", operatorMW, roundH.Create)
			rounds.GET("", roundH.List)
			rounds.GET("/:id", roundH.Get)
			rounds.POST("/:id/bet", betRL, betH.PlaceBet)
			rounds.POST("/:id/resolve", operatorMW, roundH.Resolve)
		}

		api.GET("/bets/:id", betH.GetBet)

		// ── Narrative (strict rate limit) ────────────────────────────────────
		ai := api.Group("/ai")
		ai.Use(aiRL)
		{
			ai.GET("/risk-analysis", narrativeH.RiskAnalysis)
			ai.GET("/predict-round/:id", narrativeH.PredictRound)
			ai.POST("/post-mortem/:id", narrativeH.PostMortem)
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// With no configured origins any origin is allowed; otherwise only listed
// origins are echoed back.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.Server.AllowedOrigins))
	for _, o := range cfg.Server.AllowedOrigins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if len(allowed) == 0 {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
