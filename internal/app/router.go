package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/atayl16/siege-clan-tracker/internal/handler"
	"github.com/atayl16/siege-clan-tracker/internal/middleware"
	"github.com/atayl16/siege-clan-tracker/pkg/config"
	"github.com/atayl16/siege-clan-tracker/pkg/logger"
	corsmiddleware "github.com/atayl16/siege-clan-tracker/pkg/middleware/cors"
	reqidmiddleware "github.com/atayl16/siege-clan-tracker/pkg/middleware/requestid"
)

// NewRouter mounts every HTTP route on a fresh gin engine.
func NewRouter(c *Container) *gin.Engine {
	cfg := c.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(c.Logger, "/health", "/ready", "/metrics"))
	r.Use(middleware.Metrics(c.Metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	var pinger handler.Pinger
	if c.DB != nil {
		pinger = c.DB
	}
	metricsHandler := handler.NewMetricsHandler(c.Metrics, pinger)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	accounts := handler.NewAccountHandler(c.Accounts)
	codes := handler.NewClaimCodeHandler(c.ClaimCodes)
	requests := handler.NewClaimRequestHandler(c.ClaimRequests)
	goals := handler.NewGoalHandler(c.Goals)
	ranks := handler.NewRankHandler(c.Ranks)

	audit := c.Logger.Named("audit")
	admin := middleware.RequireAdmin()

	secured := r.Group(cfg.APIPrefix)
	secured.Use(middleware.JWT(c.Tokens))

	secured.GET("/me", accounts.Me)
	secured.PATCH("/accounts/:id/admin", admin, middleware.Audit(audit, "set_admin"), accounts.SetAdmin)
	secured.GET("/accounts/:id/goals", middleware.RequireSelfOrAdmin("id"), goals.List)

	secured.POST("/claim-codes", admin, middleware.Audit(audit, "issue_claim_code"), codes.Issue)
	secured.POST("/claim-codes/redeem", codes.Redeem)
	secured.GET("/characters/:womId/claim-codes", admin, codes.List)

	secured.POST("/claim-requests", requests.Submit)
	secured.GET("/claim-requests", requests.List)
	secured.GET("/claim-requests/:id", requests.Get)
	secured.POST("/claim-requests/:id/process", admin, middleware.Audit(audit, "process_claim_request"), requests.Process)

	secured.GET("/goals/metrics", goals.Metrics)
	secured.POST("/goals", goals.Create)
	secured.DELETE("/goals/:id", goals.Delete)
	secured.POST("/goals/sync", goals.Sync)

	secured.GET("/characters/:womId/rank", ranks.Classify)
	secured.GET("/ranks/mismatches", admin, ranks.Mismatches)
	secured.POST("/characters/:womId/rank/fix", admin, middleware.Audit(audit, "fix_rank"), ranks.Fix)
	secured.POST("/characters/:womId/rank/toggle", admin, middleware.Audit(audit, "toggle_rank"), ranks.Toggle)

	return r
}
