package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lachb/grazier/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(herds *handlers.HerdHandler, valuations *handlers.ValuationHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.POST("/herds", herds.Create)
	r.GET("/herds", herds.List)
	r.GET("/herds/:id", herds.Get)
	r.PATCH("/herds/:id/growth-rate", herds.UpdateGrowthRate)
	r.PATCH("/herds/:id/location", herds.UpdateLocation)
	r.POST("/herds/:id/join", herds.Join)
	r.POST("/herds/:id/pregnancy", herds.ConfirmPregnancy)
	r.POST("/herds/:id/sale", herds.RecordSale)

	r.GET("/herds/:id/valuation", valuations.ValueHerd)
	r.GET("/portfolio/valuation", valuations.ValuePortfolio)
	r.POST("/lifecycle/run", valuations.RunLifecycle)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
