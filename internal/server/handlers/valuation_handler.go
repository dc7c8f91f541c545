package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lachb/grazier/internal/repository/mongodb"
	"github.com/lachb/grazier/internal/service/lifecycle"
	"github.com/lachb/grazier/internal/service/market"
	"github.com/lachb/grazier/internal/service/valuation"
)

// ValuationHandler exposes valuation reads and the lifecycle-run trigger.
type ValuationHandler struct {
	engine  *valuation.Engine
	manager *lifecycle.Manager
	repo    mongodb.Repository
	logger  *zap.Logger
	now     func() time.Time
}

// NewValuationHandler constructs the valuation HTTP handler adapter.
func NewValuationHandler(engine *valuation.Engine, manager *lifecycle.Manager, repo mongodb.Repository, logger *zap.Logger) *ValuationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValuationHandler{
		engine:  engine,
		manager: manager,
		repo:    repo,
		logger:  logger,
		now:     time.Now,
	}
}

// ValueHerd returns the valuation of a single herd. Accepts an optional
// as_of=YYYY-MM-DD query parameter, defaulting to now.
func (h *ValuationHandler) ValueHerd(c *gin.Context) {
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}

	herd, err := h.repo.GetHerd(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongodb.ErrHerdNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "herd not found"})
			return
		}
		h.logger.Error("failed fetching herd for valuation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch herd"})
		return
	}

	result, err := h.engine.ValueHerd(c.Request.Context(), herd, asOf)
	if err != nil {
		if errors.Is(err, market.ErrNoPriceAvailable) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("herd valuation failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ValuePortfolio runs both lifecycle passes and then values the full herd
// set, so the read is consistent with breeding state at asOf.
func (h *ValuationHandler) ValuePortfolio(c *gin.Context) {
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	report, err := h.manager.RunPasses(ctx, asOf)
	if err != nil {
		h.logger.Error("lifecycle passes failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lifecycle passes failed"})
		return
	}

	herds, err := h.repo.ListHerds(ctx)
	if err != nil {
		h.logger.Error("failed listing herds", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list herds"})
		return
	}

	summary, err := h.engine.ValuePortfolio(ctx, herds, asOf)
	if err != nil {
		h.logger.Error("portfolio valuation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "portfolio valuation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary, "lifecycle": report})
}

// RunLifecycle triggers the lifecycle passes on demand.
func (h *ValuationHandler) RunLifecycle(c *gin.Context) {
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}

	report, err := h.manager.RunPasses(c.Request.Context(), asOf)
	if err != nil {
		h.logger.Error("lifecycle passes failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lifecycle passes failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ValuationHandler) asOf(c *gin.Context) (time.Time, bool) {
	raw := c.Query("as_of")
	if raw == "" {
		return h.now(), true
	}
	asOf, err := time.Parse(dateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return asOf, true
}
