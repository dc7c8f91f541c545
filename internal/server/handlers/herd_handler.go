package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lachb/grazier/internal/domain/models"
	"github.com/lachb/grazier/internal/repository/mongodb"
)

const dateLayout = "2006-01-02"

// HerdHandler handles herd entry and mutation endpoints.
type HerdHandler struct {
	repo   mongodb.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewHerdHandler constructs the herd HTTP handler adapter.
func NewHerdHandler(repo mongodb.Repository, logger *zap.Logger) *HerdHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HerdHandler{repo: repo, logger: logger, now: time.Now}
}

// CreateHerdRequest is the inbound payload for herd creation.
type CreateHerdRequest struct {
	Species           string   `json:"species" binding:"required"`
	Breed             string   `json:"breed"`
	Sex               string   `json:"sex"`
	Category          string   `json:"category" binding:"required"`
	AgeMonths         float64  `json:"age_months"`
	HeadCount         int      `json:"head_count" binding:"required"`
	InitialWeightKg   float64  `json:"initial_weight_kg" binding:"required"`
	DailyWeightGain   float64  `json:"daily_weight_gain"`
	WeightBasis       string   `json:"weight_basis"`
	IsBreeder         bool     `json:"is_breeder"`
	CalvingRate       *float64 `json:"calving_rate"`
	PreferredSaleyard string   `json:"preferred_saleyard"`
	State             string   `json:"state"`
	MarketCategory    string   `json:"market_category"`
	Paddock           string   `json:"paddock"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	Notes             string   `json:"notes"`
	MortalityRate     *float64 `json:"mortality_rate"`
}

// Create registers a new herd group entered by the user.
func (h *HerdHandler) Create(c *gin.Context) {
	var req CreateHerdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create herd payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	herd := models.NewHerdGroup(h.now())
	herd.Species = models.Species(req.Species)
	herd.Breed = req.Breed
	herd.Sex = models.Sex(req.Sex)
	if req.Sex == "" {
		herd.Sex = models.SexMixed
	}
	herd.Category = req.Category
	herd.AgeMonths = req.AgeMonths
	herd.HeadCount = req.HeadCount
	herd.InitialWeightKg = req.InitialWeightKg
	herd.CurrentWeightKg = req.InitialWeightKg
	herd.DailyWeightGain = req.DailyWeightGain
	if req.WeightBasis != "" {
		herd.WeightBasis = models.WeightBasis(req.WeightBasis)
	}
	herd.IsBreeder = req.IsBreeder
	if req.CalvingRate != nil {
		herd.CalvingRate = *req.CalvingRate
	}
	herd.PreferredSaleyard = req.PreferredSaleyard
	herd.State = req.State
	herd.MarketCategory = req.MarketCategory
	herd.Notes = req.Notes
	herd.MortalityRate = req.MortalityRate
	if req.Paddock != "" || req.Latitude != nil {
		herd.Location = &models.Location{
			Paddock:   req.Paddock,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		}
	}

	if err := herd.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.repo.CreateHerd(c.Request.Context(), herd); err != nil {
		h.logger.Error("failed creating herd", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create herd"})
		return
	}

	c.JSON(http.StatusCreated, herd)
}

// List returns every herd record.
func (h *HerdHandler) List(c *gin.Context) {
	herds, err := h.repo.ListHerds(c.Request.Context())
	if err != nil {
		h.logger.Error("failed listing herds", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list herds"})
		return
	}
	c.JSON(http.StatusOK, herds)
}

// Get returns one herd by id.
func (h *HerdHandler) Get(c *gin.Context) {
	herd, err := h.repo.GetHerd(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondNotFoundOrError(c, err, "failed to fetch herd")
		return
	}
	c.JSON(http.StatusOK, herd)
}

// UpdateGrowthRate revises a herd's daily weight gain, snapshotting the
// previous rate for piecewise projection.
func (h *HerdHandler) UpdateGrowthRate(c *gin.Context) {
	var req struct {
		DailyWeightGain float64 `json:"daily_weight_gain"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.mutateHerd(c, func(herd *models.HerdGroup) error {
		return herd.UpdateGrowthRate(req.DailyWeightGain, h.now())
	})
}

// UpdateLocation moves a herd to another paddock.
func (h *HerdHandler) UpdateLocation(c *gin.Context) {
	var req struct {
		Paddock   string   `json:"paddock"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.mutateHerd(c, func(herd *models.HerdGroup) error {
		herd.Location = &models.Location{
			Paddock:   req.Paddock,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		}
		herd.UpdatedAt = h.now()
		return nil
	})
}

// Join records the joining date for a breeder herd.
func (h *HerdHandler) Join(c *gin.Context) {
	var req struct {
		JoinedDate string `json:"joined_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	joined, err := time.Parse(dateLayout, req.JoinedDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "joined_date must be YYYY-MM-DD"})
		return
	}

	h.mutateHerd(c, func(herd *models.HerdGroup) error {
		return herd.MarkJoined(joined, h.now())
	})
}

// ConfirmPregnancy moves a joined herd into the pregnant state.
func (h *HerdHandler) ConfirmPregnancy(c *gin.Context) {
	h.mutateHerd(c, func(herd *models.HerdGroup) error {
		return herd.MarkPregnant(h.now())
	})
}

// RecordSale finalizes a herd as sold. Sold herds are retained and valued at
// the recorded price from then on.
func (h *HerdHandler) RecordSale(c *gin.Context) {
	var req struct {
		SoldDate   string          `json:"sold_date" binding:"required"`
		PricePerKg decimal.Decimal `json:"price_per_kg" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	soldDate, err := time.Parse(dateLayout, req.SoldDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sold_date must be YYYY-MM-DD"})
		return
	}

	h.mutateHerd(c, func(herd *models.HerdGroup) error {
		return herd.RecordSale(soldDate, req.PricePerKg, h.now())
	})
}

func (h *HerdHandler) mutateHerd(c *gin.Context, mutate func(*models.HerdGroup) error) {
	ctx := c.Request.Context()

	herd, err := h.repo.GetHerd(ctx, c.Param("id"))
	if err != nil {
		h.respondNotFoundOrError(c, err, "failed to fetch herd")
		return
	}

	if err := mutate(&herd); err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("herd mutation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update herd"})
		return
	}

	if err := h.repo.UpdateHerd(ctx, herd); err != nil {
		h.respondNotFoundOrError(c, err, "failed to update herd")
		return
	}

	c.JSON(http.StatusOK, herd)
}

func (h *HerdHandler) respondNotFoundOrError(c *gin.Context, err error, message string) {
	if errors.Is(err, mongodb.ErrHerdNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "herd not found"})
		return
	}
	if errors.Is(err, models.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error(message, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
