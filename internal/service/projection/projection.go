// Package projection computes live weight for a herd group at an arbitrary
// date from its initial weight and piecewise daily weight gain.
package projection

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lachb/grazier/internal/domain/models"
)

const hoursPerDay = 24.0

// Service projects herd live weights.
type Service struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a projection service instance.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, now: time.Now}
}

// ProjectedWeight returns the herd's live weight in kilograms at asOf.
//
// Elapsed time is measured from the herd's creation date, or from "today"
// when the herd's weight basis says the initial weight was current as of
// entry rather than creation. When a rate checkpoint exists, growth is split:
// the previous rate applies from the basis date to the checkpoint, the
// current rate from the checkpoint onwards, so already-accrued growth
// survives a mid-life rate revision. The result never drops below the
// initial weight.
//
// asOf earlier than the herd's creation date is an input-contract violation;
// the module does not model weight before the herd existed. With basis
// "today", an asOf between creation and today has no accrued growth yet and
// projects the initial weight.
func (s *Service) ProjectedWeight(herd models.HerdGroup, asOf time.Time) (float64, error) {
	if asOf.Before(herd.CreatedAt) {
		return 0, fmt.Errorf("projection date %s precedes herd creation date %s: %w",
			asOf.Format(time.RFC3339), herd.CreatedAt.Format(time.RFC3339), models.ErrInvalidInput)
	}

	start := herd.CreatedAt
	if herd.WeightBasis == models.BasisToday {
		start = s.now()
	}

	weight := herd.InitialWeightKg
	if cp := herd.RateCheckpoint; cp != nil && cp.ChangedAt.After(start) {
		split := cp.ChangedAt
		if split.After(asOf) {
			split = asOf
		}
		weight += cp.PreviousRate * daysBetween(start, split)
		weight += herd.DailyWeightGain * daysBetween(split, asOf)
	} else {
		weight += herd.DailyWeightGain * daysBetween(start, asOf)
	}

	if weight < herd.InitialWeightKg {
		weight = herd.InitialWeightKg
	}

	s.logger.Debug("projected weight",
		zap.String("herd_id", herd.ID),
		zap.Time("as_of", asOf),
		zap.Float64("weight_kg", weight))

	return weight, nil
}

func daysBetween(from, to time.Time) float64 {
	if to.Before(from) {
		return 0
	}
	return to.Sub(from).Hours() / hoursPerDay
}
