package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Species enumerates the livestock species tracked by the system.
type Species string

const (
	SpeciesCattle Species = "Cattle"
	SpeciesSheep  Species = "Sheep"
	SpeciesGoat   Species = "Goat"
	SpeciesPig    Species = "Pig"
)

// IsValid reports whether the species is one of the supported values.
func (s Species) IsValid() bool {
	switch s {
	case SpeciesCattle, SpeciesSheep, SpeciesGoat, SpeciesPig:
		return true
	default:
		return false
	}
}

// Sex describes the sex composition of a herd group.
type Sex string

const (
	SexFemale   Sex = "Female"
	SexMale     Sex = "Male"
	SexCastrate Sex = "Castrate"
	SexMixed    Sex = "Mixed"
)

// BreedingState is the explicit breeding-lifecycle state of a herd group.
// Calving is an event, not a resting state: once a pregnant herd calves it
// returns to StateNotBreeding with its pregnancy cleared, ready to rejoin.
type BreedingState string

const (
	StateNotBreeding BreedingState = "not_breeding"
	StateJoined      BreedingState = "joined"
	StatePregnant    BreedingState = "pregnant"
)

// WeightBasis selects the date the initial weight was measured against:
// the herd's creation date, or "today" at projection time.
type WeightBasis string

const (
	BasisCreation WeightBasis = "creation"
	BasisToday    WeightBasis = "today"
)

// RateCheckpoint snapshots the previous daily weight gain when the rate is
// revised mid-lifecycle, so growth accrued before the change is kept.
type RateCheckpoint struct {
	PreviousRate float64   `bson:"previous_rate" json:"previous_rate"`
	ChangedAt    time.Time `bson:"changed_at" json:"changed_at"`
}

// Location is an optional paddock assignment with coordinates.
type Location struct {
	Paddock   string   `bson:"paddock,omitempty" json:"paddock,omitempty"`
	Latitude  *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
}

// HerdGroup is a cohort of one or more animals tracked and valued as a unit.
type HerdGroup struct {
	ID        string    `bson:"_id" json:"id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	Species   Species `bson:"species" json:"species"`
	Breed     string  `bson:"breed" json:"breed"`
	Sex       Sex     `bson:"sex" json:"sex"`
	Category  string  `bson:"category" json:"category"`
	AgeMonths float64 `bson:"age_months" json:"age_months"`

	HeadCount       int             `bson:"head_count" json:"head_count"`
	InitialWeightKg float64         `bson:"initial_weight_kg" json:"initial_weight_kg"`
	CurrentWeightKg float64         `bson:"current_weight_kg" json:"current_weight_kg"`
	DailyWeightGain float64         `bson:"daily_weight_gain" json:"daily_weight_gain"`
	RateCheckpoint  *RateCheckpoint `bson:"rate_checkpoint,omitempty" json:"rate_checkpoint,omitempty"`
	WeightBasis     WeightBasis     `bson:"weight_basis" json:"weight_basis"`

	IsBreeder     bool          `bson:"is_breeder" json:"is_breeder"`
	BreedingState BreedingState `bson:"breeding_state" json:"breeding_state"`
	JoinedDate    *time.Time    `bson:"joined_date,omitempty" json:"joined_date,omitempty"`
	CalvingRate   float64       `bson:"calving_rate" json:"calving_rate"`
	Lactation     string        `bson:"lactation,omitempty" json:"lactation,omitempty"`

	PreferredSaleyard string `bson:"preferred_saleyard,omitempty" json:"preferred_saleyard,omitempty"`
	State             string `bson:"state,omitempty" json:"state,omitempty"`
	MarketCategory    string `bson:"market_category,omitempty" json:"market_category,omitempty"`

	Sold           bool             `bson:"sold" json:"sold"`
	SoldDate       *time.Time       `bson:"sold_date,omitempty" json:"sold_date,omitempty"`
	SoldPricePerKg *decimal.Decimal `bson:"sold_price_per_kg,omitempty" json:"sold_price_per_kg,omitempty"`

	Location *Location `bson:"location,omitempty" json:"location,omitempty"`
	Notes    string    `bson:"notes,omitempty" json:"notes,omitempty"`

	MortalityRate *float64 `bson:"mortality_rate,omitempty" json:"mortality_rate,omitempty"`
}

// DefaultCalvingRate is applied when a breeder herd is created without one.
const DefaultCalvingRate = 0.85

// NewHerdGroup builds a herd group with a fresh identity and timestamps.
// The caller is expected to populate biology and physical fields, then
// Validate before persisting.
func NewHerdGroup(now time.Time) HerdGroup {
	return HerdGroup{
		ID:            uuid.NewString(),
		CreatedAt:     now,
		UpdatedAt:     now,
		WeightBasis:   BasisCreation,
		BreedingState: StateNotBreeding,
		CalvingRate:   DefaultCalvingRate,
	}
}

// Validate enforces the herd group invariants. It returns an error wrapping
// ErrInvalidInput describing the first violation found.
func (h *HerdGroup) Validate() error {
	if h.ID == "" {
		return fmt.Errorf("missing id: %w", ErrInvalidInput)
	}
	if !h.Species.IsValid() {
		return fmt.Errorf("unknown species %q: %w", h.Species, ErrInvalidInput)
	}
	if h.HeadCount < 1 {
		return fmt.Errorf("head count must be at least 1, got %d: %w", h.HeadCount, ErrInvalidInput)
	}
	if h.InitialWeightKg <= 0 {
		return fmt.Errorf("initial weight must be positive, got %.2f: %w", h.InitialWeightKg, ErrInvalidInput)
	}
	if h.DailyWeightGain < 0 {
		return fmt.Errorf("daily weight gain must not be negative, got %.3f: %w", h.DailyWeightGain, ErrInvalidInput)
	}
	if h.CalvingRate < 0 || h.CalvingRate > 1 {
		return fmt.Errorf("calving rate must be within [0,1], got %.2f: %w", h.CalvingRate, ErrInvalidInput)
	}
	if h.MortalityRate != nil && (*h.MortalityRate < 0 || *h.MortalityRate > 1) {
		return fmt.Errorf("mortality rate must be within [0,1], got %.2f: %w", *h.MortalityRate, ErrInvalidInput)
	}
	if h.WeightBasis != BasisCreation && h.WeightBasis != BasisToday {
		return fmt.Errorf("unknown weight basis %q: %w", h.WeightBasis, ErrInvalidInput)
	}
	if h.RateCheckpoint != nil && h.RateCheckpoint.ChangedAt.Before(h.CreatedAt) {
		return fmt.Errorf("rate checkpoint predates herd creation: %w", ErrInvalidInput)
	}
	if h.Sold {
		if h.SoldDate == nil || h.SoldPricePerKg == nil {
			return fmt.Errorf("sold herd requires sold date and sold price: %w", ErrInvalidInput)
		}
	} else if h.SoldDate != nil || h.SoldPricePerKg != nil {
		return fmt.Errorf("sale fields present on unsold herd: %w", ErrInvalidInput)
	}
	switch h.BreedingState {
	case StateNotBreeding:
	case StateJoined, StatePregnant:
		if !h.IsBreeder {
			return fmt.Errorf("breeding state %q on a non-breeder herd: %w", h.BreedingState, ErrInvalidInput)
		}
		if h.JoinedDate == nil {
			return fmt.Errorf("breeding state %q requires a joined date: %w", h.BreedingState, ErrInvalidInput)
		}
	default:
		return fmt.Errorf("unknown breeding state %q: %w", h.BreedingState, ErrInvalidInput)
	}
	return nil
}

// IsPregnant reports whether the herd is in the pregnant lifecycle state.
func (h *HerdGroup) IsPregnant() bool {
	return h.BreedingState == StatePregnant
}

// MarkJoined records the joining date and moves the herd into the joined
// state. Only breeder herds can be joined.
func (h *HerdGroup) MarkJoined(joined, now time.Time) error {
	if !h.IsBreeder {
		return fmt.Errorf("cannot join a non-breeder herd: %w", ErrInvalidInput)
	}
	if h.Sold {
		return fmt.Errorf("cannot join a sold herd: %w", ErrInvalidInput)
	}
	h.JoinedDate = &joined
	h.BreedingState = StateJoined
	h.UpdatedAt = now
	return nil
}

// MarkPregnant confirms pregnancy on a joined herd.
func (h *HerdGroup) MarkPregnant(now time.Time) error {
	if h.BreedingState != StateJoined {
		return fmt.Errorf("pregnancy requires a joined herd, state is %q: %w", h.BreedingState, ErrInvalidInput)
	}
	h.BreedingState = StatePregnant
	h.UpdatedAt = now
	return nil
}

// ClearPregnancy resets the herd after calving so it can be rejoined.
func (h *HerdGroup) ClearPregnancy(now time.Time) {
	h.BreedingState = StateNotBreeding
	h.JoinedDate = nil
	h.UpdatedAt = now
}

// UpdateGrowthRate revises the daily weight gain, snapshotting the prior rate
// so projection can split growth at the change date. Only a single prior rate
// is retained; a second revision overwrites the checkpoint.
func (h *HerdGroup) UpdateGrowthRate(newRate float64, now time.Time) error {
	if newRate < 0 {
		return fmt.Errorf("daily weight gain must not be negative, got %.3f: %w", newRate, ErrInvalidInput)
	}
	h.RateCheckpoint = &RateCheckpoint{PreviousRate: h.DailyWeightGain, ChangedAt: now}
	h.DailyWeightGain = newRate
	h.UpdatedAt = now
	return nil
}

// RecordSale finalizes the herd as sold at the given per-kilogram price.
// Sold is a terminal status flag; the record is retained.
func (h *HerdGroup) RecordSale(soldDate time.Time, pricePerKg decimal.Decimal, now time.Time) error {
	if h.Sold {
		return fmt.Errorf("herd already sold: %w", ErrInvalidInput)
	}
	if pricePerKg.IsNegative() || pricePerKg.IsZero() {
		return fmt.Errorf("sold price must be positive: %w", ErrInvalidInput)
	}
	if soldDate.Before(h.CreatedAt) {
		return fmt.Errorf("sold date %s precedes herd creation: %w",
			soldDate.Format(time.RFC3339), ErrInvalidInput)
	}
	h.Sold = true
	h.SoldDate = &soldDate
	h.SoldPricePerKg = &pricePerKg
	h.BreedingState = StateNotBreeding
	h.JoinedDate = nil
	h.UpdatedAt = now
	return nil
}
