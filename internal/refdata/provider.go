// Package refdata supplies static livestock reference data: species breeding
// and growth defaults, breed premium percentages, the indicator-category
// fallback mapping used by price resolution, and saleyard/region metadata.
// All tables are read-only.
package refdata

import (
	"github.com/lachb/grazier/internal/domain/models"
)

// SpeciesDefaults carries the per-species constants used by projection and
// the breeding lifecycle.
type SpeciesDefaults struct {
	GestationDays          int
	DefaultDailyWeightGain float64 // kg/day for young stock
	BirthWeightRatio       float64 // birth weight as a fraction of mother weight
	DefaultCalvingRate     float64
	DefaultMortalityRate   float64 // annual fraction
	OffspringCategory      string
}

type premiumKey struct {
	species  models.Species
	category string // empty means any category
	breed    string
}

// Provider exposes the reference tables. Construct with NewProvider; the
// zero value is not usable.
type Provider struct {
	species    map[models.Species]SpeciesDefaults
	premiums   map[premiumKey]float64
	indicators map[string]string
	saleyards  []string
	states     []string
}

// NewProvider builds a provider over the built-in reference tables.
func NewProvider() *Provider {
	return &Provider{
		species: map[models.Species]SpeciesDefaults{
			models.SpeciesCattle: {
				GestationDays:          283,
				DefaultDailyWeightGain: 0.9,
				BirthWeightRatio:       0.07,
				DefaultCalvingRate:     0.85,
				DefaultMortalityRate:   0.02,
				OffspringCategory:      "Calves",
			},
			models.SpeciesSheep: {
				GestationDays:          150,
				DefaultDailyWeightGain: 0.25,
				BirthWeightRatio:       0.075,
				DefaultCalvingRate:     0.90,
				DefaultMortalityRate:   0.04,
				OffspringCategory:      "Lambs",
			},
			models.SpeciesGoat: {
				GestationDays:          150,
				DefaultDailyWeightGain: 0.15,
				BirthWeightRatio:       0.07,
				DefaultCalvingRate:     0.90,
				DefaultMortalityRate:   0.05,
				OffspringCategory:      "Capretto",
			},
			models.SpeciesPig: {
				GestationDays:          115,
				DefaultDailyWeightGain: 0.6,
				BirthWeightRatio:       0.01,
				DefaultCalvingRate:     0.95,
				DefaultMortalityRate:   0.06,
				OffspringCategory:      "Weaner Pig",
			},
		},
		premiums: map[premiumKey]float64{
			{models.SpeciesCattle, "", "Angus"}:             0.05,
			{models.SpeciesCattle, "", "Wagyu"}:             0.20,
			{models.SpeciesCattle, "", "Hereford"}:          0.02,
			{models.SpeciesCattle, "Weaner Steer", "Angus"}: 0.07,
			{models.SpeciesCattle, "", "Brahman"}:           -0.03,
			{models.SpeciesSheep, "", "Merino"}:             0.04,
			{models.SpeciesSheep, "", "Dorper"}:             0.03,
			{models.SpeciesGoat, "", "Boer"}:                0.05,
			{models.SpeciesPig, "", "Berkshire"}:            0.08,
		},
		// Categories without a separately tracked indicator are priced off the
		// nearest tracked one. Static lookup, never inferred at runtime.
		indicators: map[string]string{
			"Weaner Heifer":     "Weaner Steer",
			"Weaner Bull":       "Weaner Steer",
			"Yearling Bull":     "Yearling Steer",
			"Grown Bull":        "Grown Steer",
			"First Calf Heifer": "Heifer",
			"Breeding Cow":      "Breeder",
			"Dry Cow":           "Breeder",
			"Maiden Ewe":        "Breeding Ewe",
			"Dry Ewe":           "Breeding Ewe",
			"Weaner Ewe":        "Feeder Ewe",
			"Wether Lamb":       "Weaner Lamb",
			"Grower Barrow":     "Grower Pig",
			"Finisher Barrow":   "Finisher Pig",
			"Dry Sow":           "Breeder",
			"Dry Doe":           "Breeder Doe",
			"Sale Buck":         "Breeder Buck",
		},
		saleyards: []string{
			"Wagga Wagga Livestock Marketing Centre",
			"Dubbo Regional Livestock Market",
			"Roma Saleyards",
			"Ballarat Regional Livestock Exchange",
			"Mount Gambier Livestock Exchange",
		},
		states: []string{"NSW", "VIC", "QLD", "SA", "WA"},
	}
}

// SpeciesDefaults returns the defaults for a species. The second return is
// false for species the tables do not cover.
func (p *Provider) SpeciesDefaults(s models.Species) (SpeciesDefaults, bool) {
	d, ok := p.species[s]
	return d, ok
}

// BreedPremium returns the fractional price adjustment for a breed within a
// market category. Category-specific entries win over species-wide ones.
// Unknown breeds carry no premium.
func (p *Provider) BreedPremium(s models.Species, category, breed string) float64 {
	if premium, ok := p.premiums[premiumKey{s, category, breed}]; ok {
		return premium
	}
	if premium, ok := p.premiums[premiumKey{s, "", breed}]; ok {
		return premium
	}
	return 0
}

// IndicatorCategory maps a herd category onto the nearest indicator category
// when the category itself is not separately tracked. Tracked categories map
// to themselves.
func (p *Provider) IndicatorCategory(category string) string {
	if mapped, ok := p.indicators[category]; ok {
		return mapped
	}
	return category
}

// Saleyards lists the known saleyards.
func (p *Provider) Saleyards() []string {
	return append([]string(nil), p.saleyards...)
}

// States lists the known market regions.
func (p *Provider) States() []string {
	return append([]string(nil), p.states...)
}
