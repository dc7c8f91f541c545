// Package lifecycle owns breeding-state transitions for herd groups: the
// automatic calving pass and the conversion of legacy calves-at-foot notes
// into first-class offspring records.
package lifecycle

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/lachb/grazier/internal/domain/models"
	"github.com/lachb/grazier/internal/refdata"
)

// daysPerMonth converts the informally recorded age in months to days.
const daysPerMonth = 30

// birthWeightFloor keeps inferred birth weights plausible: never below 30%
// of the recorded average weight.
const birthWeightFloor = 0.30

// HerdStore is the durable-store boundary the manager mutates herds through.
// WithTransaction must give single-writer, all-or-nothing semantics; the
// manager writes each herd's transition (offspring inserts plus the parent
// update) inside one transaction.
type HerdStore interface {
	ListBreeders(ctx context.Context) ([]models.HerdGroup, error)
	CreateHerds(ctx context.Context, herds []models.HerdGroup) error
	UpdateHerd(ctx context.Context, herd models.HerdGroup) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// WeightProjector computes a herd's live weight at a date.
type WeightProjector interface {
	ProjectedWeight(herd models.HerdGroup, asOf time.Time) (float64, error)
}

// Diagnostic reports a herd the passes skipped and why.
type Diagnostic struct {
	HerdID  string `json:"herd_id"`
	Message string `json:"message"`
}

// PassReport summarizes one lifecycle run.
type PassReport struct {
	AsOf               time.Time    `json:"as_of"`
	CalvedHerds        int          `json:"calved_herds"`
	CalvingOffspring   int          `json:"calving_offspring"`
	ConvertedHerds     int          `json:"converted_herds"`
	ConvertedOffspring int          `json:"converted_offspring"`
	Diagnostics        []Diagnostic `json:"diagnostics,omitempty"`
}

// Manager runs the lifecycle passes.
type Manager struct {
	store     HerdStore
	projector WeightProjector
	ref       *refdata.Provider
	logger    *zap.Logger
	now       func() time.Time
}

// NewManager wires a lifecycle manager.
func NewManager(store HerdStore, projector WeightProjector, ref *refdata.Provider, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:     store,
		projector: projector,
		ref:       ref,
		logger:    logger,
		now:       time.Now,
	}
}

// RunPasses runs the automatic calving pass, then the calves-at-foot
// conversion pass, in that fixed order. Valuation reads are only consistent
// after both passes complete; callers invoke this before valuing.
func (m *Manager) RunPasses(ctx context.Context, asOf time.Time) (PassReport, error) {
	report := PassReport{AsOf: asOf}

	if err := m.calvingPass(ctx, asOf, &report); err != nil {
		return report, fmt.Errorf("calving pass: %w", err)
	}
	if err := m.conversionPass(ctx, asOf, &report); err != nil {
		return report, fmt.Errorf("calves-at-foot conversion pass: %w", err)
	}

	m.logger.Info("lifecycle passes complete",
		zap.Time("as_of", asOf),
		zap.Int("calved_herds", report.CalvedHerds),
		zap.Int("calving_offspring", report.CalvingOffspring),
		zap.Int("converted_herds", report.ConvertedHerds),
		zap.Int("converted_offspring", report.ConvertedOffspring),
		zap.Int("diagnostics", len(report.Diagnostics)))

	return report, nil
}

// calvingPass transitions every pregnant herd whose gestation has elapsed:
// offspring records are created dated at the calving date and the parent's
// pregnancy is cleared so it can rejoin.
func (m *Manager) calvingPass(ctx context.Context, asOf time.Time, report *PassReport) error {
	herds, err := m.store.ListBreeders(ctx)
	if err != nil {
		return fmt.Errorf("list breeders: %w", err)
	}

	for _, herd := range herds {
		if herd.Sold || !herd.IsPregnant() || herd.JoinedDate == nil {
			continue
		}

		defaults, ok := m.ref.SpeciesDefaults(herd.Species)
		if !ok {
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				HerdID:  herd.ID,
				Message: fmt.Sprintf("no species defaults for %q", herd.Species),
			})
			continue
		}

		calvingDate := herd.JoinedDate.AddDate(0, 0, defaults.GestationDays)
		if asOf.Before(calvingDate) {
			continue
		}

		motherWeight, err := m.projector.ProjectedWeight(herd, calvingDate)
		if err != nil {
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				HerdID:  herd.ID,
				Message: fmt.Sprintf("mother weight at calving: %v", err),
			})
			continue
		}

		expected := int(math.Round(float64(herd.HeadCount) * herd.CalvingRate))
		birthWeight := motherWeight * defaults.BirthWeightRatio

		offspring := make([]models.HerdGroup, 0, expected)
		for i := 0; i < expected; i++ {
			calf := m.newOffspring(herd, defaults, calvingDate, birthWeight)
			calf.Notes = fmt.Sprintf("Born %s to herd %s", calvingDate.Format("2006-01-02"), herd.ID)
			offspring = append(offspring, calf)
		}

		parent := herd
		parent.ClearPregnancy(m.now())

		if err := m.store.WithTransaction(ctx, func(txCtx context.Context) error {
			if len(offspring) > 0 {
				if err := m.store.CreateHerds(txCtx, offspring); err != nil {
					return err
				}
			}
			return m.store.UpdateHerd(txCtx, parent)
		}); err != nil {
			return fmt.Errorf("record calving for herd %s: %w", herd.ID, err)
		}

		report.CalvedHerds++
		report.CalvingOffspring += expected

		m.logger.Info("herd calved",
			zap.String("herd_id", herd.ID),
			zap.Time("calving_date", calvingDate),
			zap.Int("offspring", expected))
	}

	return nil
}

// conversionPass retires legacy calves-at-foot notes: each well-formed record
// becomes one offspring herd per head, backdated by the recorded age, and the
// substring is stripped from the parent's notes. Stripping is what makes the
// pass idempotent. Malformed notes are skipped untouched and surfaced as
// diagnostics; offspring are never fabricated from partial data.
func (m *Manager) conversionPass(ctx context.Context, asOf time.Time, report *PassReport) error {
	herds, err := m.store.ListBreeders(ctx)
	if err != nil {
		return fmt.Errorf("list breeders: %w", err)
	}

	for _, herd := range herds {
		record, err := models.ParseCalvesAtFoot(herd.Notes)
		if err != nil {
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				HerdID:  herd.ID,
				Message: err.Error(),
			})
			continue
		}
		if record == nil {
			continue
		}

		defaults, ok := m.ref.SpeciesDefaults(herd.Species)
		if !ok {
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				HerdID:  herd.ID,
				Message: fmt.Sprintf("no species defaults for %q", herd.Species),
			})
			continue
		}

		birthWeight, err := m.inferBirthWeight(herd, record, defaults, asOf)
		if err != nil {
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				HerdID:  herd.ID,
				Message: fmt.Sprintf("infer birth weight: %v", err),
			})
			continue
		}

		ageDays := int(math.Round(record.AgeMonths * daysPerMonth))
		birthDate := asOf.AddDate(0, 0, -ageDays)

		offspring := make([]models.HerdGroup, 0, record.Head)
		for i := 0; i < record.Head; i++ {
			calf := m.newOffspring(herd, defaults, birthDate, birthWeight)
			calf.AgeMonths = record.AgeMonths
			calf.Notes = fmt.Sprintf("Converted from calves at foot of herd %s", herd.ID)
			offspring = append(offspring, calf)
		}

		parent := herd
		parent.Notes = models.StripCalvesAtFoot(parent.Notes)
		parent.UpdatedAt = m.now()

		if err := m.store.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := m.store.CreateHerds(txCtx, offspring); err != nil {
				return err
			}
			return m.store.UpdateHerd(txCtx, parent)
		}); err != nil {
			return fmt.Errorf("convert calves at foot for herd %s: %w", herd.ID, err)
		}

		report.ConvertedHerds++
		report.ConvertedOffspring += record.Head

		m.logger.Info("calves-at-foot note converted",
			zap.String("herd_id", herd.ID),
			zap.Int("offspring", record.Head),
			zap.Float64("birth_weight_kg", birthWeight))
	}

	return nil
}

// inferBirthWeight backs the birth weight out of the recorded average weight
// and age, floored at 30% of the average weight. When no weight was recorded
// it falls back to the species ratio of the mother's current weight.
func (m *Manager) inferBirthWeight(herd models.HerdGroup, record *models.CalvesAtFoot, defaults refdata.SpeciesDefaults, asOf time.Time) (float64, error) {
	if record.HasWeight {
		inferred := record.AvgWeightKg - defaults.DefaultDailyWeightGain*record.AgeMonths*daysPerMonth
		floor := record.AvgWeightKg * birthWeightFloor
		return math.Max(inferred, floor), nil
	}

	motherWeight, err := m.projector.ProjectedWeight(herd, asOf)
	if err != nil {
		return 0, err
	}
	return motherWeight * defaults.BirthWeightRatio, nil
}

func (m *Manager) newOffspring(parent models.HerdGroup, defaults refdata.SpeciesDefaults, born time.Time, birthWeight float64) models.HerdGroup {
	calf := models.NewHerdGroup(born)
	calf.UpdatedAt = m.now()
	calf.Species = parent.Species
	calf.Breed = parent.Breed
	calf.Sex = models.SexMixed
	calf.Category = defaults.OffspringCategory
	calf.MarketCategory = defaults.OffspringCategory
	calf.HeadCount = 1
	calf.InitialWeightKg = birthWeight
	calf.CurrentWeightKg = birthWeight
	calf.DailyWeightGain = defaults.DefaultDailyWeightGain
	calf.CalvingRate = defaults.DefaultCalvingRate
	calf.PreferredSaleyard = parent.PreferredSaleyard
	calf.State = parent.State
	calf.Location = parent.Location
	return calf
}
