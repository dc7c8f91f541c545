package lifecycle

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lachb/grazier/internal/domain/models"
	"github.com/lachb/grazier/internal/refdata"
	"github.com/lachb/grazier/internal/service/projection"
)

type memStore struct {
	herds map[string]models.HerdGroup
	order []string
}

func newMemStore() *memStore {
	return &memStore{herds: make(map[string]models.HerdGroup)}
}

func (s *memStore) add(herd models.HerdGroup) {
	s.herds[herd.ID] = herd
	s.order = append(s.order, herd.ID)
}

func (s *memStore) ListBreeders(context.Context) ([]models.HerdGroup, error) {
	var out []models.HerdGroup
	for _, id := range s.order {
		herd := s.herds[id]
		if herd.IsBreeder && !herd.Sold {
			out = append(out, herd)
		}
	}
	return out, nil
}

func (s *memStore) CreateHerds(_ context.Context, herds []models.HerdGroup) error {
	for _, herd := range herds {
		if err := herd.Validate(); err != nil {
			return err
		}
		s.add(herd)
	}
	return nil
}

func (s *memStore) UpdateHerd(_ context.Context, herd models.HerdGroup) error {
	s.herds[herd.ID] = herd
	return nil
}

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *memStore) offspringOf(parentID string) []models.HerdGroup {
	var out []models.HerdGroup
	for _, id := range s.order {
		herd := s.herds[id]
		if !herd.IsBreeder && herd.ID != parentID && strings.Contains(herd.Notes, parentID) {
			out = append(out, herd)
		}
	}
	return out
}

var today = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

func newTestManager(store *memStore) *Manager {
	m := NewManager(store, projection.NewService(nil), refdata.NewProvider(), nil)
	m.now = func() time.Time { return today }
	return m
}

func breederCow(t *testing.T) models.HerdGroup {
	t.Helper()
	herd := models.NewHerdGroup(today.AddDate(-1, 0, 0))
	herd.Species = models.SpeciesCattle
	herd.Breed = "Angus"
	herd.Sex = models.SexFemale
	herd.Category = "Breeding Cow"
	herd.HeadCount = 10
	herd.InitialWeightKg = 500
	herd.CurrentWeightKg = 500
	herd.DailyWeightGain = 0
	herd.IsBreeder = true
	herd.PreferredSaleyard = "Roma Saleyards"
	herd.State = "QLD"
	require.NoError(t, herd.Validate())
	return herd
}

func TestCalvingPass_TriggersAtGestationEnd(t *testing.T) {
	store := newMemStore()
	manager := newTestManager(store)

	cow := breederCow(t)
	joined := today.AddDate(0, 0, -283) // cattle gestation: due exactly today
	require.NoError(t, cow.MarkJoined(joined, today))
	require.NoError(t, cow.MarkPregnant(today))
	store.add(cow)

	report, err := manager.RunPasses(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, report.CalvedHerds)
	assert.Equal(t, 9, report.CalvingOffspring) // round(10 * 0.85)

	offspring := store.offspringOf(cow.ID)
	require.Len(t, offspring, 9)

	headTotal := 0
	calvingDate := joined.AddDate(0, 0, 283)
	for _, calf := range offspring {
		headTotal += calf.HeadCount
		assert.Equal(t, calvingDate, calf.CreatedAt)
		assert.Equal(t, models.SpeciesCattle, calf.Species)
		assert.Equal(t, "Angus", calf.Breed)
		assert.Equal(t, "Calves", calf.Category)
		assert.Equal(t, 0.9, calf.DailyWeightGain)
		assert.Equal(t, "Roma Saleyards", calf.PreferredSaleyard)
		assert.InDelta(t, 500*0.07, calf.InitialWeightKg, 1e-9)
	}
	assert.Equal(t, 9, headTotal)

	parent := store.herds[cow.ID]
	assert.Equal(t, models.StateNotBreeding, parent.BreedingState)
	assert.Nil(t, parent.JoinedDate)
}

func TestCalvingPass_FiresExactlyOnce(t *testing.T) {
	store := newMemStore()
	manager := newTestManager(store)

	cow := breederCow(t)
	joined := today.AddDate(0, 0, -300)
	require.NoError(t, cow.MarkJoined(joined, today))
	require.NoError(t, cow.MarkPregnant(today))
	store.add(cow)

	_, err := manager.RunPasses(context.Background(), today)
	require.NoError(t, err)
	first := len(store.offspringOf(cow.ID))
	require.Equal(t, 9, first)

	report, err := manager.RunPasses(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 0, report.CalvedHerds)
	assert.Len(t, store.offspringOf(cow.ID), first)
}

func TestCalvingPass_NotYetDue(t *testing.T) {
	store := newMemStore()
	manager := newTestManager(store)

	cow := breederCow(t)
	joined := today.AddDate(0, 0, -100)
	require.NoError(t, cow.MarkJoined(joined, today))
	require.NoError(t, cow.MarkPregnant(today))
	store.add(cow)

	report, err := manager.RunPasses(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 0, report.CalvedHerds)

	parent := store.herds[cow.ID]
	assert.True(t, parent.IsPregnant())
}

func TestConversionPass_WithRecordedWeight(t *testing.T) {
	store := newMemStore()
	manager := newTestManager(store)

	cow := breederCow(t)
	cow.Notes = "Quiet mob. Calves at Foot: 10 head, 3 months, 120 kg"
	store.add(cow)

	report, err := manager.RunPasses(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ConvertedHerds)
	assert.Equal(t, 10, report.ConvertedOffspring)

	offspring := store.offspringOf(cow.ID)
	require.Len(t, offspring, 10)

	// birth weight = max(120 - 0.9*90, 120*0.3) = 39
	birthDate := today.AddDate(0, 0, -90)
	for _, calf := range offspring {
		assert.InDelta(t, 39.0, calf.InitialWeightKg, 1e-9)
		assert.Equal(t, birthDate, calf.CreatedAt)
		assert.Equal(t, 1, calf.HeadCount)
		assert.Equal(t, 3.0, calf.AgeMonths)
	}

	parent := store.herds[cow.ID]
	assert.Equal(t, "Quiet mob.", parent.Notes)
}

func TestConversionPass_BirthWeightFloor(t *testing.T) {
	store := newMemStore()
	manager := newTestManager(store)

	// Old calves: the back-projection would go negative without the floor.
	cow := breederCow(t)
	cow.Notes = "Calves at Foot: 2 head, 12 months, 50 kg"
	store.add(cow)

	_, err := manager.RunPasses(context.Background(), today)
	require.NoError(t, err)

	offspring := store.offspringOf(cow.ID)
	require.Len(t, offspring, 2)
	for _, calf := range offspring {
		assert.InDelta(t, 15.0, calf.InitialWeightKg, 1e-9) // 0.30 * 50
	}
}

func TestConversionPass_NoWeightUsesMotherRatio(t *testing.T) {
	store := newMemStore()
	manager := newTestManager(store)

	cow := breederCow(t)
	cow.Notes = "Calves at Foot: 4 head, 2 months"
	store.add(cow)

	_, err := manager.RunPasses(context.Background(), today)
	require.NoError(t, err)

	offspring := store.offspringOf(cow.ID)
	require.Len(t, offspring, 4)
	for _, calf := range offspring {
		assert.InDelta(t, 500*0.07, calf.InitialWeightKg, 1e-9)
	}
}

func TestConversionPass_Idempotent(t *testing.T) {
	store := newMemStore()
	manager := newTestManager(store)

	cow := breederCow(t)
	cow.Notes = "Calves at Foot: 10 head, 3 months, 120 kg"
	store.add(cow)

	_, err := manager.RunPasses(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, store.offspringOf(cow.ID), 10)

	report, err := manager.RunPasses(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ConvertedHerds)
	assert.Len(t, store.offspringOf(cow.ID), 10)
}

func TestConversionPass_MalformedNoteSkipped(t *testing.T) {
	store := newMemStore()
	manager := newTestManager(store)

	cow := breederCow(t)
	cow.Notes = "Calves at Foot: a few, born spring"
	store.add(cow)

	report, err := manager.RunPasses(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ConvertedHerds)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, cow.ID, report.Diagnostics[0].HerdID)

	// The note is left untouched; no offspring are fabricated.
	parent := store.herds[cow.ID]
	assert.Equal(t, cow.Notes, parent.Notes)
	assert.Empty(t, store.offspringOf(cow.ID))
}

func TestRunPasses_CalvingBeforeConversion(t *testing.T) {
	store := newMemStore()
	manager := newTestManager(store)

	due := breederCow(t)
	joined := today.AddDate(0, 0, -283)
	require.NoError(t, due.MarkJoined(joined, today))
	require.NoError(t, due.MarkPregnant(today))
	store.add(due)

	legacy := breederCow(t)
	legacy.Notes = "Calves at Foot: 3 head, 1 months, 90 kg"
	store.add(legacy)

	report, err := manager.RunPasses(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, report.CalvedHerds)
	assert.Equal(t, 1, report.ConvertedHerds)

	// Auto-generated calves carry provenance notes but are not breeders, so
	// a second run re-parses nothing.
	report, err = manager.RunPasses(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 0, report.CalvedHerds)
	assert.Equal(t, 0, report.ConvertedHerds)
}
