package app

import (
	"context"
	"fmt"

	"github.com/MohnajibG/circet/internal/models"
	"github.com/MohnajibG/circet/internal/repositories"
	"github.com/MohnajibG/circet/internal/utils"
)

// SeedTestData inserts one demo building with a handful of apartments
// so a fresh environment has something to canvass. Skipped when any
// building already exists.
func SeedTestData(
	ctx context.Context,
	buildings repositories.BuildingRepository,
	apartments repositories.ApartmentRepository,
) error {
	existing, err := buildings.List(ctx)
	if err != nil {
		return fmt.Errorf("check existing seed data: %w", err)
	}
	if len(existing) > 0 {
		utils.Logger.Info("canvass-service: seed data already present; skipping seeding")
		return nil
	}

	b, err := buildings.Create(ctx, "12 Rue de la Fibre, 75011 Paris", 3, "seed")
	if err != nil {
		return fmt.Errorf("seed building: %w", err)
	}

	seedApartments := []struct {
		floor  int
		label  string
		status string
	}{
		{1, "A", models.StatusNone},
		{1, "B", models.StatusAbsent},
		{2, "A", models.StatusInteresse},
		{2, "B", models.StatusRappeler},
		{3, "A", models.StatusConclu},
	}
	for _, sa := range seedApartments {
		a, err := apartments.Create(ctx, b.ID, sa.floor, sa.label)
		if err != nil {
			return fmt.Errorf("seed apartment %d%s: %w", sa.floor, sa.label, err)
		}
		if sa.status != models.StatusNone {
			if err := apartments.Update(ctx, b.ID, a.ID, map[string]any{"status": sa.status}); err != nil {
				return fmt.Errorf("seed apartment status: %w", err)
			}
		}
	}

	utils.Logger.Infof("canvass-service: seeded demo building %s", b.ID)
	return nil
}
