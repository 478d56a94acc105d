package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MohnajibG/circet/internal/docstore"
	"github.com/MohnajibG/circet/internal/repositories"
)

func newExportFixture(t *testing.T) (context.Context, repositories.BuildingRepository, repositories.ApartmentRepository, repositories.VisitLedger, *ExportService) {
	t.Helper()
	store := docstore.NewMemoryStore()
	buildings := repositories.NewBuildingRepository(store)
	apartments := repositories.NewApartmentRepository(store, buildings)
	ledger := repositories.NewVisitLedger(store)
	return context.Background(), buildings, apartments, ledger, NewExportService(buildings, apartments, ledger)
}

func TestCsvEscape(t *testing.T) {
	cases := map[string]string{
		"plain":                        "plain",
		"":                             "",
		"comma, here":                  `"comma, here"`,
		`He said "hi", then left`:      `"He said ""hi"", then left"`,
		"line\nbreak":                  "\"line\nbreak\"",
		`just "quotes"`:                `"just ""quotes"""`,
		"12 rue des Lilas, 75011":      `"12 rue des Lilas, 75011"`,
		"carriage\rreturn":             "\"carriage\rreturn\"",
		"accents éàü stay unquoted":    "accents éàü stay unquoted",
	}
	for in, want := range cases {
		require.Equal(t, want, csvEscape(in), "input %q", in)
	}
}

func TestExportFilename(t *testing.T) {
	day := time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)
	require.Equal(t, "visites_2026-09-01.csv", ExportFilename(day))
}

func TestBuildDayCSVHeaderOnlyWhenNoVisits(t *testing.T) {
	ctx, _, _, _, exports := newExportFixture(t)

	csv, err := exports.BuildDayCSV(ctx, "u1", time.Now())
	require.NoError(t, err)
	require.Equal(t, "timestamp,building_id,building_address,apartment_id,floor,apartment_label,status,notes\n", string(csv))
}

func TestBuildDayCSVEnrichedRow(t *testing.T) {
	ctx, buildings, apartments, ledger, exports := newExportFixture(t)

	b, err := buildings.Create(ctx, "12 rue des Lilas, 75011 Paris", 3, "u1")
	require.NoError(t, err)
	a, err := apartments.Create(ctx, b.ID, 2, "2B")
	require.NoError(t, err)
	require.NoError(t, apartments.Update(ctx, b.ID, a.ID, map[string]any{
		"status": "conclu",
		"notes":  `Client dit "ok"`,
	}))

	now := time.Now()
	_, err = ledger.RecordVisit(ctx, "u1", b.ID, a.ID, now)
	require.NoError(t, err)

	csv, err := exports.BuildDayCSV(ctx, "u1", now)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(csv), "\n"), "\n")
	require.Len(t, lines, 2)

	row := lines[1]
	require.Contains(t, row, `"12 rue des Lilas, 75011 Paris"`)
	require.Contains(t, row, "2B")
	require.Contains(t, row, ",2,")
	require.Contains(t, row, "conclu")
	require.Contains(t, row, `"Client dit ""ok"""`)
	require.Contains(t, row, b.ID)
	require.Contains(t, row, a.ID)
}

func TestBuildDayCSVDeletedEntitiesFallBackToEmpty(t *testing.T) {
	ctx, buildings, apartments, ledger, exports := newExportFixture(t)

	b, err := buildings.Create(ctx, "1 rue A", 2, "u1")
	require.NoError(t, err)
	a, err := apartments.Create(ctx, b.ID, 1, "A")
	require.NoError(t, err)

	now := time.Now()
	_, err = ledger.RecordVisit(ctx, "u1", b.ID, a.ID, now)
	require.NoError(t, err)

	// The apartment disappears between the visit and the export. Its
	// ledger row survives with empty enrichment fields.
	require.NoError(t, apartments.Delete(ctx, b.ID, a.ID))

	csv, err := exports.BuildDayCSV(ctx, "u1", now)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(csv), "\n"), "\n")
	require.Len(t, lines, 2)

	cols := strings.Split(lines[1], ",")
	require.Len(t, cols, 8)
	require.Equal(t, b.ID, cols[1])
	require.Equal(t, "1 rue A", cols[2])
	require.Equal(t, a.ID, cols[3])
	require.Empty(t, cols[4], "floor falls back to empty")
	require.Empty(t, cols[5], "label falls back to empty")
	require.Empty(t, cols[6], "status falls back to empty")
	require.Empty(t, cols[7], "notes fall back to empty")
}

func TestBuildDayCSVExcludesOtherDays(t *testing.T) {
	ctx, buildings, apartments, ledger, exports := newExportFixture(t)

	b, err := buildings.Create(ctx, "1 rue A", 1, "u1")
	require.NoError(t, err)
	a, err := apartments.Create(ctx, b.ID, 1, "A")
	require.NoError(t, err)

	now := time.Now()
	_, err = ledger.RecordVisit(ctx, "u1", b.ID, a.ID, now.AddDate(0, 0, -1))
	require.NoError(t, err)
	_, err = ledger.RecordVisit(ctx, "u1", b.ID, a.ID, now)
	require.NoError(t, err)

	csv, err := exports.BuildDayCSV(ctx, "u1", now)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(csv), "\n"), "\n")
	require.Len(t, lines, 2, "only today's visit is exported")
}
