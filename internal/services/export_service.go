package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MohnajibG/circet/internal/repositories"
)

/* ------------------------------------------------------------------
   Export engine: one CSV row per ledger visit in the requested day
   window, enriched by a point-in-time lookup of the referenced
   building and apartment. The export is a consistent snapshot of
   "what the ledger says joined with what exists right now" — rows
   whose building or apartment has been deleted since the visit keep
   their ids and fall back to empty enrichment fields.
------------------------------------------------------------------ */

var exportHeader = []string{
	"timestamp",
	"building_id",
	"building_address",
	"apartment_id",
	"floor",
	"apartment_label",
	"status",
	"notes",
}

type ExportService struct {
	buildings  repositories.BuildingRepository
	apartments repositories.ApartmentRepository
	ledger     repositories.VisitLedger
}

func NewExportService(
	buildings repositories.BuildingRepository,
	apartments repositories.ApartmentRepository,
	ledger repositories.VisitLedger,
) *ExportService {
	return &ExportService{buildings: buildings, apartments: apartments, ledger: ledger}
}

// ExportFilename names the artifact for a given day: visites_<ISO>.csv.
func ExportFilename(day time.Time) string {
	return fmt.Sprintf("visites_%s.csv", day.Format("2006-01-02"))
}

// BuildDayCSV produces the UTF-8 CSV document for one user and one
// calendar day (local-time bounds, inclusive). Cost is one read per
// visit; cancelling ctx abandons the remaining lookups.
func (s *ExportService) BuildDayCSV(ctx context.Context, uid string, day time.Time) ([]byte, error) {
	start, end := repositories.TodayRange(day)
	return s.BuildWindowCSV(ctx, uid, start, end)
}

// BuildWindowCSV is BuildDayCSV for an arbitrary window.
func (s *ExportService) BuildWindowCSV(ctx context.Context, uid string, start, end time.Time) ([]byte, error) {
	visits, err := s.ledger.ListVisitsInWindow(ctx, uid, start, end)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(visits)+1)
	lines = append(lines, strings.Join(exportHeader, ","))

	for _, v := range visits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		address := ""
		b, err := s.buildings.GetByID(ctx, v.BuildingID)
		if err != nil {
			return nil, err
		}
		if b != nil {
			address = b.Address
		}

		floor, label, status, notes := "", "", "", ""
		if v.ApartmentID != "" {
			a, err := s.apartments.GetByID(ctx, v.BuildingID, v.ApartmentID)
			if err != nil {
				return nil, err
			}
			if a != nil {
				floor = strconv.Itoa(a.Floor)
				label = a.Label
				status = a.Status
				notes = a.Notes
			}
		}

		fields := []string{
			v.Timestamp.Format(time.RFC3339),
			v.BuildingID,
			address,
			v.ApartmentID,
			floor,
			label,
			status,
			notes,
		}
		escaped := make([]string, len(fields))
		for i, f := range fields {
			escaped[i] = csvEscape(f)
		}
		lines = append(lines, strings.Join(escaped, ","))
	}

	return []byte(strings.Join(lines, "\n") + "\n"), nil
}

// csvEscape doubles interior quotes first, then wraps the field in
// quotes when it contains a comma, a quote, or a line break.
func csvEscape(value string) string {
	s := strings.ReplaceAll(value, `"`, `""`)
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + s + `"`
	}
	return s
}
