package services

import (
	"context"
	"time"

	"github.com/MohnajibG/circet/internal/config"
	"github.com/MohnajibG/circet/internal/drafts"
	"github.com/MohnajibG/circet/internal/models"
	"github.com/MohnajibG/circet/internal/repositories"
	"github.com/MohnajibG/circet/internal/utils"
)

/* ------------------------------------------------------------------
   CanvassService owns the operator-facing workflows over buildings,
   apartments, visits and profiles. Controllers call into it; it
   coordinates the repositories and the draft buffer.
------------------------------------------------------------------ */

type CanvassService struct {
	cfg        *config.Config
	buildings  repositories.BuildingRepository
	apartments repositories.ApartmentRepository
	profiles   repositories.UserProfileRepository
	ledger     repositories.VisitLedger
	notes      *drafts.Buffer
}

func NewCanvassService(
	cfg *config.Config,
	buildings repositories.BuildingRepository,
	apartments repositories.ApartmentRepository,
	profiles repositories.UserProfileRepository,
	ledger repositories.VisitLedger,
) *CanvassService {
	s := &CanvassService{
		cfg:        cfg,
		buildings:  buildings,
		apartments: apartments,
		profiles:   profiles,
		ledger:     ledger,
	}
	s.notes = drafts.NewBuffer(drafts.DefaultQuietPeriod, s.commitNotesDraft, func(key drafts.DraftKey, err error) {
		utils.Logger.WithError(err).Warnf("Notes draft for apartment %s not persisted", key.ApartmentID)
	})
	return s
}

/* ---------- buildings ---------- */

// CreateBuilding registers a building and, when the address lookup is
// configured, enriches it with the formatted address and coordinates.
// The raw text alone is kept whenever the lookup yields nothing.
func (s *CanvassService) CreateBuilding(ctx context.Context, uid, address string, floorsCount int) (*models.Building, error) {
	b, err := s.buildings.Create(ctx, address, floorsCount, uid)
	if err != nil {
		return nil, err
	}

	if geo := utils.GeocodeAddress(ctx, b.Address, s.cfg.GMapsAPIKey); geo != nil {
		if err := s.buildings.UpdateAddress(ctx, b.ID, geo.FormattedAddress, &geo.Lat, &geo.Lng); err != nil {
			utils.Logger.WithError(err).Warnf("Geocode enrichment for building %s not persisted", b.ID)
			return b, nil
		}
		b.Address = geo.FormattedAddress
		b.Lat = &geo.Lat
		b.Lng = &geo.Lng
	}
	return b, nil
}

func (s *CanvassService) ListBuildings(ctx context.Context) ([]*models.Building, error) {
	return s.buildings.List(ctx)
}

func (s *CanvassService) GetBuilding(ctx context.Context, id string) (*models.Building, error) {
	return s.buildings.GetByID(ctx, id)
}

func (s *CanvassService) UpdateBuildingAddress(ctx context.Context, id, address string) error {
	if geo := utils.GeocodeAddress(ctx, address, s.cfg.GMapsAPIKey); geo != nil {
		return s.buildings.UpdateAddress(ctx, id, geo.FormattedAddress, &geo.Lat, &geo.Lng)
	}
	return s.buildings.UpdateAddress(ctx, id, address, nil, nil)
}

// SetBuildingLocation stores a caller-supplied address and coordinate
// pair verbatim, bypassing the lookup.
func (s *CanvassService) SetBuildingLocation(ctx context.Context, id, address string, lat, lng *float64) error {
	return s.buildings.UpdateAddress(ctx, id, address, lat, lng)
}

func (s *CanvassService) UpdateBuildingFloors(ctx context.Context, id string, floorsCount int) error {
	return s.buildings.UpdateFloorsCount(ctx, id, floorsCount)
}

/* ---------- apartments ---------- */

func (s *CanvassService) CreateApartment(ctx context.Context, buildingID string, floor int, label string) (*models.Apartment, error) {
	return s.apartments.Create(ctx, buildingID, floor, label)
}

func (s *CanvassService) UpdateApartment(ctx context.Context, buildingID, id string, patch map[string]any) error {
	return s.apartments.Update(ctx, buildingID, id, patch)
}

func (s *CanvassService) DeleteApartment(ctx context.Context, buildingID, id string) error {
	s.notes.Discard(drafts.DraftKey{BuildingID: buildingID, ApartmentID: id, Field: "notes"})
	return s.apartments.Delete(ctx, buildingID, id)
}

// EditNotes buffers a keystroke-level notes edit; the draft is
// persisted after the debounce quiet period.
func (s *CanvassService) EditNotes(buildingID, apartmentID, value string) {
	s.notes.Edit(drafts.DraftKey{BuildingID: buildingID, ApartmentID: apartmentID, Field: "notes"}, value)
}

// FlushNotes commits all pending notes drafts immediately.
func (s *CanvassService) FlushNotes(ctx context.Context) error {
	return s.notes.Flush(ctx)
}

func (s *CanvassService) commitNotesDraft(ctx context.Context, key drafts.DraftKey, value string) error {
	return s.apartments.Update(ctx, key.BuildingID, key.ApartmentID, map[string]any{key.Field: value})
}

/* ---------- visits ---------- */

// MarkVisited stamps the apartment's last-visit pointer and appends the
// ledger row, as two independent writes with no cross-entity
// transaction. If the ledger append fails after the apartment write
// succeeded (or the session is anonymous), the apartment keeps its
// stamp and the day's count and export simply miss that row.
func (s *CanvassService) MarkVisited(ctx context.Context, uid, buildingID, apartmentID string) (time.Time, error) {
	now := time.Now().UTC()

	var visitedBy any
	if uid != "" {
		visitedBy = uid
	}
	err := s.apartments.Update(ctx, buildingID, apartmentID, map[string]any{
		"visitedAt": now,
		"visitedBy": visitedBy,
	})
	if err != nil {
		return time.Time{}, err
	}

	if uid == "" {
		return now, nil
	}
	if _, err := s.ledger.RecordVisit(ctx, uid, buildingID, apartmentID, now); err != nil {
		utils.Logger.WithError(err).Errorf("Visit ledger append failed for apartment %s", apartmentID)
		return time.Time{}, err
	}
	return now, nil
}

func (s *CanvassService) WatchTodayCount(ctx context.Context, uid string) *repositories.CountSubscription {
	return s.ledger.WatchTodayCount(ctx, uid)
}

/* ---------- profiles ---------- */

func (s *CanvassService) EnsureProfile(ctx context.Context, uid, displayName string) (*models.UserProfile, error) {
	return s.profiles.Ensure(ctx, uid, displayName)
}

func (s *CanvassService) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	return s.profiles.GetByUID(ctx, uid)
}

func (s *CanvassService) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	if _, err := s.profiles.Ensure(ctx, uid, displayName); err != nil {
		return err
	}
	return s.profiles.UpdateDisplayName(ctx, uid, displayName)
}

/* ---------- live building detail ---------- */

// BuildingDetailView is one delivery of the composed live view: the
// building plus its apartments grouped by derived floor, filtered and
// sorted for display. NotFound marks a selected id with no document
// behind it, which consumers keep distinct from their pre-first-
// delivery loading state.
type BuildingDetailView struct {
	NotFound bool             `json:"not_found,omitempty"`
	Building *models.Building `json:"building,omitempty"`
	Floors   []FloorGroup     `json:"floors,omitempty"`
}

// WatchBuildingDetail merges the building and apartment streams into
// one grouped view stream. Pending notes drafts take precedence over
// the committed values in what is delivered. The returned cancel is
// idempotent and must be called when the owner moves to another
// building, so stale subscriptions do not keep acting.
func (s *CanvassService) WatchBuildingDetail(ctx context.Context, buildingID, statusFilter string) (<-chan BuildingDetailView, func()) {
	if statusFilter == "" {
		statusFilter = StatusFilterAll
	}

	bSub := s.buildings.WatchBuilding(ctx, buildingID)
	aSub := s.apartments.WatchApartments(ctx, buildingID)

	out := make(chan BuildingDetailView)
	cancel := func() {
		bSub.Cancel()
		aSub.Cancel()
	}

	go func() {
		defer close(out)

		var (
			current    *models.Building
			notFound   bool
			apartments []*models.Apartment
			haveB      bool
		)

		bUpdates := bSub.Updates()
		aUpdates := aSub.Updates()
		for bUpdates != nil || aUpdates != nil {
			select {
			case view, ok := <-bUpdates:
				if !ok {
					bUpdates = nil
					continue
				}
				haveB = true
				notFound = !view.Exists
				current = view.Building
			case apts, ok := <-aUpdates:
				if !ok {
					aUpdates = nil
					continue
				}
				apartments = apts
			case <-ctx.Done():
				return
			}

			if !haveB {
				continue
			}
			detail := BuildingDetailView{NotFound: notFound}
			if current != nil {
				detail.Building = current
				detail.Floors = GroupByFloor(s.resolveDrafts(buildingID, apartments), current.FloorsCount, statusFilter)
			}
			select {
			case out <- detail:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, cancel
}

// resolveDrafts overlays pending notes drafts on the live apartments.
func (s *CanvassService) resolveDrafts(buildingID string, apartments []*models.Apartment) []*models.Apartment {
	out := make([]*models.Apartment, len(apartments))
	for i, a := range apartments {
		key := drafts.DraftKey{BuildingID: buildingID, ApartmentID: a.ID, Field: "notes"}
		if draft := s.notes.Resolve(key, a.Notes); draft != a.Notes {
			cp := *a
			cp.Notes = draft
			out[i] = &cp
			continue
		}
		out[i] = a
	}
	return out
}
