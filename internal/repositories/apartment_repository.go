package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/MohnajibG/circet/internal/docstore"
	"github.com/MohnajibG/circet/internal/models"
	"github.com/MohnajibG/circet/internal/utils"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type ApartmentRepository interface {
	// Create rejects a whitespace-only label with ErrValidationRejected
	// (callers treat that as a silent no-op). The floor must fall within
	// the building's current floor range; it is never re-validated if
	// the floor count later shrinks.
	Create(ctx context.Context, buildingID string, floor int, label string) (*models.Apartment, error)

	GetByID(ctx context.Context, buildingID, id string) (*models.Apartment, error)

	// Update applies an arbitrary partial patch. No field-level
	// validation happens here: an unrecognized status value is stored
	// and displayed verbatim.
	Update(ctx context.Context, buildingID, id string, patch map[string]any) error
	Delete(ctx context.Context, buildingID, id string) error

	WatchApartments(ctx context.Context, buildingID string) *ApartmentsSubscription
}

/* ------------------------------------------------------------------
   Live views
------------------------------------------------------------------ */

// ApartmentsSubscription streams the full unordered apartment set of one
// building. Sorting and floor grouping are a view concern, not ours.
type ApartmentsSubscription struct {
	updates chan []*models.Apartment
	inner   *docstore.CollectionSubscription
}

func (s *ApartmentsSubscription) Updates() <-chan []*models.Apartment { return s.updates }
func (s *ApartmentsSubscription) Cancel()                             { s.inner.Cancel() }

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type apartmentRepo struct {
	store     docstore.Store
	buildings BuildingRepository
}

func NewApartmentRepository(store docstore.Store, buildings BuildingRepository) ApartmentRepository {
	return &apartmentRepo{store: store, buildings: buildings}
}

func (r *apartmentRepo) Create(ctx context.Context, buildingID string, floor int, label string) (*models.Apartment, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, utils.ErrValidationRejected
	}

	b, err := r.buildings.GetByID(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, utils.ErrNotFound
	}
	if floor < 1 || floor > models.ClampFloors(b.FloorsCount) {
		return nil, utils.ErrValidationRejected
	}

	a := &models.Apartment{
		Floor:     floor,
		Label:     label,
		Status:    models.StatusNone,
		Notes:     "",
		VisitedAt: nil,
		VisitedBy: nil,
		CreatedAt: time.Now().UTC(),
	}
	id, err := r.store.Create(ctx, apartmentsPath(buildingID), map[string]any{
		"floor":     a.Floor,
		"label":     a.Label,
		"status":    a.Status,
		"notes":     a.Notes,
		"visitedAt": nil,
		"visitedBy": nil,
		"createdAt": a.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	a.ID = id
	return a, nil
}

func (r *apartmentRepo) GetByID(ctx context.Context, buildingID, id string) (*models.Apartment, error) {
	snap, err := r.store.Get(ctx, apartmentPath(buildingID, id))
	if err == utils.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a models.Apartment
	if err := snap.Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *apartmentRepo) Update(ctx context.Context, buildingID, id string, patch map[string]any) error {
	return r.store.Update(ctx, apartmentPath(buildingID, id), patch)
}

func (r *apartmentRepo) Delete(ctx context.Context, buildingID, id string) error {
	return r.store.Delete(ctx, apartmentPath(buildingID, id))
}

func (r *apartmentRepo) WatchApartments(ctx context.Context, buildingID string) *ApartmentsSubscription {
	inner := r.store.WatchCollection(ctx, apartmentsPath(buildingID))
	sub := &ApartmentsSubscription{
		updates: make(chan []*models.Apartment),
		inner:   inner,
	}

	go func() {
		defer close(sub.updates)
		for snap := range inner.Updates() {
			apartments := make([]*models.Apartment, 0, len(snap.Docs))
			decodeOK := true
			for _, doc := range snap.Docs {
				var a models.Apartment
				if err := doc.Decode(&a); err != nil {
					utils.Logger.WithError(err).WithField("building", buildingID).
						Error("Failed to decode apartment snapshot")
					decodeOK = false
					break
				}
				apartments = append(apartments, &a)
			}
			if !decodeOK {
				continue
			}
			select {
			case sub.updates <- apartments:
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub
}
