package repositories

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/MohnajibG/circet/internal/docstore"
	"github.com/MohnajibG/circet/internal/models"
	"github.com/MohnajibG/circet/internal/utils"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type BuildingRepository interface {
	Create(ctx context.Context, address string, floorsCount int, createdBy string) (*models.Building, error)

	GetByID(ctx context.Context, id string) (*models.Building, error)
	List(ctx context.Context) ([]*models.Building, error)

	UpdateAddress(ctx context.Context, id, address string, lat, lng *float64) error
	UpdateFloorsCount(ctx context.Context, id string, floorsCount int) error

	WatchBuilding(ctx context.Context, id string) *BuildingSubscription
}

/* ------------------------------------------------------------------
   Live views
------------------------------------------------------------------ */

// BuildingView is one delivery of a building watch. Exists=false means
// the id resolves to no document ("not found"), which is distinct from
// the loading state a consumer is in before its first delivery.
type BuildingView struct {
	Exists   bool
	Building *models.Building
}

type BuildingSubscription struct {
	updates chan BuildingView
	inner   *docstore.DocSubscription
}

func (s *BuildingSubscription) Updates() <-chan BuildingView { return s.updates }
func (s *BuildingSubscription) Cancel()                      { s.inner.Cancel() }

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type buildingRepo struct{ store docstore.Store }

func NewBuildingRepository(store docstore.Store) BuildingRepository {
	return &buildingRepo{store: store}
}

func (r *buildingRepo) Create(ctx context.Context, address string, floorsCount int, createdBy string) (*models.Building, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, utils.ErrValidationRejected
	}

	b := &models.Building{
		Address:     address,
		FloorsCount: models.ClampFloors(floorsCount),
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}
	id, err := r.store.Create(ctx, buildingsCollection, map[string]any{
		"address":     b.Address,
		"floorsCount": b.FloorsCount,
		"createdBy":   b.CreatedBy,
		"createdAt":   b.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	b.ID = id
	return b, nil
}

func (r *buildingRepo) GetByID(ctx context.Context, id string) (*models.Building, error) {
	snap, err := r.store.Get(ctx, buildingPath(id))
	if errors.Is(err, utils.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var b models.Building
	if err := snap.Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns all buildings ordered by creation time, newest first.
func (r *buildingRepo) List(ctx context.Context) ([]*models.Building, error) {
	snap, err := r.store.List(ctx, buildingsCollection)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Building, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		var b models.Building
		if err := doc.Decode(&b); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *buildingRepo) UpdateAddress(ctx context.Context, id, address string, lat, lng *float64) error {
	patch := map[string]any{"address": address}
	if lat != nil && lng != nil {
		patch["lat"] = *lat
		patch["lng"] = *lng
	}
	return r.store.Update(ctx, buildingPath(id), patch)
}

func (r *buildingRepo) UpdateFloorsCount(ctx context.Context, id string, floorsCount int) error {
	return r.store.Update(ctx, buildingPath(id), map[string]any{
		"floorsCount": models.ClampFloors(floorsCount),
	})
}

// WatchBuilding re-delivers the full building on every remote change.
// The first delivery arrives as soon as the current state is read.
func (r *buildingRepo) WatchBuilding(ctx context.Context, id string) *BuildingSubscription {
	inner := r.store.WatchDoc(ctx, buildingPath(id))
	sub := &BuildingSubscription{
		updates: make(chan BuildingView),
		inner:   inner,
	}

	go func() {
		defer close(sub.updates)
		for snap := range inner.Updates() {
			view := BuildingView{}
			if snap.Exists {
				var b models.Building
				if err := snap.Decode(&b); err != nil {
					utils.Logger.WithError(err).WithField("building", id).
						Error("Failed to decode building snapshot")
					continue
				}
				view = BuildingView{Exists: true, Building: &b}
			}
			select {
			case sub.updates <- view:
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub
}
