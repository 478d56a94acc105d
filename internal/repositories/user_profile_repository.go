package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MohnajibG/circet/internal/docstore"
	"github.com/MohnajibG/circet/internal/models"
	"github.com/MohnajibG/circet/internal/utils"
)

type UserProfileRepository interface {
	// Ensure creates the profile the first time an authenticated
	// identity is seen and returns it either way.
	Ensure(ctx context.Context, uid, displayName string) (*models.UserProfile, error)

	GetByUID(ctx context.Context, uid string) (*models.UserProfile, error)

	// List returns every known profile (used by the nightly report job).
	List(ctx context.Context) ([]*models.UserProfile, error)

	// UpdateDisplayName is the only profile mutation. An empty name
	// falls back to the default.
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
}

type userProfileRepo struct{ store docstore.Store }

func NewUserProfileRepository(store docstore.Store) UserProfileRepository {
	return &userProfileRepo{store: store}
}

func (r *userProfileRepo) Ensure(ctx context.Context, uid, displayName string) (*models.UserProfile, error) {
	existing, err := r.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	p := &models.UserProfile{
		UID:         uid,
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   time.Now().UTC(),
	}
	if p.DisplayName == "" {
		p.DisplayName = models.DefaultDisplayName
	}
	err = r.store.Set(ctx, userPath(uid), map[string]any{
		"displayName": p.DisplayName,
		"createdAt":   p.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *userProfileRepo) GetByUID(ctx context.Context, uid string) (*models.UserProfile, error) {
	snap, err := r.store.Get(ctx, userPath(uid))
	if errors.Is(err, utils.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p models.UserProfile
	if err := snap.Decode(&p); err != nil {
		return nil, err
	}
	p.UID = uid
	return &p, nil
}

func (r *userProfileRepo) List(ctx context.Context) ([]*models.UserProfile, error) {
	snap, err := r.store.List(ctx, usersCollection)
	if err != nil {
		return nil, err
	}
	out := make([]*models.UserProfile, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		var p models.UserProfile
		if err := doc.Decode(&p); err != nil {
			return nil, err
		}
		p.UID = doc.ID
		out = append(out, &p)
	}
	return out, nil
}

func (r *userProfileRepo) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = models.DefaultDisplayName
	}
	return r.store.Set(ctx, userPath(uid), map[string]any{
		"displayName": displayName,
		"updatedAt":   time.Now().UTC(),
	})
}
