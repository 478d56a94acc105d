package dtos

import (
	"time"

	"github.com/MohnajibG/circet/internal/models"
)

type CreateApartmentRequest struct {
	Floor int    `json:"floor" validate:"required,min=1"`
	Label string `json:"label"`
}

// UpdateApartmentRequest carries an arbitrary partial patch. Status is
// passed through unvalidated on purpose: the store is permissive and
// an unknown status round-trips verbatim.
type UpdateApartmentRequest struct {
	Label  *string `json:"label,omitempty"`
	Floor  *int    `json:"floor,omitempty"`
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// Patch flattens the set fields into a store-level merge patch.
func (r UpdateApartmentRequest) Patch() map[string]any {
	patch := make(map[string]any)
	if r.Label != nil {
		patch["label"] = *r.Label
	}
	if r.Floor != nil {
		patch["floor"] = *r.Floor
	}
	if r.Status != nil {
		patch["status"] = *r.Status
	}
	if r.Notes != nil {
		patch["notes"] = *r.Notes
	}
	return patch
}

type NotesDraftRequest struct {
	Value string `json:"value"`
}

type ApartmentDTO struct {
	ID        string     `json:"id"`
	Floor     int        `json:"floor"`
	Label     string     `json:"label"`
	Status    string     `json:"status"`
	Notes     string     `json:"notes"`
	VisitedAt *time.Time `json:"visited_at,omitempty"`
	VisitedBy *string    `json:"visited_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func NewApartmentDTO(a *models.Apartment) ApartmentDTO {
	return ApartmentDTO{
		ID:        a.ID,
		Floor:     a.Floor,
		Label:     a.Label,
		Status:    a.EffectiveStatus(),
		Notes:     a.Notes,
		VisitedAt: a.VisitedAt,
		VisitedBy: a.VisitedBy,
		CreatedAt: a.CreatedAt,
	}
}
