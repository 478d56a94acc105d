package models

import (
	"time"
)

// Apartment statuses. The store is deliberately permissive: an
// unrecognized status written by a client is stored and surfaced verbatim.
const (
	StatusNone      = "none"
	StatusAbsent    = "absent"
	StatusInteresse = "interesse"
	StatusRappeler  = "rappeler"
	StatusConclu    = "conclu"
)

// Apartment is a unit on one floor of a Building. Its floor must lie
// within [1, building.floorsCount] at creation time; it is not
// re-validated if the floor count later shrinks, so stale apartments
// above the current top floor survive.
type Apartment struct {
	ID        string     `json:"id"`
	Floor     int        `json:"floor"`
	Label     string     `json:"label"`
	Status    string     `json:"status"`
	Notes     string     `json:"notes"`
	VisitedAt *time.Time `json:"visitedAt"`
	VisitedBy *string    `json:"visitedBy"`
	CreatedAt time.Time  `json:"createdAt"`
}

// EffectiveStatus maps a missing status to "none" for filtering.
func (a *Apartment) EffectiveStatus() string {
	if a.Status == "" {
		return StatusNone
	}
	return a.Status
}
