package models

import (
	"time"
)

// Visit is the immutable record of one door-knock. It is appended under
// the acting user and never updated or deleted. The apartment keeps the
// current-state pointer (visitedAt/visitedBy) while the Visit row is the
// historical record used for daily counting and export; a Visit may
// outlive the apartment it references.
type Visit struct {
	ID          string    `json:"id"`
	BuildingID  string    `json:"buildingId"`
	ApartmentID string    `json:"apartmentId"`
	Timestamp   time.Time `json:"timestamp"`
}
