package dtos

import (
	"time"

	"github.com/MohnajibG/circet/internal/models"
)

type CreateBuildingRequest struct {
	Address     string `json:"address" validate:"required"`
	FloorsCount int    `json:"floors_count"`
}

// UpdateBuildingRequest is a partial patch; absent fields stay untouched.
// Coordinates are accepted alongside a manually corrected address.
type UpdateBuildingRequest struct {
	Address     *string  `json:"address,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	FloorsCount *int     `json:"floors_count,omitempty"`
}

type BuildingDTO struct {
	ID          string    `json:"id"`
	Address     string    `json:"address"`
	Lat         *float64  `json:"lat,omitempty"`
	Lng         *float64  `json:"lng,omitempty"`
	FloorsCount int       `json:"floors_count"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewBuildingDTO(b *models.Building) BuildingDTO {
	return BuildingDTO{
		ID:          b.ID,
		Address:     b.Address,
		Lat:         b.Lat,
		Lng:         b.Lng,
		FloorsCount: b.FloorsCount,
		CreatedBy:   b.CreatedBy,
		CreatedAt:   b.CreatedAt,
	}
}

type ListBuildingsResponse struct {
	Buildings []BuildingDTO `json:"buildings"`
}
