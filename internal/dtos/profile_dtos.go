package dtos

import (
	"time"

	"github.com/MohnajibG/circet/internal/models"
)

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
}

type ProfileDTO struct {
	UID         string    `json:"uid"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

func NewProfileDTO(p *models.UserProfile) ProfileDTO {
	return ProfileDTO{
		UID:         p.UID,
		DisplayName: p.DisplayName,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
