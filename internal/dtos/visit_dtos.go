package dtos

import (
	"time"
)

type MarkVisitedResponse struct {
	VisitedAt time.Time `json:"visited_at"`
}

type DoorCountResponse struct {
	Count int `json:"count"`
}
