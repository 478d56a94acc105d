package models

import (
	"time"
)

// Building is the root entity of the canvassing hierarchy. Buildings are
// owned collectively: any authenticated operator may mutate them.
type Building struct {
	ID          string     `json:"id"`
	Address     string     `json:"address"`
	Lat         *float64   `json:"lat,omitempty"`
	Lng         *float64   `json:"lng,omitempty"`
	FloorsCount int        `json:"floorsCount"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ClampFloors normalizes a floor count before it is written. Anything
// below 1 (including unparsed zero values) becomes 1.
func ClampFloors(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
