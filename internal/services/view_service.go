package services

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/MohnajibG/circet/internal/models"
)

// StatusFilterAll disables status filtering in grouped views.
const StatusFilterAll = "all"

// FloorGroup is one floor of a building detail view, with its
// apartments filtered and sorted for display.
type FloorGroup struct {
	Floor      int                 `json:"floor"`
	Apartments []*models.Apartment `json:"apartments"`
}

// FloorList derives the floor sequence of a building. Floors are never
// stored: the list is always [1..max(1, floorsCount)].
func FloorList(floorsCount int) []int {
	n := models.ClampFloors(floorsCount)
	floors := make([]int, n)
	for i := range floors {
		floors[i] = i + 1
	}
	return floors
}

// GroupByFloor distributes apartments across the derived floor list,
// applies the status filter, and sorts each floor by label. Apartments
// sitting above the current top floor (the floor count shrank after
// their creation) are dropped from the view, matching the stored-data
// edge case: they survive in the store, not on screen.
func GroupByFloor(apartments []*models.Apartment, floorsCount int, statusFilter string) []FloorGroup {
	byFloor := make(map[int][]*models.Apartment)
	for _, a := range apartments {
		if statusFilter != StatusFilterAll && a.EffectiveStatus() != statusFilter {
			continue
		}
		byFloor[a.Floor] = append(byFloor[a.Floor], a)
	}

	groups := make([]FloorGroup, 0, models.ClampFloors(floorsCount))
	for _, floor := range FloorList(floorsCount) {
		items := byFloor[floor]
		SortByLabel(items)
		groups = append(groups, FloorGroup{Floor: floor, Apartments: items})
	}
	return groups
}

// SortByLabel orders apartments by label ascending with locale-aware,
// numeric-aware comparison: "1", "2", "10" rather than "1", "10", "2".
func SortByLabel(apartments []*models.Apartment) {
	c := collate.New(language.French, collate.Numeric, collate.IgnoreCase)
	sort.SliceStable(apartments, func(i, j int) bool {
		return c.CompareString(apartments[i].Label, apartments[j].Label) < 0
	})
}
