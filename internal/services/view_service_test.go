package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MohnajibG/circet/internal/models"
)

func apt(floor int, label, status string) *models.Apartment {
	return &models.Apartment{ID: label, Floor: floor, Label: label, Status: status}
}

func labels(apartments []*models.Apartment) []string {
	out := make([]string, len(apartments))
	for i, a := range apartments {
		out[i] = a.Label
	}
	return out
}

func TestFloorListDerived(t *testing.T) {
	require.Equal(t, []int{1, 2, 3}, FloorList(3))
	require.Equal(t, []int{1}, FloorList(1))
	// Zero and negative counts still render a single floor.
	require.Equal(t, []int{1}, FloorList(0))
	require.Equal(t, []int{1}, FloorList(-4))
}

func TestSortByLabelNumericAware(t *testing.T) {
	apartments := []*models.Apartment{
		apt(1, "10", ""),
		apt(1, "2", ""),
		apt(1, "1", ""),
	}
	SortByLabel(apartments)
	require.Equal(t, []string{"1", "2", "10"}, labels(apartments))
}

func TestSortByLabelMixed(t *testing.T) {
	apartments := []*models.Apartment{
		apt(1, "B2", ""),
		apt(1, "b10", ""),
		apt(1, "A1", ""),
	}
	SortByLabel(apartments)
	require.Equal(t, []string{"A1", "B2", "b10"}, labels(apartments))
}

func TestGroupByFloorEmptyFloorsPresent(t *testing.T) {
	groups := GroupByFloor([]*models.Apartment{apt(2, "A", "")}, 3, StatusFilterAll)

	require.Len(t, groups, 3)
	require.Equal(t, 1, groups[0].Floor)
	require.Empty(t, groups[0].Apartments)
	require.Equal(t, []string{"A"}, labels(groups[1].Apartments))
	require.Empty(t, groups[2].Apartments)
}

func TestGroupByFloorStatusFilter(t *testing.T) {
	apartments := []*models.Apartment{
		apt(1, "A", models.StatusConclu),
		apt(1, "B", models.StatusAbsent),
		apt(1, "C", ""), // missing status counts as "none"
	}

	groups := GroupByFloor(apartments, 1, models.StatusConclu)
	require.Equal(t, []string{"A"}, labels(groups[0].Apartments))

	groups = GroupByFloor(apartments, 1, models.StatusNone)
	require.Equal(t, []string{"C"}, labels(groups[0].Apartments))

	groups = GroupByFloor(apartments, 1, StatusFilterAll)
	require.Len(t, groups[0].Apartments, 3)
}

func TestGroupByFloorDropsApartmentsAboveTopFloor(t *testing.T) {
	apartments := []*models.Apartment{
		apt(1, "A", ""),
		apt(5, "Orphan", ""), // floor count shrank after creation
	}

	groups := GroupByFloor(apartments, 2, StatusFilterAll)
	require.Len(t, groups, 2)
	for _, g := range groups {
		require.NotContains(t, labels(g.Apartments), "Orphan")
	}
}
