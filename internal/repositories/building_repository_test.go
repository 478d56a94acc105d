package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MohnajibG/circet/internal/docstore"
	"github.com/MohnajibG/circet/internal/utils"
)

func recvBuildingView(t *testing.T, sub *BuildingSubscription) BuildingView {
	t.Helper()
	select {
	case view, ok := <-sub.Updates():
		if !ok {
			t.Fatal("building subscription closed before expected delivery")
		}
		return view
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for building view")
	}
	return BuildingView{}
}

func TestCreateBuildingTrimsAddress(t *testing.T) {
	repo := NewBuildingRepository(docstore.NewMemoryStore())

	b, err := repo.Create(context.Background(), "  12 rue des Lilas  ", 5, "u1")
	require.NoError(t, err)
	require.Equal(t, "12 rue des Lilas", b.Address)
	require.Equal(t, 5, b.FloorsCount)
	require.Equal(t, "u1", b.CreatedBy)
	require.NotEmpty(t, b.ID)
}

func TestCreateBuildingRejectsBlankAddress(t *testing.T) {
	repo := NewBuildingRepository(docstore.NewMemoryStore())

	_, err := repo.Create(context.Background(), "   ", 3, "u1")
	require.ErrorIs(t, err, utils.ErrValidationRejected)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, all, "rejected create must not write anything")
}

func TestCreateBuildingClampsFloors(t *testing.T) {
	repo := NewBuildingRepository(docstore.NewMemoryStore())

	for _, n := range []int{0, -3} {
		b, err := repo.Create(context.Background(), "1 rue A", n, "u1")
		require.NoError(t, err)
		require.Equal(t, 1, b.FloorsCount)
	}
}

func TestUpdateFloorsCountClamps(t *testing.T) {
	ctx := context.Background()
	repo := NewBuildingRepository(docstore.NewMemoryStore())

	b, err := repo.Create(ctx, "1 rue A", 4, "u1")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateFloorsCount(ctx, b.ID, 0))

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.FloorsCount)
}

func TestGetByIDAbsentIsNilNil(t *testing.T) {
	repo := NewBuildingRepository(docstore.NewMemoryStore())

	b, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, b)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewBuildingRepository(store)

	first, err := repo.Create(ctx, "1 rue A", 1, "u1")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := repo.Create(ctx, "2 rue B", 1, "u1")
	require.NoError(t, err)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, second.ID, all[0].ID)
	require.Equal(t, first.ID, all[1].ID)
}

func TestUpdateAddressWithCoordinates(t *testing.T) {
	ctx := context.Background()
	repo := NewBuildingRepository(docstore.NewMemoryStore())

	b, err := repo.Create(ctx, "1 rue A", 2, "u1")
	require.NoError(t, err)

	lat, lng := 48.8566, 2.3522
	require.NoError(t, repo.UpdateAddress(ctx, b.ID, "1 Rue A, 75001 Paris", &lat, &lng))

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, "1 Rue A, 75001 Paris", got.Address)
	require.NotNil(t, got.Lat)
	require.NotNil(t, got.Lng)
	require.InDelta(t, lat, *got.Lat, 1e-9)
	require.InDelta(t, lng, *got.Lng, 1e-9)
}

func TestUpdateAddressAbsentBuilding(t *testing.T) {
	repo := NewBuildingRepository(docstore.NewMemoryStore())

	err := repo.UpdateAddress(context.Background(), "missing", "x", nil, nil)
	require.ErrorIs(t, err, utils.ErrNotFound)
}

func TestWatchBuildingDistinguishesNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewBuildingRepository(docstore.NewMemoryStore())

	sub := repo.WatchBuilding(ctx, "ghost")
	defer sub.Cancel()

	// First delivery for an absent id reports Exists=false. Before this
	// arrives the consumer is loading; after it, the id is "not found".
	view := recvBuildingView(t, sub)
	require.False(t, view.Exists)
	require.Nil(t, view.Building)
}

func TestWatchBuildingStreamsChanges(t *testing.T) {
	ctx := context.Background()
	repo := NewBuildingRepository(docstore.NewMemoryStore())

	b, err := repo.Create(ctx, "1 rue A", 2, "u1")
	require.NoError(t, err)

	sub := repo.WatchBuilding(ctx, b.ID)
	defer sub.Cancel()

	first := recvBuildingView(t, sub)
	require.True(t, first.Exists)
	require.Equal(t, "1 rue A", first.Building.Address)

	require.NoError(t, repo.UpdateAddress(ctx, b.ID, "9 rue Z", nil, nil))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case view := <-sub.Updates():
			if view.Exists && view.Building.Address == "9 rue Z" {
				return
			}
		case <-deadline:
			t.Fatal("never observed the updated address")
		}
	}
}
