package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/MohnajibG/circet/internal/config"
	"github.com/MohnajibG/circet/internal/docstore"
	"github.com/MohnajibG/circet/internal/middleware"
	"github.com/MohnajibG/circet/internal/repositories"
	"github.com/MohnajibG/circet/internal/routes"
	"github.com/MohnajibG/circet/internal/services"
)

type testEnv struct {
	router  *mux.Router
	canvass *services.CanvassService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := docstore.NewMemoryStore()
	buildings := repositories.NewBuildingRepository(store)
	apartments := repositories.NewApartmentRepository(store, buildings)
	profiles := repositories.NewUserProfileRepository(store)
	ledger := repositories.NewVisitLedger(store)

	canvass := services.NewCanvassService(&config.Config{}, buildings, apartments, profiles, ledger)
	exports := services.NewExportService(buildings, apartments, ledger)

	buildingsCtl := NewBuildingsController(canvass)
	apartmentsCtl := NewApartmentsController(canvass)
	visitsCtl := NewVisitsController(canvass, exports)
	profileCtl := NewProfileController(canvass)

	router := mux.NewRouter()
	router.HandleFunc(routes.Buildings, buildingsCtl.ListBuildingsHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.Buildings, buildingsCtl.CreateBuildingHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.Building, buildingsCtl.GetBuildingHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.Building, buildingsCtl.UpdateBuildingHandler).Methods(http.MethodPatch)
	router.HandleFunc(routes.Apartments, apartmentsCtl.CreateApartmentHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.Apartment, apartmentsCtl.UpdateApartmentHandler).Methods(http.MethodPatch)
	router.HandleFunc(routes.Apartment, apartmentsCtl.DeleteApartmentHandler).Methods(http.MethodDelete)
	router.HandleFunc(routes.ApartmentNotes, apartmentsCtl.NotesDraftHandler).Methods(http.MethodPut)
	router.HandleFunc(routes.ApartmentVisit, visitsCtl.MarkVisitedHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.DoorCount, visitsCtl.DoorCountHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.Profile, profileCtl.GetProfileHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.Profile, profileCtl.UpdateProfileHandler).Methods(http.MethodPut)
	router.HandleFunc(routes.ExportVisits, visitsCtl.ExportVisitsHandler).Methods(http.MethodGet)

	return &testEnv{router: router, canvass: canvass}
}

// do issues a request as an authenticated user, the way the auth
// middleware would present it.
func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, "u1")
	ctx = context.WithValue(ctx, middleware.ContextKeyDisplayName, "Marie")
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createBuilding(t *testing.T, address string, floors int) string {
	t.Helper()
	b, err := e.canvass.CreateBuilding(context.Background(), "u1", address, floors)
	require.NoError(t, err)
	return b.ID
}

func TestCreateBuildingEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/buildings", `{"address":"1 rue A","floors_count":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		ID          string `json:"id"`
		Address     string `json:"address"`
		FloorsCount int    `json:"floors_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.ID)
	require.Equal(t, "1 rue A", body.Address)
	require.Equal(t, 3, body.FloorsCount)
}

func TestCreateBuildingBlankAddressIsNoContent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/buildings", `{"address":"   ","floors_count":3}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/buildings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"buildings":[]`)
}

func TestUpdateBuildingWithCoordinates(t *testing.T) {
	env := newTestEnv(t)
	bID := env.createBuilding(t, "1 rue A", 2)

	rec := env.do(t, http.MethodPatch, "/api/v1/buildings/"+bID,
		`{"address":"1 Rue A, 75001 Paris","lat":48.8566,"lng":2.3522}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/buildings/"+bID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "1 Rue A, 75001 Paris")
	require.Contains(t, rec.Body.String(), "48.8566")
}

func TestGetBuildingNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/buildings/ghost", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "not_found")
}

func TestCreateApartmentBlankLabelIsNoContent(t *testing.T) {
	env := newTestEnv(t)
	bID := env.createBuilding(t, "1 rue A", 2)

	rec := env.do(t, http.MethodPost, "/api/v1/buildings/"+bID+"/apartments", `{"floor":1,"label":"  "}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateApartmentOutOfRangeFloorIsNoContent(t *testing.T) {
	env := newTestEnv(t)
	bID := env.createBuilding(t, "1 rue A", 2)

	rec := env.do(t, http.MethodPost, "/api/v1/buildings/"+bID+"/apartments", `{"floor":9,"label":"A"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMarkVisitedAndDoorCount(t *testing.T) {
	env := newTestEnv(t)
	bID := env.createBuilding(t, "1 rue A", 1)

	rec := env.do(t, http.MethodPost, "/api/v1/buildings/"+bID+"/apartments", `{"floor":1,"label":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var apt struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apt))

	rec = env.do(t, http.MethodPost, "/api/v1/buildings/"+bID+"/apartments/"+apt.ID+"/visit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "visited_at")

	rec = env.do(t, http.MethodGet, "/api/v1/me/doorcount", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"count":1`)
}

func TestExportEndpointHeaders(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/me/visits/export?date=2026-09-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "attachment; filename=visites_2026-09-01.csv", rec.Header().Get("Content-Disposition"))
	require.True(t, strings.HasPrefix(rec.Body.String(),
		"timestamp,building_id,building_address,apartment_id,floor,apartment_label,status,notes"))
}

func TestExportEndpointBadDate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/me/visits/export?date=septembre", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/me/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Marie")

	rec = env.do(t, http.MethodPut, "/api/v1/me/profile", `{"display_name":"Jean"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Jean")
}

func TestNotesDraftAccepted(t *testing.T) {
	env := newTestEnv(t)
	bID := env.createBuilding(t, "1 rue A", 1)

	rec := env.do(t, http.MethodPost, "/api/v1/buildings/"+bID+"/apartments", `{"floor":1,"label":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var apt struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apt))

	rec = env.do(t, http.MethodPut, "/api/v1/buildings/"+bID+"/apartments/"+apt.ID+"/notes", `{"value":"RDV mardi"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	// The draft shows through reads before the debounce commits it.
	require.NoError(t, env.canvass.FlushNotes(context.Background()))
}

func TestUpdateApartmentUnknownIs404(t *testing.T) {
	env := newTestEnv(t)
	bID := env.createBuilding(t, "1 rue A", 1)

	rec := env.do(t, http.MethodPatch, "/api/v1/buildings/"+bID+"/apartments/ghost", `{"status":"conclu"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
