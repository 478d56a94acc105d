package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/MohnajibG/circet/internal/dtos"
	"github.com/MohnajibG/circet/internal/services"
	"github.com/MohnajibG/circet/internal/utils"
)

type BuildingsController struct {
	canvassService *services.CanvassService
}

func NewBuildingsController(cs *services.CanvassService) *BuildingsController {
	return &BuildingsController{canvassService: cs}
}

var buildingValidate = validator.New()

// ----------------------------------------------------------------
// GET /api/v1/buildings
// ----------------------------------------------------------------
func (c *BuildingsController) ListBuildingsHandler(w http.ResponseWriter, r *http.Request) {
	buildings, err := c.canvassService.ListBuildings(r.Context())
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to list buildings", nil, err)
		return
	}

	resp := dtos.ListBuildingsResponse{Buildings: make([]dtos.BuildingDTO, 0, len(buildings))}
	for _, b := range buildings {
		resp.Buildings = append(resp.Buildings, dtos.NewBuildingDTO(b))
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------
// POST /api/v1/buildings
// ----------------------------------------------------------------
func (c *BuildingsController) CreateBuildingHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateBuildingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON body", nil, err)
		return
	}
	if err := buildingValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation,
			err.Error(), nil)
		return
	}

	b, err := c.canvassService.CreateBuilding(r.Context(), userIDFromContext(r), req.Address, req.FloorsCount)
	if errors.Is(err, utils.ErrValidationRejected) {
		// Whitespace-only address: dropped without an error, like the UI.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeWriteFailed,
			"Failed to create building", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewBuildingDTO(b))
}

// ----------------------------------------------------------------
// GET /api/v1/buildings/{buildingId}
// ----------------------------------------------------------------
func (c *BuildingsController) GetBuildingHandler(w http.ResponseWriter, r *http.Request) {
	buildingID := mux.Vars(r)["buildingId"]

	b, err := c.canvassService.GetBuilding(r.Context(), buildingID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to load building", nil, err)
		return
	}
	if b == nil {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Building not found", nil)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewBuildingDTO(b))
}

// ----------------------------------------------------------------
// PATCH /api/v1/buildings/{buildingId}
// ----------------------------------------------------------------
func (c *BuildingsController) UpdateBuildingHandler(w http.ResponseWriter, r *http.Request) {
	buildingID := mux.Vars(r)["buildingId"]

	var req dtos.UpdateBuildingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON body", nil, err)
		return
	}

	ctx := r.Context()
	if req.Address != nil {
		var err error
		if req.Lat != nil && req.Lng != nil {
			err = c.canvassService.SetBuildingLocation(ctx, buildingID, *req.Address, req.Lat, req.Lng)
		} else {
			err = c.canvassService.UpdateBuildingAddress(ctx, buildingID, *req.Address)
		}
		if err != nil {
			respondUpdateError(w, err, "Failed to update address")
			return
		}
	}
	if req.FloorsCount != nil {
		if err := c.canvassService.UpdateBuildingFloors(ctx, buildingID, *req.FloorsCount); err != nil {
			respondUpdateError(w, err, "Failed to update floor count")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------
// GET /api/v1/buildings/{buildingId}/live  (server-sent events)
// ----------------------------------------------------------------
func (c *BuildingsController) LiveBuildingHandler(w http.ResponseWriter, r *http.Request) {
	buildingID := mux.Vars(r)["buildingId"]
	statusFilter := r.URL.Query().Get("status")

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Streaming unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	views, cancel := c.canvassService.WatchBuildingDetail(r.Context(), buildingID, statusFilter)
	defer cancel()

	for view := range views {
		payload, err := json.Marshal(view)
		if err != nil {
			utils.Logger.WithError(err).Error("Failed to marshal building view")
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()
	}
}

func respondUpdateError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, utils.ErrNotFound) {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Building not found", nil)
		return
	}
	utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeWriteFailed,
		msg, nil, err)
}
