package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/MohnajibG/circet/internal/dtos"
	"github.com/MohnajibG/circet/internal/services"
	"github.com/MohnajibG/circet/internal/utils"
)

type ApartmentsController struct {
	canvassService *services.CanvassService
}

func NewApartmentsController(cs *services.CanvassService) *ApartmentsController {
	return &ApartmentsController{canvassService: cs}
}

var apartmentValidate = validator.New()

// ----------------------------------------------------------------
// POST /api/v1/buildings/{buildingId}/apartments
// ----------------------------------------------------------------
func (c *ApartmentsController) CreateApartmentHandler(w http.ResponseWriter, r *http.Request) {
	buildingID := mux.Vars(r)["buildingId"]

	var req dtos.CreateApartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON body", nil, err)
		return
	}
	if err := apartmentValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation,
			err.Error(), nil)
		return
	}

	a, err := c.canvassService.CreateApartment(r.Context(), buildingID, req.Floor, req.Label)
	if errors.Is(err, utils.ErrValidationRejected) {
		// Empty label or out-of-range floor: dropped without an error, like the UI.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if errors.Is(err, utils.ErrNotFound) {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Building not found", nil)
		return
	}
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeWriteFailed,
			"Failed to create apartment", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewApartmentDTO(a))
}

// ----------------------------------------------------------------
// PATCH /api/v1/buildings/{buildingId}/apartments/{apartmentId}
// ----------------------------------------------------------------
func (c *ApartmentsController) UpdateApartmentHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req dtos.UpdateApartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON body", nil, err)
		return
	}
	patch := req.Patch()
	if len(patch) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	err := c.canvassService.UpdateApartment(r.Context(), vars["buildingId"], vars["apartmentId"], patch)
	if errors.Is(err, utils.ErrNotFound) {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Apartment not found", nil)
		return
	}
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeWriteFailed,
			"Failed to update apartment", nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------
// DELETE /api/v1/buildings/{buildingId}/apartments/{apartmentId}
// ----------------------------------------------------------------
func (c *ApartmentsController) DeleteApartmentHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := c.canvassService.DeleteApartment(r.Context(), vars["buildingId"], vars["apartmentId"]); err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeWriteFailed,
			"Failed to delete apartment", nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----------------------------------------------------------------
// PUT /api/v1/buildings/{buildingId}/apartments/{apartmentId}/notes
// ----------------------------------------------------------------
// Keystroke-level notes edits land in the draft buffer; persistence
// happens after the debounce quiet period, so this always accepts.
func (c *ApartmentsController) NotesDraftHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req dtos.NotesDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON body", nil, err)
		return
	}

	c.canvassService.EditNotes(vars["buildingId"], vars["apartmentId"], req.Value)
	w.WriteHeader(http.StatusAccepted)
}
