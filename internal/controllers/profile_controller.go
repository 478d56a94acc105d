package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/MohnajibG/circet/internal/dtos"
	"github.com/MohnajibG/circet/internal/services"
	"github.com/MohnajibG/circet/internal/utils"
)

type ProfileController struct {
	canvassService *services.CanvassService
}

func NewProfileController(cs *services.CanvassService) *ProfileController {
	return &ProfileController{canvassService: cs}
}

var profileValidate = validator.New()

// ----------------------------------------------------------------
// GET /api/v1/me/profile
// ----------------------------------------------------------------
// Lazily creates the profile on first contact, seeding the display
// name from the token when it carries one.
func (c *ProfileController) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	p, err := c.canvassService.EnsureProfile(r.Context(), userIDFromContext(r), displayNameFromContext(r))
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to load profile", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewProfileDTO(p))
}

// ----------------------------------------------------------------
// PUT /api/v1/me/profile
// ----------------------------------------------------------------
func (c *ProfileController) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON body", nil, err)
		return
	}
	if err := profileValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation,
			err.Error(), nil)
		return
	}

	uid := userIDFromContext(r)
	if err := c.canvassService.UpdateDisplayName(r.Context(), uid, req.DisplayName); err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeWriteFailed,
			"Failed to update profile", nil, err)
		return
	}

	p, err := c.canvassService.GetProfile(r.Context(), uid)
	if err != nil || p == nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to reload profile", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewProfileDTO(p))
}
