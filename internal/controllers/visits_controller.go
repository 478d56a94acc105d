package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/MohnajibG/circet/internal/dtos"
	"github.com/MohnajibG/circet/internal/services"
	"github.com/MohnajibG/circet/internal/utils"
)

type VisitsController struct {
	canvassService *services.CanvassService
	exportService  *services.ExportService
}

func NewVisitsController(cs *services.CanvassService, es *services.ExportService) *VisitsController {
	return &VisitsController{canvassService: cs, exportService: es}
}

// ----------------------------------------------------------------
// POST /api/v1/buildings/{buildingId}/apartments/{apartmentId}/visit
// ----------------------------------------------------------------
func (c *VisitsController) MarkVisitedHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	visitedAt, err := c.canvassService.MarkVisited(r.Context(), userIDFromContext(r), vars["buildingId"], vars["apartmentId"])
	if errors.Is(err, utils.ErrNotFound) {
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Apartment not found", nil)
		return
	}
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeWriteFailed,
			"Failed to record visit", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MarkVisitedResponse{VisitedAt: visitedAt})
}

// ----------------------------------------------------------------
// GET /api/v1/me/doorcount
// ----------------------------------------------------------------
// With Accept: text/event-stream the count is streamed live; otherwise
// the first delivery is returned as a one-shot value. Either way the
// day window is fixed when the request arrives.
func (c *VisitsController) DoorCountHandler(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)

	sub := c.canvassService.WatchTodayCount(r.Context(), uid)
	defer sub.Cancel()

	if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		select {
		case count, ok := <-sub.Updates():
			if !ok {
				utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal,
					"Door count unavailable", nil)
				return
			}
			utils.RespondWithJSON(w, http.StatusOK, dtos.DoorCountResponse{Count: count})
		case <-r.Context().Done():
		}
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Streaming unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for count := range sub.Updates() {
		payload, err := json.Marshal(dtos.DoorCountResponse{Count: count})
		if err != nil {
			utils.Logger.WithError(err).Error("Failed to marshal door count")
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()
	}
}

// ----------------------------------------------------------------
// GET /api/v1/me/visits/export?date=YYYY-MM-DD
// ----------------------------------------------------------------
func (c *VisitsController) ExportVisitsHandler(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)

	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation,
				"date must be YYYY-MM-DD", nil)
			return
		}
		day = parsed
	}

	csv, err := c.exportService.BuildDayCSV(r.Context(), uid, day)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to build export", nil, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s", services.ExportFilename(day)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(csv); err != nil {
		utils.Logger.WithError(err).Warn("Export download interrupted")
	}
}
