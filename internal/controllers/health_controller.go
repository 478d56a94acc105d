package controllers

import (
	"context"
	"net/http"

	"github.com/MohnajibG/circet/internal/app"
	"github.com/MohnajibG/circet/internal/dtos"
	"github.com/MohnajibG/circet/internal/utils"
)

type HealthController struct {
	app *app.App
}

func NewHealthController(app *app.App) *HealthController {
	return &HealthController{app}
}

func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if c.app.DB != nil {
		if err := c.app.DB.Ping(context.Background()); err != nil {
			utils.Logger.WithError(err).Error("canvass-service DB unreachable")
			utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Database unreachable", nil, err)
			return
		}
	}
	resp := dtos.HealthCheckResponse{Status: "OK"}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
