package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/schedule"
	"github.com/06wuuntt/NTUT-Coursesystem/pkg/response"
)

// PeriodHandler exposes the period catalog the schedule grid is built from.
type PeriodHandler struct {
	catalog *schedule.Catalog
}

// NewPeriodHandler constructs the handler.
func NewPeriodHandler(catalog *schedule.Catalog) *PeriodHandler {
	return &PeriodHandler{catalog: catalog}
}

// List godoc
// @Summary Daily period catalog
// @Tags Simulation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog.Periods())
}
