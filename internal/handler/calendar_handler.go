package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/models"
	"github.com/06wuuntt/NTUT-Coursesystem/pkg/response"
)

type calendarService interface {
	Events(ctx context.Context) ([]models.CalendarEvent, error)
}

// CalendarHandler exposes the campus calendar endpoint.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// Events godoc
// @Summary Campus calendar events
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /calendar [get]
func (h *CalendarHandler) Events(c *gin.Context) {
	events, err := h.service.Events(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events)
}
