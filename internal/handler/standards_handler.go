package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/models"
	"github.com/06wuuntt/NTUT-Coursesystem/pkg/response"
)

type standardsService interface {
	DepartmentOptions(ctx context.Context, year string) ([]models.DepartmentOption, error)
	Standard(ctx context.Context, year, departmentKey string) (*models.CourseStandard, error)
}

// StandardsHandler exposes graduation credit standards.
type StandardsHandler struct {
	service standardsService
}

// NewStandardsHandler constructs the handler.
func NewStandardsHandler(service standardsService) *StandardsHandler {
	return &StandardsHandler{service: service}
}

// Options godoc
// @Summary Departments with a published credit standard
// @Tags Standards
// @Produce json
// @Param year path string true "Academic year, e.g. 114"
// @Success 200 {object} response.Envelope
// @Router /standards/{year} [get]
func (h *StandardsHandler) Options(c *gin.Context) {
	options, err := h.service.DepartmentOptions(c.Request.Context(), c.Param("year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options)
}

// Detail godoc
// @Summary Credit standard for one department
// @Tags Standards
// @Produce json
// @Param year path string true "Academic year, e.g. 114"
// @Param department path string true "Department key, e.g. 四技-資訊工程系"
// @Success 200 {object} response.Envelope
// @Router /standards/{year}/{department} [get]
func (h *StandardsHandler) Detail(c *gin.Context) {
	standard, err := h.service.Standard(c.Request.Context(), c.Param("year"), c.Param("department"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, standard)
}
