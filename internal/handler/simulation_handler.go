package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/service"
	"github.com/06wuuntt/NTUT-Coursesystem/internal/simulation"
	appErrors "github.com/06wuuntt/NTUT-Coursesystem/pkg/errors"
	"github.com/06wuuntt/NTUT-Coursesystem/pkg/response"
)

// ProfileHeader selects which simulation profile a request operates on.
// Absent or invalid values fall back to the default profile.
const ProfileHeader = "X-Simulation-Profile"

type exportService interface {
	Timetable(snapshot simulation.Snapshot, format service.ExportFormat) (*service.ExportResult, error)
}

// SimulationHandler exposes the what-if scheduling endpoints. All state
// lives in per-profile stores resolved from the profile header.
type SimulationHandler struct {
	registry *simulation.Registry
	export   exportService
}

// NewSimulationHandler constructs the handler. export may be nil when the
// export surface is disabled.
func NewSimulationHandler(registry *simulation.Registry, export exportService) *SimulationHandler {
	return &SimulationHandler{registry: registry, export: export}
}

func (h *SimulationHandler) store(c *gin.Context) *simulation.Store {
	return h.registry.Get(c.Request.Context(), c.GetHeader(ProfileHeader))
}

// State godoc
// @Summary Current simulation state
// @Tags Simulation
// @Produce json
// @Param X-Simulation-Profile header string false "Simulation profile"
// @Success 200 {object} response.Envelope
// @Router /simulation [get]
func (h *SimulationHandler) State(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.store(c).Snapshot())
}

// Add godoc
// @Summary Add a course to the simulation
// @Tags Simulation
// @Accept json
// @Produce json
// @Param X-Simulation-Profile header string false "Simulation profile"
// @Param course body object true "Raw course record"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /simulation/courses [post]
func (h *SimulationHandler) Add(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	course, err := h.store(c).Add(c.Request.Context(), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Check godoc
// @Summary Probe a course for schedule conflicts without adding it
// @Tags Simulation
// @Accept json
// @Produce json
// @Param X-Simulation-Profile header string false "Simulation profile"
// @Param course body object true "Raw course record"
// @Success 200 {object} response.Envelope
// @Router /simulation/conflicts [post]
func (h *SimulationHandler) Check(c *gin.Context) {
	raw, err := readBody(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	conflicts, err := h.store(c).Check(raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"conflicts":   conflicts,
		"hasConflict": len(conflicts) > 0,
	})
}

// Remove godoc
// @Summary Remove a course from the simulation
// @Tags Simulation
// @Param X-Simulation-Profile header string false "Simulation profile"
// @Param id path string true "Course id"
// @Success 204
// @Router /simulation/courses/{id} [delete]
func (h *SimulationHandler) Remove(c *gin.Context) {
	h.store(c).Remove(c.Request.Context(), c.Param("id"))
	response.NoContent(c)
}

// Clear godoc
// @Summary Remove every course from the simulation
// @Tags Simulation
// @Param X-Simulation-Profile header string false "Simulation profile"
// @Success 204
// @Router /simulation/courses [delete]
func (h *SimulationHandler) Clear(c *gin.Context) {
	h.store(c).Clear(c.Request.Context())
	response.NoContent(c)
}

// Export godoc
// @Summary Download the simulated timetable
// @Tags Simulation
// @Produce text/csv
// @Produce application/pdf
// @Param X-Simulation-Profile header string false "Simulation profile"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /simulation/export [get]
func (h *SimulationHandler) Export(c *gin.Context) {
	if h.export == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export is disabled"))
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.export.Timetable(h.store(c).Snapshot(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

func readBody(c *gin.Context) ([]byte, error) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "read request body")
	}
	if len(raw) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "request body required")
	}
	return raw, nil
}
