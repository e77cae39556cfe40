package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Course     *CourseHandler
	Calendar   *CalendarHandler
	Standards  *StandardsHandler
	Simulation *SimulationHandler
	Period     *PeriodHandler
}

// RegisterRoutes mounts the API under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers) {
	api := r.Group(prefix)

	api.GET("/semesters", h.Course.Semesters)
	api.GET("/semesters/:semesterId/courses", h.Course.List)
	api.GET("/semesters/:semesterId/courses/:courseId/syllabus", h.Course.Syllabus)
	api.GET("/semesters/:semesterId/departments", h.Course.Departments)
	api.GET("/analytics/withdrawal-rates", h.Course.WithdrawalRates)

	api.GET("/calendar", h.Calendar.Events)

	api.GET("/standards/:year", h.Standards.Options)
	api.GET("/standards/:year/:department", h.Standards.Detail)

	api.GET("/periods", h.Period.List)

	api.GET("/simulation", h.Simulation.State)
	api.POST("/simulation/courses", h.Simulation.Add)
	api.POST("/simulation/conflicts", h.Simulation.Check)
	api.DELETE("/simulation/courses/:id", h.Simulation.Remove)
	api.DELETE("/simulation/courses", h.Simulation.Clear)
	api.GET("/simulation/export", h.Simulation.Export)
}
