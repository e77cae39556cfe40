// Package handler wires HTTP routes to the service layer.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/models"
	"github.com/06wuuntt/NTUT-Coursesystem/internal/service"
	"github.com/06wuuntt/NTUT-Coursesystem/pkg/response"
)

type courseService interface {
	Semesters(ctx context.Context) ([]models.SemesterOption, error)
	ListCourses(ctx context.Context, req service.ListCoursesRequest) ([]models.Course, error)
	Departments(ctx context.Context, semesterID string) ([]models.Department, error)
	Syllabus(ctx context.Context, semesterID, courseID string) (json.RawMessage, error)
	WithdrawalRates(ctx context.Context) (json.RawMessage, error)
}

// CourseHandler exposes the course-browsing endpoints.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service courseService) *CourseHandler {
	return &CourseHandler{service: service}
}

// Semesters godoc
// @Summary List selectable semesters
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *CourseHandler) Semesters(c *gin.Context) {
	options, err := h.service.Semesters(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options)
}

// List godoc
// @Summary List courses for a semester
// @Tags Courses
// @Produce json
// @Param semesterId path string true "Semester id, e.g. 114-1"
// @Param q query string false "Search over name, id and teacher"
// @Param classId query string false "Restrict to one class"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	req := service.ListCoursesRequest{
		SemesterID: c.Param("semesterId"),
		Query:      c.Query("q"),
		ClassKey:   c.Query("classId"),
	}
	courses, err := h.service.ListCourses(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, map[string]interface{}{"count": len(courses)})
}

// Departments godoc
// @Summary Department and class tree for a semester
// @Tags Courses
// @Produce json
// @Param semesterId path string true "Semester id, e.g. 114-1"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/departments [get]
func (h *CourseHandler) Departments(c *gin.Context) {
	departments, err := h.service.Departments(c.Request.Context(), c.Param("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments)
}

// Syllabus godoc
// @Summary Course syllabus detail
// @Tags Courses
// @Produce json
// @Param semesterId path string true "Semester id, e.g. 114-1"
// @Param courseId path string true "Course id"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/courses/{courseId}/syllabus [get]
func (h *CourseHandler) Syllabus(c *gin.Context) {
	detail, err := h.service.Syllabus(c.Request.Context(), c.Param("semesterId"), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// WithdrawalRates godoc
// @Summary Teacher withdrawal-rate analytics
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/withdrawal-rates [get]
func (h *CourseHandler) WithdrawalRates(c *gin.Context) {
	data, err := h.service.WithdrawalRates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data)
}
