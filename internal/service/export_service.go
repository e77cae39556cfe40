package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/models"
	"github.com/06wuuntt/NTUT-Coursesystem/internal/simulation"
	appErrors "github.com/06wuuntt/NTUT-Coursesystem/pkg/errors"
	"github.com/06wuuntt/NTUT-Coursesystem/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFormat is the requested download format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult is a rendered timetable ready for download.
type ExportResult struct {
	Payload     []byte
	ContentType string
	Filename    string
}

// ExportService renders a simulation snapshot into downloadable files.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger}
}

// Timetable renders the selected courses of a snapshot.
func (s *ExportService) Timetable(snapshot simulation.Snapshot, format ExportFormat) (*ExportResult, error) {
	dataset := buildTimetableDataset(snapshot)
	timestamp := time.Now().UTC().Format("20060102_150405")

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv export")
		}
		return &ExportResult{
			Payload:     payload,
			ContentType: "text/csv; charset=utf-8",
			Filename:    fmt.Sprintf("timetable_%s.csv", timestamp),
		}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Timetable Simulation")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf export")
		}
		return &ExportResult{
			Payload:     payload,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("timetable_%s.pdf", timestamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

var dayNames = map[int]string{
	0: "日", 1: "一", 2: "二", 3: "三", 4: "四", 5: "五", 6: "六", 7: "日",
}

func buildTimetableDataset(snapshot simulation.Snapshot) export.Dataset {
	rows := make([]map[string]string, 0, len(snapshot.SelectedCourseIDs))
	for _, id := range snapshot.SelectedCourseIDs {
		course, ok := snapshot.CourseData[id]
		if !ok {
			continue
		}
		rows = append(rows, map[string]string{
			"ID":       course.ID,
			"Name":     course.Name,
			"Credits":  fmt.Sprintf("%g", course.Credit),
			"Type":     course.CourseType,
			"Teacher":  course.Teacher,
			"Time":     formatCourseTime(course.Time),
			"Location": course.Location,
		})
	}

	rows = append(rows, map[string]string{
		"ID":      "",
		"Name":    "Total",
		"Credits": fmt.Sprintf("%g", snapshot.Credits.Total),
		"Type": fmt.Sprintf("required %g / elective %g",
			snapshot.Credits.Required, snapshot.Credits.Elective),
		"Teacher":  "",
		"Time":     "",
		"Location": "",
	})

	return export.Dataset{
		Headers: []string{"ID", "Name", "Credits", "Type", "Teacher", "Time", "Location"},
		Rows:    rows,
	}
}

// formatCourseTime groups periods by weekday, e.g. "週一 1,2 / 週三 N".
func formatCourseTime(entries []models.TimeEntry) string {
	byDay := make(map[int][]string)
	days := make([]int, 0, len(entries))
	for _, entry := range entries {
		if _, seen := byDay[entry.Day]; !seen {
			days = append(days, entry.Day)
		}
		byDay[entry.Day] = append(byDay[entry.Day], entry.Period)
	}
	sort.Ints(days)

	parts := make([]string, 0, len(days))
	for _, day := range days {
		parts = append(parts, fmt.Sprintf("週%s %s", dayNames[day], strings.Join(byDay[day], ",")))
	}
	return strings.Join(parts, " / ")
}
