package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/models"
	"github.com/06wuuntt/NTUT-Coursesystem/internal/normalize"
	"github.com/06wuuntt/NTUT-Coursesystem/internal/repository"
	appErrors "github.com/06wuuntt/NTUT-Coursesystem/pkg/errors"
)

type courseCrawler interface {
	Semesters(ctx context.Context) (map[string][]int, error)
	Courses(ctx context.Context, year, sem string) ([]json.RawMessage, error)
	Departments(ctx context.Context, year, sem string) ([]repository.RawDepartment, error)
	Syllabus(ctx context.Context, year, sem, courseID string) (json.RawMessage, error)
	WithdrawalRates(ctx context.Context) (json.RawMessage, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type fetchObserver interface {
	ObserveUpstreamFetch(outcome string)
}

// CourseService serves the browsing surface: semester options, per-semester
// course listings with class filtering and search, department trees and
// syllabus pass-through. Course records are normalized before leaving the
// service.
type CourseService struct {
	crawler   courseCrawler
	cache     catalogCache
	cacheTTL  time.Duration
	validator *validator.Validate
	metrics   fetchObserver
	logger    *zap.Logger
}

// NewCourseService instantiates CourseService. metrics may be nil when
// instrumentation is disabled.
func NewCourseService(crawler courseCrawler, cache catalogCache, cacheTTL time.Duration, validate *validator.Validate, metrics fetchObserver, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{crawler: crawler, cache: cache, cacheTTL: cacheTTL, validator: validate, metrics: metrics, logger: logger}
}

// Semesters lists selectable semesters, newest first.
func (s *CourseService) Semesters(ctx context.Context) ([]models.SemesterOption, error) {
	byYear, err := s.crawler.Semesters(ctx)
	if err != nil {
		return nil, err
	}

	years := make([]string, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))

	options := make([]models.SemesterOption, 0, len(years)*2)
	for _, year := range years {
		sems := append([]int(nil), byYear[year]...)
		sort.Sort(sort.Reverse(sort.IntSlice(sems)))
		for _, sem := range sems {
			half := "下"
			if sem == 1 {
				half = "上"
			}
			options = append(options, models.SemesterOption{
				Value: fmt.Sprintf("%s-%d", year, sem),
				Label: fmt.Sprintf("%s %s學期", year, half),
			})
		}
	}
	return options, nil
}

// ListCoursesRequest filters a semester course listing.
type ListCoursesRequest struct {
	SemesterID string `validate:"required"`
	Query      string `validate:"max=100"`
	ClassKey   string `validate:"max=100"`
}

// ListCourses returns normalized courses for one semester, optionally
// restricted to one class and/or a search query.
func (s *CourseService) ListCourses(ctx context.Context, req ListCoursesRequest) ([]models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course listing request")
	}
	year, sem, err := splitSemesterID(req.SemesterID)
	if err != nil {
		return nil, err
	}

	rawCourses, err := s.semesterCourses(ctx, year, sem)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	classKey := strings.TrimSpace(req.ClassKey)

	courses := make([]models.Course, 0, len(rawCourses))
	for _, raw := range rawCourses {
		if classKey != "" && !courseMatchesClass(raw, classKey) {
			continue
		}
		course, err := normalize.Parse(raw)
		if err != nil {
			continue
		}
		course.SemesterID = req.SemesterID
		if query != "" && !courseMatchesQuery(course, query) {
			continue
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// Departments returns the department/class tree for one semester, dropping
// departments without classes.
func (s *CourseService) Departments(ctx context.Context, semesterID string) ([]models.Department, error) {
	year, sem, err := splitSemesterID(semesterID)
	if err != nil {
		return nil, err
	}

	raw, err := s.crawler.Departments(ctx, year, sem)
	if err != nil {
		return nil, err
	}

	departments := make([]models.Department, 0, len(raw))
	for _, dept := range raw {
		category := dept.Category
		if category == "" {
			category = "未分類"
		}
		classes := make([]models.ClassOption, 0, len(dept.Class))
		for _, cls := range dept.Class {
			id := string(cls.ID)
			if id == "" {
				id = dept.Name + "-" + cls.Name
			}
			classes = append(classes, models.ClassOption{
				ID:        id,
				Label:     cls.Name,
				DeptName:  dept.Name,
				ClassCode: string(cls.Code),
			})
		}
		if len(classes) == 0 {
			continue
		}
		departments = append(departments, models.Department{
			Category: category,
			Name:     dept.Name,
			Classes:  classes,
		})
	}
	return departments, nil
}

// Syllabus proxies the upstream course detail document.
func (s *CourseService) Syllabus(ctx context.Context, semesterID, courseID string) (json.RawMessage, error) {
	year, sem, err := splitSemesterID(semesterID)
	if err != nil {
		return nil, err
	}
	return s.crawler.Syllabus(ctx, year, sem, courseID)
}

// WithdrawalRates proxies the teacher withdrawal-rate dataset.
func (s *CourseService) WithdrawalRates(ctx context.Context) (json.RawMessage, error) {
	return s.crawler.WithdrawalRates(ctx)
}

// WarmSemester prefetches one semester's course payload into the cache.
func (s *CourseService) WarmSemester(ctx context.Context, semesterID string) error {
	year, sem, err := splitSemesterID(semesterID)
	if err != nil {
		return err
	}
	_, err = s.semesterCourses(ctx, year, sem)
	return err
}

func (s *CourseService) semesterCourses(ctx context.Context, year, sem string) ([]json.RawMessage, error) {
	key := fmt.Sprintf("catalog:courses:%s-%s", year, sem)

	var cached []json.RawMessage
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.observeFetch(FetchOutcomeHit)
			return cached, nil
		}
	}

	courses, err := s.crawler.Courses(ctx, year, sem)
	if err != nil {
		s.observeFetch(FetchOutcomeError)
		return nil, err
	}
	s.observeFetch(FetchOutcomeFetched)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, courses, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache semester courses", zap.String("key", key), zap.Error(err))
		}
	}
	return courses, nil
}

func (s *CourseService) observeFetch(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveUpstreamFetch(outcome)
	}
}

func splitSemesterID(semesterID string) (year, sem string, err error) {
	year, sem, ok := strings.Cut(strings.TrimSpace(semesterID), "-")
	if !ok || year == "" || sem == "" {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "semester id must look like 114-1")
	}
	return year, sem, nil
}

func courseMatchesQuery(course models.Course, query string) bool {
	return strings.Contains(strings.ToLower(course.Name), query) ||
		strings.Contains(strings.ToLower(course.ID), query) ||
		strings.Contains(strings.ToLower(course.Teacher), query)
}

// courseMatchesClass applies the class filter against the raw record, which
// still carries the upstream class list. Matching tiers: class id, class
// code, exact class name (when the key is a "dept-name" fallback id), then a
// normalized fuzzy comparison.
func courseMatchesClass(raw json.RawMessage, key string) bool {
	var record struct {
		Class []repository.RawClass `json:"class"`
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return false
	}

	nameFromKey := ""
	if idx := strings.LastIndex(key, "-"); idx >= 0 {
		nameFromKey = strings.TrimSpace(key[idx+1:])
	}

	for _, cls := range record.Class {
		id := strings.TrimSpace(string(cls.ID))
		code := strings.TrimSpace(string(cls.Code))
		name := strings.TrimSpace(cls.Name)

		if id != "" && id == key {
			return true
		}
		if code != "" && code == key {
			return true
		}
		if nameFromKey != "" && name != "" && name == nameFromKey {
			return true
		}

		target := nameFromKey
		if target == "" {
			target = key
		}
		nCls := fuzzyNormalize(name)
		nTarget := fuzzyNormalize(target)
		if nCls != "" && nTarget != "" &&
			(nCls == nTarget || strings.Contains(nCls, nTarget) || strings.Contains(nTarget, nCls)) {
			return true
		}
	}
	return false
}

// fuzzyNormalize strips everything but letters, digits and CJK ideographs.
func fuzzyNormalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 0x4e00 && r <= 0x9fff:
			b.WriteRune(r)
		}
	}
	return b.String()
}
