package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/models"
	"github.com/06wuuntt/NTUT-Coursesystem/internal/repository"
	appErrors "github.com/06wuuntt/NTUT-Coursesystem/pkg/errors"
)

type standardsCrawler interface {
	Standards(ctx context.Context, year string) (map[string]map[string]repository.RawStandard, error)
}

// Credit-table keys as published upstream.
const (
	keySchoolCommonRequired = "校訂共同必修學分"
	keyMinistryCommonReq    = "部訂共同必修學分"
	keySchoolProRequired    = "校訂專業必修學分"
	keyMinistryProRequired  = "部訂專業必修學分"
	keyProfessionalElective = "專業選修學分"
	keyGraduationTotal      = "最低畢業學分數"
)

// StandardsService serves graduation credit standards per department.
type StandardsService struct {
	crawler  standardsCrawler
	cache    catalogCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewStandardsService constructs the service.
func NewStandardsService(crawler standardsCrawler, cache catalogCache, cacheTTL time.Duration, logger *zap.Logger) *StandardsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StandardsService{crawler: crawler, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// DepartmentOptions flattens the standards dataset into selectable
// system/department pairs, sorted for stable output.
func (s *StandardsService) DepartmentOptions(ctx context.Context, year string) ([]models.DepartmentOption, error) {
	standards, err := s.yearStandards(ctx, year)
	if err != nil {
		return nil, err
	}

	options := make([]models.DepartmentOption, 0, len(standards)*8)
	for system, departments := range standards {
		for dept := range departments {
			options = append(options, models.DepartmentOption{
				Value: system + "-" + dept,
				Label: fmt.Sprintf("%s（%s）", dept, system),
			})
		}
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Value < options[j].Value })
	return options, nil
}

// Standard resolves one department's credit standard. The key is the
// "system-department" value produced by DepartmentOptions.
func (s *StandardsService) Standard(ctx context.Context, year, departmentKey string) (*models.CourseStandard, error) {
	system, dept, ok := strings.Cut(departmentKey, "-")
	if !ok || system == "" || dept == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department key must look like system-department")
	}

	standards, err := s.yearStandards(ctx, year)
	if err != nil {
		return nil, err
	}

	departments, ok := standards[system]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown academic system")
	}
	raw, ok := departments[dept]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no credit standard for department")
	}

	standard := buildStandard(year, system, dept, raw)
	return &standard, nil
}

func (s *StandardsService) yearStandards(ctx context.Context, year string) (map[string]map[string]repository.RawStandard, error) {
	key := "catalog:standards:" + year

	var cached map[string]map[string]repository.RawStandard
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	standards, err := s.crawler.Standards(ctx, year)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, standards, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache standards", zap.String("key", key), zap.Error(err))
		}
	}
	return standards, nil
}

// buildStandard computes the derived credit buckets. Free elective credits
// are whatever the graduation total leaves after the named buckets, never
// negative.
func buildStandard(year, system, dept string, raw repository.RawStandard) models.CourseStandard {
	credit := func(key string) float64 { return raw.Credits[key].Float() }

	generalRequired := credit(keySchoolCommonRequired) + credit(keyMinistryCommonReq)
	professionalRequired := credit(keySchoolProRequired) + credit(keyMinistryProRequired)
	professionalElective := credit(keyProfessionalElective)
	total := credit(keyGraduationTotal)

	freeElective := total - generalRequired - professionalRequired - professionalElective
	if freeElective < 0 {
		freeElective = 0
	}

	return models.CourseStandard{
		Year:                 year,
		System:               system,
		Department:           dept,
		GeneralRequired:      generalRequired,
		ProfessionalRequired: professionalRequired,
		ProfessionalElective: professionalElective,
		FreeElective:         freeElective,
		GraduationTotal:      total,
		Courses:              raw.Courses,
		Rules:                raw.Rules,
	}
}
