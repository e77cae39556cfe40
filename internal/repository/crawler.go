// Package repository holds the data-access layer: the read-only client for
// the public course crawler dataset and the Redis cache in front of it.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/06wuuntt/NTUT-Coursesystem/pkg/config"
	appErrors "github.com/06wuuntt/NTUT-Coursesystem/pkg/errors"
)

// StringOrNumber tolerates upstream fields that are sometimes quoted and
// sometimes not (class ids, credit totals).
type StringOrNumber string

// UnmarshalJSON accepts strings, numbers and null.
func (s *StringOrNumber) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = StringOrNumber(str)
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*s = StringOrNumber(strconv.FormatFloat(num, 'f', -1, 64))
		return nil
	}
	*s = ""
	return nil
}

// Float parses the value, returning 0 when empty or malformed.
func (s StringOrNumber) Float() float64 {
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// RawClass is one class entry inside a department listing.
type RawClass struct {
	ID   StringOrNumber `json:"id"`
	Code StringOrNumber `json:"code"`
	Name string         `json:"name"`
}

// RawDepartment is one department as served by department.json.
type RawDepartment struct {
	Category string     `json:"category"`
	Name     string     `json:"name"`
	Class    []RawClass `json:"class"`
}

// RawCalendarEvent is one entry of the upstream pre-parsed calendar feed.
type RawCalendarEvent struct {
	Type        string `json:"type"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Summary     string `json:"summary"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// RawStandard is one department's credit standard.
type RawStandard struct {
	Credits map[string]StringOrNumber `json:"credits"`
	Courses json.RawMessage           `json:"courses"`
	Rules   json.RawMessage           `json:"rules"`
}

// Crawler fetches the static JSON dataset published by the course crawler.
// Every payload is read-only; errors surface as ErrUpstream (or ErrNotFound
// for missing documents) and are expected to be caught before the schedule
// engine is involved.
type Crawler struct {
	client  *http.Client
	baseURL string
	system  string
	logger  *zap.Logger
}

// NewCrawler builds a crawler client from upstream configuration.
func NewCrawler(cfg config.UpstreamConfig, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	system := cfg.System
	if system == "" {
		system = "main"
	}
	return &Crawler{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		system:  system,
		logger:  logger,
	}
}

// Semesters lists available years mapped to their semester numbers.
func (c *Crawler) Semesters(ctx context.Context) (map[string][]int, error) {
	var out map[string][]int
	if err := c.getJSON(ctx, "main.json", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Courses returns the full raw course list for one semester of the
// configured academic system.
func (c *Crawler) Courses(ctx context.Context, year, sem string) ([]json.RawMessage, error) {
	var out []json.RawMessage
	path := fmt.Sprintf("%s/%s/%s.json", year, sem, c.system)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Departments returns the department/class tree for one semester.
func (c *Crawler) Departments(ctx context.Context, year, sem string) ([]RawDepartment, error) {
	var out []RawDepartment
	path := fmt.Sprintf("%s/%s/department.json", year, sem)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Standards returns the credit standards for one academic year, keyed by
// academic system then department name.
func (c *Crawler) Standards(ctx context.Context, year string) (map[string]map[string]RawStandard, error) {
	var out map[string]map[string]RawStandard
	if err := c.getJSON(ctx, year+"/standard.json", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CalendarEvents returns the pre-parsed campus calendar feed.
func (c *Crawler) CalendarEvents(ctx context.Context) ([]RawCalendarEvent, error) {
	var out []RawCalendarEvent
	if err := c.getJSON(ctx, "calendar.json", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Syllabus returns the detail document for one course, or ErrNotFound when
// upstream has none.
func (c *Crawler) Syllabus(ctx context.Context, year, sem, courseID string) (json.RawMessage, error) {
	var out json.RawMessage
	path := fmt.Sprintf("%s/%s/course/%s.json", year, sem, courseID)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WithdrawalRates returns the teacher withdrawal-rate analytics dataset.
func (c *Crawler) WithdrawalRates(ctx context.Context) (json.RawMessage, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.getJSON(ctx, "analytics/withdrawal-recent-3-years.json", &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Data, nil
}

func (c *Crawler) getJSON(ctx context.Context, path string, dest interface{}) error {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build upstream request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("upstream fetch failed", zap.String("path", path), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return appErrors.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("upstream returned error status", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("upstream returned HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read upstream response")
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "decode upstream response")
	}
	return nil
}
