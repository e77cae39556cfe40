package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	ical "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/models"
	"github.com/06wuuntt/NTUT-Coursesystem/internal/repository"
	appErrors "github.com/06wuuntt/NTUT-Coursesystem/pkg/errors"
)

type calendarCrawler interface {
	CalendarEvents(ctx context.Context) ([]repository.RawCalendarEvent, error)
}

// CalendarService serves the campus calendar. The primary source is the
// pre-parsed JSON feed; when an ICS URL is configured it is fetched and
// parsed instead, which tolerates upstream switching formats.
type CalendarService struct {
	crawler calendarCrawler
	cache   catalogCache
	icsURL  string
	client  *http.Client
	logger  *zap.Logger
}

// NewCalendarService constructs the service. icsURL may be empty.
func NewCalendarService(crawler calendarCrawler, cache catalogCache, icsURL string, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		crawler: crawler,
		cache:   cache,
		icsURL:  icsURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// Events returns campus calendar events sorted by date.
func (s *CalendarService) Events(ctx context.Context) ([]models.CalendarEvent, error) {
	const cacheKey = "catalog:calendar"

	var cached []models.CalendarEvent
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	var events []models.CalendarEvent
	var err error
	if s.icsURL != "" {
		events, err = s.eventsFromICS(ctx)
	} else {
		events, err = s.eventsFromFeed(ctx)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Date < events[j].Date })

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, events, time.Hour); err != nil {
			s.logger.Warn("failed to cache calendar", zap.Error(err))
		}
	}
	return events, nil
}

func (s *CalendarService) eventsFromFeed(ctx context.Context) ([]models.CalendarEvent, error) {
	raw, err := s.crawler.CalendarEvents(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]models.CalendarEvent, 0, len(raw))
	for _, ev := range raw {
		if ev.Type != "VEVENT" || ev.Start == "" {
			continue
		}
		events = append(events, models.CalendarEvent{
			Date:        shiftFeedDate(ev.Start),
			EndDate:     shiftFeedDate(ev.End),
			Description: ev.Summary,
			Location:    ev.Location,
			Details:     ev.Description,
		})
	}
	return events, nil
}

func (s *CalendarService) eventsFromICS(ctx context.Context) ([]models.CalendarEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.icsURL, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build calendar request")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "fetch calendar feed")
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("calendar feed returned HTTP %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read calendar feed")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "parse calendar feed")
	}

	events := make([]models.CalendarEvent, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		start, err := ve.GetStartAt()
		if err != nil {
			continue
		}
		event := models.CalendarEvent{Date: start.Format("2006-01-02")}
		if end, err := ve.GetEndAt(); err == nil && !end.IsZero() {
			event.EndDate = end.Format("2006-01-02")
		}
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			event.Description = p.Value
		}
		if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
			event.Location = p.Value
		}
		if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
			event.Details = p.Value
		}
		events = append(events, event)
	}
	return events, nil
}

// shiftFeedDate converts a feed timestamp to a calendar date. Timestamps not
// at midnight UTC belong to the following local day and are shifted forward,
// matching how the upstream feed encodes all-day events.
func shiftFeedDate(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		if t, err = time.Parse("2006-01-02T15:04:05.000Z", value); err != nil {
			if len(value) >= 10 {
				return value[:10]
			}
			return value
		}
	}
	t = t.UTC()
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 {
		t = t.AddDate(0, 0, 1)
	}
	return t.Format("2006-01-02")
}
