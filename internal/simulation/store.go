// Package simulation maintains a user's what-if schedule: the ordered course
// selection, the derived occupancy grid and credit totals, and persistence of
// the selection across sessions.
package simulation

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/models"
	"github.com/06wuuntt/NTUT-Coursesystem/internal/normalize"
	"github.com/06wuuntt/NTUT-Coursesystem/internal/schedule"
	appErrors "github.com/06wuuntt/NTUT-Coursesystem/pkg/errors"
	"github.com/06wuuntt/NTUT-Coursesystem/pkg/kvstore"
)

const (
	selectedKeySuffix = "selectedIds"
	coursesKeySuffix  = "courseData"
)

const (
	requiredSymbols = "○△●▲"
	electiveSymbols = "☆★"
	requiredKeyword = "必修"
	electiveKeyword = "選修"
)

// Snapshot is the read-only view handed to the UI layer. Grid and credits are
// derived caches, recomputed from the two persisted collections.
type Snapshot struct {
	SelectedCourseIDs []string                 `json:"selectedCourseIds"`
	CourseData        map[string]models.Course `json:"courseData"`
	Grid              map[string]string        `json:"grid"`
	Credits           models.CreditSummary     `json:"credits"`
}

// Store owns one profile's simulation state. All operations serialize under
// an internal mutex; views read through Snapshot copies and never mutate
// state directly.
type Store struct {
	profile string
	kv      kvstore.Store
	catalog *schedule.Catalog
	logger  *zap.Logger

	selectedKey string
	coursesKey  string

	mu          sync.Mutex
	selectedIDs []string
	courses     map[string]models.Course
	grid        schedule.Grid
	credits     models.CreditSummary
	subscribers []func(Snapshot)
}

// NewStore builds a store for one profile and rehydrates any persisted
// selection. Unreadable or unparseable persisted state degrades to an empty
// simulation; rehydration never fails.
func NewStore(ctx context.Context, kv kvstore.Store, catalog *schedule.Catalog, keyPrefix, profile string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keyPrefix == "" {
		keyPrefix = "simulation"
	}

	s := &Store{
		profile:     profile,
		kv:          kv,
		catalog:     catalog,
		logger:      logger,
		selectedKey: keyPrefix + ":" + profile + ":" + selectedKeySuffix,
		coursesKey:  keyPrefix + ":" + profile + ":" + coursesKeySuffix,
		selectedIDs: []string{},
		courses:     map[string]models.Course{},
	}

	s.rehydrate(ctx)
	s.recompute()
	return s
}

func (s *Store) rehydrate(ctx context.Context) {
	if raw, ok, err := s.kv.Get(ctx, s.selectedKey); err == nil && ok {
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			s.logger.Warn("discarding unparseable selection", zap.String("profile", s.profile), zap.Error(err))
		} else {
			s.selectedIDs = ids
		}
	} else if err != nil {
		s.logger.Warn("simulation storage read failed", zap.String("profile", s.profile), zap.Error(err))
	}

	raw, ok, err := s.kv.Get(ctx, s.coursesKey)
	switch {
	case err != nil:
		s.logger.Warn("simulation storage read failed", zap.String("profile", s.profile), zap.Error(err))
	case ok:
		var persisted map[string]map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
			s.logger.Warn("discarding unparseable course data", zap.String("profile", s.profile), zap.Error(err))
			break
		}
		// Re-normalize every rehydrated record: normalization rules may
		// have changed since the data was written, and stale shapes must
		// not reach the grid rebuild.
		for id, fields := range persisted {
			s.courses[id] = normalize.Course(fields)
		}
	}

	s.reconcile()
}

// reconcile restores the invariant that the selection and the course data
// describe the same set of courses. The two keys are written separately, so a
// partially corrupt or partially lost persisted state can leave one side with
// entries the other no longer knows about; those orphans must not survive
// into the session, where they would shadow future adds.
func (s *Store) reconcile() {
	ids := s.selectedIDs[:0]
	for _, id := range s.selectedIDs {
		if _, ok := s.courses[id]; ok {
			ids = append(ids, id)
		}
	}
	s.selectedIDs = ids

	for id := range s.courses {
		if !s.isSelected(id) {
			delete(s.courses, id)
		}
	}
}

// Subscribe registers a callback invoked with a fresh snapshot after every
// mutation. Metrics and other read models hang off this hook instead of
// polling.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	ids := make([]string, len(s.selectedIDs))
	copy(ids, s.selectedIDs)

	courses := make(map[string]models.Course, len(s.courses))
	for id, course := range s.courses {
		courses[id] = course
	}

	grid := make(map[string]string, len(s.grid))
	for cell, id := range s.grid {
		grid[cell] = id
	}

	return Snapshot{
		SelectedCourseIDs: ids,
		CourseData:        courses,
		Grid:              grid,
		Credits:           s.credits,
	}
}

// Add normalizes a raw course record and commits it when it passes the three
// gates, checked in order: it must have time entries, must not already be
// selected, and must not overlap any committed course.
func (s *Store) Add(ctx context.Context, raw []byte) (models.Course, error) {
	course, err := normalize.Parse(raw)
	if err != nil {
		return models.Course{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "course payload is not a JSON object")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !course.Schedulable() {
		return course, appErrors.ErrUnschedulable
	}
	if s.isSelected(course.ID) {
		return course, appErrors.ErrDuplicate
	}

	// evaluated against the grid as committed before this candidate
	if occupantIDs := schedule.Conflicts(s.grid, course, s.catalog); len(occupantIDs) > 0 {
		return course, &appErrors.ConflictError{
			OccupantIDs:   occupantIDs,
			OccupantNames: s.occupantNames(occupantIDs),
		}
	}

	s.selectedIDs = append(s.selectedIDs, course.ID)
	s.courses[course.ID] = course
	s.grid.Place(course, s.catalog)
	s.credits = s.aggregateCredits()
	s.persist(ctx)
	s.notifyLocked()

	return course, nil
}

// Check is a read-only conflict probe: the occupant ids the course would
// collide with, without committing anything.
func (s *Store) Check(raw []byte) ([]string, error) {
	course, err := normalize.Parse(raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "course payload is not a JSON object")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return schedule.Conflicts(s.grid, course, s.catalog), nil
}

// Remove drops a course from the selection. Removing an absent id is a
// no-op. Removal always triggers a full grid rebuild; the removed course's
// cells have to disappear and the remaining courses are conflict-free by
// construction.
func (s *Store) Remove(ctx context.Context, courseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := s.selectedIDs[:0]
	for _, id := range s.selectedIDs {
		if id != courseID {
			filtered = append(filtered, id)
		}
	}
	s.selectedIDs = filtered
	delete(s.courses, courseID)

	s.recomputeLocked()
	s.persist(ctx)
	s.notifyLocked()
}

// Clear empties the simulation.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectedIDs = []string{}
	s.courses = map[string]models.Course{}
	s.recomputeLocked()
	s.persist(ctx)
	s.notifyLocked()
}

func (s *Store) isSelected(id string) bool {
	for _, selected := range s.selectedIDs {
		if selected == id {
			return true
		}
	}
	return false
}

func (s *Store) occupantNames(ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if course, ok := s.courses[id]; ok && course.Name != "" {
			names = append(names, course.Name)
			continue
		}
		names = append(names, "ID:"+id)
	}
	return names
}

func (s *Store) recompute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
}

func (s *Store) recomputeLocked() {
	s.grid = schedule.Rebuild(s.selectedIDs, s.courses, s.catalog)
	s.credits = s.aggregateCredits()
}

// aggregateCredits classifies each selected course as required or elective.
// Required: one of ○△●▲ or text containing 必修. Elective: ☆ or ★ or text
// containing 選修. Anything else counts as elective.
func (s *Store) aggregateCredits() models.CreditSummary {
	var summary models.CreditSummary
	for _, id := range s.selectedIDs {
		course, ok := s.courses[id]
		if !ok {
			continue
		}
		summary.Total += course.Credit
		switch {
		case strings.ContainsAny(course.CourseType, requiredSymbols),
			strings.Contains(course.CourseType, requiredKeyword):
			summary.Required += course.Credit
		case strings.ContainsAny(course.CourseType, electiveSymbols),
			strings.Contains(course.CourseType, electiveKeyword):
			summary.Elective += course.Credit
		default:
			// unknown categories count as elective by policy
			summary.Elective += course.Credit
		}
	}
	return summary
}

// persist writes the two source-of-truth collections. A failing write is
// logged and swallowed; in-memory state stays authoritative for the session.
func (s *Store) persist(ctx context.Context) {
	ids, err := json.Marshal(s.selectedIDs)
	if err == nil {
		err = s.kv.Set(ctx, s.selectedKey, string(ids))
	}
	if err != nil {
		s.logger.Warn("failed to persist selection", zap.String("profile", s.profile), zap.Error(err))
	}

	courses, err := json.Marshal(s.courses)
	if err == nil {
		err = s.kv.Set(ctx, s.coursesKey, string(courses))
	}
	if err != nil {
		s.logger.Warn("failed to persist course data", zap.String("profile", s.profile), zap.Error(err))
	}
}

func (s *Store) notifyLocked() {
	snapshot := s.snapshotLocked()
	for _, fn := range s.subscribers {
		fn(snapshot)
	}
}
