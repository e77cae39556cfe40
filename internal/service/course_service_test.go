package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/repository"
	appErrors "github.com/06wuuntt/NTUT-Coursesystem/pkg/errors"
)

type fakeCrawler struct {
	semesters   map[string][]int
	courses     []json.RawMessage
	coursesErr  error
	departments []repository.RawDepartment
	courseCalls int
}

func (f *fakeCrawler) Semesters(ctx context.Context) (map[string][]int, error) {
	return f.semesters, nil
}

func (f *fakeCrawler) Courses(ctx context.Context, year, sem string) ([]json.RawMessage, error) {
	f.courseCalls++
	if f.coursesErr != nil {
		return nil, f.coursesErr
	}
	return f.courses, nil
}

func (f *fakeCrawler) Departments(ctx context.Context, year, sem string) ([]repository.RawDepartment, error) {
	return f.departments, nil
}

func (f *fakeCrawler) Syllabus(ctx context.Context, year, sem, courseID string) (json.RawMessage, error) {
	return json.RawMessage(`{"objective":"..."}`), nil
}

func (f *fakeCrawler) WithdrawalRates(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

type fakeCache struct {
	values map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = raw
	return nil
}

func sampleCourses() []json.RawMessage {
	return []json.RawMessage{
		json.RawMessage(`{"id":"101","name":{"zh":"資料結構"},"credit":"3","courseType":"●","teacher":[{"name":"王老師"}],"time":{"mon":"1-2"},"class":[{"id":"2788","code":"3012","name":"資工一甲"}]}`),
		json.RawMessage(`{"id":"102","name":{"zh":"微積分"},"credit":"4","courseType":"▲","teacher":[{"name":"李老師"}],"time":{"tue":"3-4"},"class":[{"id":"2790","code":"3020","name":"電機一乙"}]}`),
	}
}

func TestCourseServiceSemestersSortedNewestFirst(t *testing.T) {
	crawler := &fakeCrawler{semesters: map[string][]int{"113": {1, 2}, "114": {1}}}
	svc := NewCourseService(crawler, newFakeCache(), time.Hour, nil, nil, nil)

	options, err := svc.Semesters(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 3)
	assert.Equal(t, "114-1", options[0].Value)
	assert.Equal(t, "114 上學期", options[0].Label)
	assert.Equal(t, "113-2", options[1].Value)
	assert.Equal(t, "113 下學期", options[1].Label)
	assert.Equal(t, "113-1", options[2].Value)
}

func TestCourseServiceListCourses(t *testing.T) {
	crawler := &fakeCrawler{courses: sampleCourses()}
	svc := NewCourseService(crawler, newFakeCache(), time.Hour, nil, nil, nil)

	courses, err := svc.ListCourses(context.Background(), ListCoursesRequest{SemesterID: "114-1"})
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "資料結構", courses[0].Name)
	assert.Equal(t, "114-1", courses[0].SemesterID)
	assert.Equal(t, 3.0, courses[0].Credit)
}

func TestCourseServiceListCoursesQuery(t *testing.T) {
	crawler := &fakeCrawler{courses: sampleCourses()}
	svc := NewCourseService(crawler, newFakeCache(), time.Hour, nil, nil, nil)

	courses, err := svc.ListCourses(context.Background(), ListCoursesRequest{SemesterID: "114-1", Query: "微積分"})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "102", courses[0].ID)

	byTeacher, err := svc.ListCourses(context.Background(), ListCoursesRequest{SemesterID: "114-1", Query: "王老師"})
	require.NoError(t, err)
	require.Len(t, byTeacher, 1)
	assert.Equal(t, "101", byTeacher[0].ID)
}

func TestCourseServiceListCoursesClassFilter(t *testing.T) {
	crawler := &fakeCrawler{courses: sampleCourses()}
	svc := NewCourseService(crawler, newFakeCache(), time.Hour, nil, nil, nil)

	byID, err := svc.ListCourses(context.Background(), ListCoursesRequest{SemesterID: "114-1", ClassKey: "2788"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "101", byID[0].ID)

	byCode, err := svc.ListCourses(context.Background(), ListCoursesRequest{SemesterID: "114-1", ClassKey: "3020"})
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, "102", byCode[0].ID)

	byFallbackID, err := svc.ListCourses(context.Background(), ListCoursesRequest{SemesterID: "114-1", ClassKey: "資訊工程系-資工一甲"})
	require.NoError(t, err)
	require.Len(t, byFallbackID, 1)
	assert.Equal(t, "101", byFallbackID[0].ID)
}

func TestCourseServiceListCoursesUsesCache(t *testing.T) {
	crawler := &fakeCrawler{courses: sampleCourses()}
	svc := NewCourseService(crawler, newFakeCache(), time.Hour, nil, nil, nil)

	_, err := svc.ListCourses(context.Background(), ListCoursesRequest{SemesterID: "114-1"})
	require.NoError(t, err)
	_, err = svc.ListCourses(context.Background(), ListCoursesRequest{SemesterID: "114-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, crawler.courseCalls)
}

type fakeFetchObserver struct {
	outcomes []string
}

func (f *fakeFetchObserver) ObserveUpstreamFetch(outcome string) {
	f.outcomes = append(f.outcomes, outcome)
}

func TestCourseServiceReportsFetchOutcomes(t *testing.T) {
	crawler := &fakeCrawler{courses: sampleCourses()}
	observer := &fakeFetchObserver{}
	svc := NewCourseService(crawler, newFakeCache(), time.Hour, nil, observer, nil)

	_, err := svc.ListCourses(context.Background(), ListCoursesRequest{SemesterID: "114-1"})
	require.NoError(t, err)
	_, err = svc.ListCourses(context.Background(), ListCoursesRequest{SemesterID: "114-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{FetchOutcomeFetched, FetchOutcomeHit}, observer.outcomes)

	failing := &fakeCrawler{coursesErr: errors.New("upstream down")}
	observer = &fakeFetchObserver{}
	svc = NewCourseService(failing, newFakeCache(), time.Hour, nil, observer, nil)

	_, err = svc.ListCourses(context.Background(), ListCoursesRequest{SemesterID: "114-1"})
	require.Error(t, err)
	assert.Equal(t, []string{FetchOutcomeError}, observer.outcomes)
}

func TestCourseServiceRejectsBadSemesterID(t *testing.T) {
	svc := NewCourseService(&fakeCrawler{}, newFakeCache(), time.Hour, nil, nil, nil)

	_, err := svc.ListCourses(context.Background(), ListCoursesRequest{SemesterID: "114"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCourseServiceDepartments(t *testing.T) {
	crawler := &fakeCrawler{departments: []repository.RawDepartment{
		{
			Category: "工程學院",
			Name:     "資訊工程系",
			Class: []repository.RawClass{
				{ID: "2788", Code: "3012", Name: "資工一甲"},
				{Name: "資工一乙"},
			},
		},
		{Category: "工程學院", Name: "空系"},
	}}
	svc := NewCourseService(crawler, newFakeCache(), time.Hour, nil, nil, nil)

	departments, err := svc.Departments(context.Background(), "114-1")
	require.NoError(t, err)
	require.Len(t, departments, 1)
	require.Len(t, departments[0].Classes, 2)
	assert.Equal(t, "2788", departments[0].Classes[0].ID)
	// Classes without an upstream id get a readable fallback.
	assert.Equal(t, "資訊工程系-資工一乙", departments[0].Classes[1].ID)
}
