package simulation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/schedule"
	appErrors "github.com/06wuuntt/NTUT-Coursesystem/pkg/errors"
	"github.com/06wuuntt/NTUT-Coursesystem/pkg/kvstore"
)

func newTestStore(t *testing.T, kv kvstore.Store) *Store {
	t.Helper()
	if kv == nil {
		kv = kvstore.NewMemory()
	}
	return NewStore(context.Background(), kv, schedule.DefaultCatalog(), "simulation", "test", nil)
}

func rawCourse(id, period string, day int, credit float64, courseType string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"name":"課程 %s","credit":%g,"courseType":%q,"time":[{"day":%d,"period":%q}]}`,
		id, id, credit, courseType, day, period,
	))
}

func TestAddCourseSuccess(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	course, err := store.Add(ctx, rawCourse("101", "1-2", 1, 3, "●"))
	require.NoError(t, err)
	assert.Equal(t, "課程 101", course.Name)

	snapshot := store.Snapshot()
	assert.Equal(t, []string{"101"}, snapshot.SelectedCourseIDs)
	assert.Equal(t, "101", snapshot.Grid["1_1"])
	assert.Equal(t, "101", snapshot.Grid["1_2"])
	assert.Equal(t, 3.0, snapshot.Credits.Total)
	assert.Equal(t, 3.0, snapshot.Credits.Required)
}

func TestAddUnschedulableRejected(t *testing.T) {
	store := newTestStore(t, nil)

	_, err := store.Add(context.Background(), []byte(`{"id":"101","name":"專題","time":[]}`))
	assert.ErrorIs(t, err, appErrors.ErrUnschedulable)
	assert.Empty(t, store.Snapshot().SelectedCourseIDs)
}

func TestAddDuplicateRejected(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	_, err := store.Add(ctx, rawCourse("101", "1-2", 1, 3, "●"))
	require.NoError(t, err)

	_, err = store.Add(ctx, rawCourse("101", "5-6", 4, 3, "●"))
	assert.ErrorIs(t, err, appErrors.ErrDuplicate)
	assert.Len(t, store.Snapshot().SelectedCourseIDs, 1)
}

func TestAddConflictRejectedWithOccupantNames(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	_, err := store.Add(ctx, rawCourse("101", "1-2", 1, 3, "●"))
	require.NoError(t, err)

	_, err = store.Add(ctx, rawCourse("102", "2-3", 1, 3, "★"))
	var conflict *appErrors.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"101"}, conflict.OccupantIDs)
	assert.Equal(t, []string{"課程 101"}, conflict.OccupantNames)

	// rejected add leaves no trace
	snapshot := store.Snapshot()
	assert.Equal(t, []string{"101"}, snapshot.SelectedCourseIDs)
	assert.NotContains(t, snapshot.CourseData, "102")
}

func TestNoDoubleBookingInvariant(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	payloads := [][]byte{
		rawCourse("101", "1-2", 1, 3, "●"),
		rawCourse("102", "2-3", 1, 3, "★"), // conflicts with 101
		rawCourse("103", "1-2", 2, 2, "○"),
		rawCourse("104", "A-C", 2, 3, "選修"),
		rawCourse("104", "5", 5, 1, "☆"), // duplicate id
	}
	for _, payload := range payloads {
		_, _ = store.Add(ctx, payload)
	}

	snapshot := store.Snapshot()
	for cell, id := range snapshot.Grid {
		assert.Contains(t, snapshot.SelectedCourseIDs, id, "cell %s owned by unselected course", cell)
	}
	assert.Len(t, snapshot.SelectedCourseIDs, 3)
}

func TestIncrementalMatchesRebuild(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	for i, payload := range [][]byte{
		rawCourse("101", "1-2", 1, 3, "●"),
		rawCourse("102", "3-4", 1, 2, "★"),
		rawCourse("103", "A-B", 5, 1, "○"),
	} {
		_, err := store.Add(ctx, payload)
		require.NoError(t, err, "add %d", i)
	}

	snapshot := store.Snapshot()
	rebuilt := schedule.Rebuild(snapshot.SelectedCourseIDs, snapshot.CourseData, schedule.DefaultCatalog())
	assert.Equal(t, map[string]string(rebuilt), snapshot.Grid)
}

func TestRemoveRestoresState(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	_, err := store.Add(ctx, rawCourse("101", "1-2", 1, 3, "●"))
	require.NoError(t, err)
	before := store.Snapshot()

	_, err = store.Add(ctx, rawCourse("102", "5-6", 2, 2, "★"))
	require.NoError(t, err)

	store.Remove(ctx, "102")

	after := store.Snapshot()
	assert.Equal(t, before.SelectedCourseIDs, after.SelectedCourseIDs)
	assert.Equal(t, before.CourseData, after.CourseData)
	assert.Equal(t, before.Grid, after.Grid)
	assert.Equal(t, before.Credits, after.Credits)
	for _, id := range after.Grid {
		assert.NotEqual(t, "102", id)
	}

	// removing an absent id is a no-op
	store.Remove(ctx, "missing")
	assert.Equal(t, after.SelectedCourseIDs, store.Snapshot().SelectedCourseIDs)
}

func TestClearAll(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	_, err := store.Add(ctx, rawCourse("101", "1-2", 1, 3, "●"))
	require.NoError(t, err)

	store.Clear(ctx)

	snapshot := store.Snapshot()
	assert.Empty(t, snapshot.SelectedCourseIDs)
	assert.Empty(t, snapshot.CourseData)
	assert.Empty(t, snapshot.Grid)
	assert.Zero(t, snapshot.Credits.Total)
}

func TestCreditAggregation(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	adds := [][]byte{
		rawCourse("101", "1", 1, 3, "●"),    // required symbol
		rawCourse("102", "2", 1, 2, "★"),    // elective symbol
		rawCourse("103", "3", 1, 2, "共同必修"), // required keyword
		rawCourse("104", "4", 1, 1, "微學分"),  // unknown, defaults elective
	}
	for _, payload := range adds {
		_, err := store.Add(ctx, payload)
		require.NoError(t, err)
	}

	credits := store.Snapshot().Credits
	assert.Equal(t, 8.0, credits.Total)
	assert.Equal(t, 5.0, credits.Required)
	assert.Equal(t, 3.0, credits.Elective)
	assert.Equal(t, credits.Total, credits.Required+credits.Elective)
}

func TestCheckProbeDoesNotCommit(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	_, err := store.Add(ctx, rawCourse("101", "1-2", 1, 3, "●"))
	require.NoError(t, err)

	occupants, err := store.Check(rawCourse("102", "2-3", 1, 3, "★"))
	require.NoError(t, err)
	assert.Equal(t, []string{"101"}, occupants)
	assert.Len(t, store.Snapshot().SelectedCourseIDs, 1)

	occupants, err = store.Check(rawCourse("103", "5", 4, 3, "★"))
	require.NoError(t, err)
	assert.Empty(t, occupants)
}

func TestRehydrationRoundTrip(t *testing.T) {
	kv := kvstore.NewMemory()
	ctx := context.Background()

	first := NewStore(ctx, kv, schedule.DefaultCatalog(), "simulation", "test", nil)
	_, err := first.Add(ctx, rawCourse("101", "1-2", 1, 3, "●"))
	require.NoError(t, err)
	_, err = first.Add(ctx, rawCourse("102", "A-B", 3, 2, "★"))
	require.NoError(t, err)
	expected := first.Snapshot()

	second := NewStore(ctx, kv, schedule.DefaultCatalog(), "simulation", "test", nil)
	snapshot := second.Snapshot()
	assert.Equal(t, expected.SelectedCourseIDs, snapshot.SelectedCourseIDs)
	assert.Equal(t, expected.CourseData, snapshot.CourseData)
	assert.Equal(t, expected.Grid, snapshot.Grid)
	assert.Equal(t, expected.Credits, snapshot.Credits)
}

func TestRehydrationCorruptedStateFallsBackEmpty(t *testing.T) {
	kv := kvstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "simulation:test:selectedIds", `not json`))
	require.NoError(t, kv.Set(ctx, "simulation:test:courseData", `{"101":`))

	store := NewStore(ctx, kv, schedule.DefaultCatalog(), "simulation", "test", nil)
	snapshot := store.Snapshot()
	assert.Empty(t, snapshot.SelectedCourseIDs)
	assert.Empty(t, snapshot.CourseData)
	assert.Empty(t, snapshot.Grid)
}

func TestRehydrationCorruptSelectionDropsCourseData(t *testing.T) {
	kv := kvstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "simulation:test:selectedIds", `not json`))
	require.NoError(t, kv.Set(ctx, "simulation:test:courseData",
		`{"101":{"id":"101","name":"資料結構","credit":3,"courseType":"●","time":[{"day":1,"period":"1-2"}]}}`))

	store := NewStore(ctx, kv, schedule.DefaultCatalog(), "simulation", "test", nil)
	snapshot := store.Snapshot()
	assert.Empty(t, snapshot.SelectedCourseIDs)
	assert.Empty(t, snapshot.CourseData)
	assert.Empty(t, snapshot.Grid)

	// the orphaned record must not shadow a fresh add of the same course
	_, err := store.Add(ctx, rawCourse("101", "1-2", 1, 3, "●"))
	require.NoError(t, err)
	assert.Equal(t, []string{"101"}, store.Snapshot().SelectedCourseIDs)
	assert.Equal(t, 3.0, store.Snapshot().Credits.Total)
}

func TestRehydrationDropsSelectionWithoutCourseData(t *testing.T) {
	kv := kvstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "simulation:test:selectedIds", `["101","102"]`))
	require.NoError(t, kv.Set(ctx, "simulation:test:courseData",
		`{"101":{"id":"101","name":"資料結構","credit":3,"courseType":"●","time":[{"day":1,"period":"1-2"}]}}`))

	store := NewStore(ctx, kv, schedule.DefaultCatalog(), "simulation", "test", nil)
	snapshot := store.Snapshot()
	assert.Equal(t, []string{"101"}, snapshot.SelectedCourseIDs)

	// the id with no data is gone entirely, so that course can be added
	_, err := store.Add(ctx, rawCourse("102", "5-6", 2, 2, "★"))
	require.NoError(t, err)
	assert.Equal(t, []string{"101", "102"}, store.Snapshot().SelectedCourseIDs)
}

func TestRehydrationRenormalizesRecords(t *testing.T) {
	kv := kvstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "simulation:test:selectedIds", `["101"]`))
	// persisted by an older client without normalization applied
	require.NoError(t, kv.Set(ctx, "simulation:test:courseData",
		`{"101":{"id":101,"name":{"zh":"資料結構"},"credit":"3","time":{"mon":["3","4"]}}}`))

	store := NewStore(ctx, kv, schedule.DefaultCatalog(), "simulation", "test", nil)
	snapshot := store.Snapshot()
	require.Contains(t, snapshot.CourseData, "101")
	course := snapshot.CourseData["101"]
	assert.Equal(t, "資料結構", course.Name)
	assert.Equal(t, 3.0, course.Credit)
	assert.Equal(t, "101", snapshot.Grid["1_3"])
	assert.Equal(t, "101", snapshot.Grid["1_4"])
}

func TestPersistenceWriteFailureDoesNotBlockMutation(t *testing.T) {
	store := newTestStore(t, &failingKV{})

	_, err := store.Add(context.Background(), rawCourse("101", "1-2", 1, 3, "●"))
	require.NoError(t, err)
	assert.Equal(t, []string{"101"}, store.Snapshot().SelectedCourseIDs)
}

func TestSubscribersNotifiedOnMutation(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	var got []Snapshot
	store.Subscribe(func(s Snapshot) { got = append(got, s) })

	_, err := store.Add(ctx, rawCourse("101", "1-2", 1, 3, "●"))
	require.NoError(t, err)
	store.Remove(ctx, "101")
	store.Clear(ctx)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"101"}, got[0].SelectedCourseIDs)
	assert.Empty(t, got[1].SelectedCourseIDs)
}

func TestEndToEndScenario(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	courseA := []byte(`{"id":"101","name":"計算機概論","credit":3,"time":[{"day":1,"period":"1-2"}]}`)
	courseB := []byte(`{"id":"102","name":"線性代數","credit":3,"time":[{"day":1,"period":"2-3"}]}`)

	_, err := store.Add(ctx, courseA)
	require.NoError(t, err)

	_, err = store.Add(ctx, courseB)
	var conflict *appErrors.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Contains(t, conflict.OccupantIDs, "101")

	store.Remove(ctx, "101")

	_, err = store.Add(ctx, courseB)
	require.NoError(t, err)

	assert.Equal(t, 3.0, store.Snapshot().Credits.Total)
}

type failingKV struct{}

func (f *failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage offline")
}

func (f *failingKV) Set(context.Context, string, string) error {
	return errors.New("storage offline")
}

func (f *failingKV) Delete(context.Context, string) error {
	return errors.New("storage offline")
}
