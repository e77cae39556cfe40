package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/models"
)

func course(id string, entries ...models.TimeEntry) models.Course {
	return models.Course{ID: id, Name: "課程 " + id, Time: entries}
}

func TestRebuildOwnsEveryCell(t *testing.T) {
	catalog := DefaultCatalog()
	courses := map[string]models.Course{
		"101": course("101", models.TimeEntry{Day: 1, Period: "1-2"}),
		"102": course("102", models.TimeEntry{Day: 2, Period: "N"}),
	}

	grid := Rebuild([]string{"101", "102"}, courses, catalog)

	assert.Equal(t, Grid{
		"1_1": "101",
		"1_2": "101",
		"2_N": "102",
	}, grid)
}

func TestRebuildSkipsMissingCourseData(t *testing.T) {
	catalog := DefaultCatalog()
	grid := Rebuild([]string{"ghost"}, map[string]models.Course{}, catalog)
	assert.Empty(t, grid)
}

func TestRebuildLastWriterWinsOnIllegitimateOverlap(t *testing.T) {
	catalog := DefaultCatalog()
	courses := map[string]models.Course{
		"101": course("101", models.TimeEntry{Day: 1, Period: "1"}),
		"102": course("102", models.TimeEntry{Day: 1, Period: "1"}),
	}

	grid := Rebuild([]string{"101", "102"}, courses, catalog)
	assert.Equal(t, "102", grid["1_1"])
}

func TestPlaceMatchesRebuild(t *testing.T) {
	catalog := DefaultCatalog()
	courses := map[string]models.Course{
		"101": course("101", models.TimeEntry{Day: 1, Period: "1-2"}),
		"102": course("102", models.TimeEntry{Day: 3, Period: "A-C"}),
		"103": course("103", models.TimeEntry{Day: 5, Period: "99"}),
	}
	order := []string{"101", "102", "103"}

	incremental := make(Grid)
	for _, id := range order {
		incremental.Place(courses[id], catalog)
	}

	assert.Equal(t, Rebuild(order, courses, catalog), incremental)
}

func TestConflictsSymmetric(t *testing.T) {
	catalog := DefaultCatalog()
	a := course("101", models.TimeEntry{Day: 1, Period: "1-2"})
	b := course("102", models.TimeEntry{Day: 1, Period: "2-3"})

	gridWithA := Rebuild([]string{"101"}, map[string]models.Course{"101": a}, catalog)
	assert.Equal(t, []string{"101"}, Conflicts(gridWithA, b, catalog))

	gridWithB := Rebuild([]string{"102"}, map[string]models.Course{"102": b}, catalog)
	assert.Equal(t, []string{"102"}, Conflicts(gridWithB, a, catalog))
}

func TestConflictsNone(t *testing.T) {
	catalog := DefaultCatalog()
	a := course("101", models.TimeEntry{Day: 1, Period: "1-2"})
	b := course("102", models.TimeEntry{Day: 2, Period: "1-2"})

	grid := Rebuild([]string{"101"}, map[string]models.Course{"101": a}, catalog)
	assert.Empty(t, Conflicts(grid, b, catalog))
}

func TestConflictsReportsEachOccupantOnce(t *testing.T) {
	catalog := DefaultCatalog()
	a := course("101", models.TimeEntry{Day: 1, Period: "1-4"})
	candidate := course("103", models.TimeEntry{Day: 1, Period: "2-3"})

	grid := Rebuild([]string{"101"}, map[string]models.Course{"101": a}, catalog)
	occupants := Conflicts(grid, candidate, catalog)
	require.Len(t, occupants, 1)
	assert.Equal(t, "101", occupants[0])
}
