package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/models"
)

func parseT(t *testing.T, raw string) models.Course {
	t.Helper()
	course, err := Parse([]byte(raw))
	require.NoError(t, err)
	return course
}

func TestParseBilingualName(t *testing.T) {
	course := parseT(t, `{"id":"101","name":{"zh":"資料結構","en":"Data Structures"}}`)
	assert.Equal(t, "資料結構", course.Name)

	course = parseT(t, `{"id":"101","name":{"en":"Data Structures"}}`)
	assert.Equal(t, "Data Structures", course.Name)

	course = parseT(t, `{"id":"101","name":"微積分"}`)
	assert.Equal(t, "微積分", course.Name)
}

func TestParseIDFallbacks(t *testing.T) {
	assert.Equal(t, "101", parseT(t, `{"id":101}`).ID)
	assert.Equal(t, "c-55", parseT(t, `{"courseId":"c-55"}`).ID)
	assert.Equal(t, "3012", parseT(t, `{"code":"3012"}`).ID)
	assert.Equal(t, "", parseT(t, `{}`).ID)
}

func TestParseCreditVariants(t *testing.T) {
	assert.Equal(t, 3.0, parseT(t, `{"credit":3}`).Credit)
	assert.Equal(t, 2.5, parseT(t, `{"credits":"2.5"}`).Credit)
	assert.Equal(t, 4.0, parseT(t, `{"creditsTotal":4}`).Credit)
	assert.Equal(t, 0.0, parseT(t, `{}`).Credit)
	assert.Equal(t, 0.0, parseT(t, `{"credit":-1}`).Credit)
}

func TestParseTeacherVariants(t *testing.T) {
	assert.Equal(t, "王小明", parseT(t, `{"teacher":"王小明"}`).Teacher)
	assert.Equal(t, "王小明", parseT(t, `{"teacher":{"name":"王小明"}}`).Teacher)
	assert.Equal(t, "王小明、陳美麗", parseT(t, `{"teacher":[{"name":"王小明"},{"name":"陳美麗"}]}`).Teacher)
	assert.Equal(t, "王小明、陳美麗", parseT(t, `{"teacher":["王小明","陳美麗"]}`).Teacher)
	assert.Equal(t, "", parseT(t, `{}`).Teacher)
}

func TestParseLocationDefaults(t *testing.T) {
	assert.Equal(t, "電學大樓 301", parseT(t, `{"location":"電學大樓 301"}`).Location)
	assert.Equal(t, "三教 201", parseT(t, `{"classroom":[{"name":"三教 201"}]}`).Location)
	assert.Equal(t, "三教 201", parseT(t, `{"classroom":{"name":"三教 201"}}`).Location)
	assert.Equal(t, NoClassroomInfo, parseT(t, `{}`).Location)
	assert.Equal(t, NoClassroomInfo, parseT(t, `{"classroom":[]}`).Location)
}

func TestParseTimeArray(t *testing.T) {
	course := parseT(t, `{"time":[{"day":1,"period":"3-5"},{"day":3,"period":2}]}`)
	require.Len(t, course.Time, 2)
	assert.Equal(t, models.TimeEntry{Day: 1, Period: "3-5"}, course.Time[0])
	assert.Equal(t, models.TimeEntry{Day: 3, Period: "2"}, course.Time[1])
}

func TestParseTimeDayKeyedObject(t *testing.T) {
	course := parseT(t, `{"time":{"mon":["1","2"],"wed":["A"],"sat":[]}}`)
	require.Len(t, course.Time, 3)
	assert.Equal(t, models.TimeEntry{Day: 1, Period: "1"}, course.Time[0])
	assert.Equal(t, models.TimeEntry{Day: 1, Period: "2"}, course.Time[1])
	assert.Equal(t, models.TimeEntry{Day: 3, Period: "A"}, course.Time[2])

	course = parseT(t, `{"time":{"2":"5"}}`)
	require.Len(t, course.Time, 1)
	assert.Equal(t, models.TimeEntry{Day: 2, Period: "5"}, course.Time[0])
}

func TestParseTimeAlwaysArray(t *testing.T) {
	assert.NotNil(t, parseT(t, `{}`).Time)
	assert.Empty(t, parseT(t, `{}`).Time)
	assert.Empty(t, parseT(t, `{"time":"invalid"}`).Time)
	assert.False(t, parseT(t, `{}`).Schedulable())
}

func TestParseRejectsNonObject(t *testing.T) {
	_, err := Parse([]byte(`not json`))
	assert.Error(t, err)
	_, err = Parse([]byte(`[1,2,3]`))
	assert.Error(t, err)
}

func TestNormalizeIdempotent(t *testing.T) {
	variants := []string{
		`{"id":101,"name":{"zh":"資料結構","en":"Data Structures"},"credit":"3","teacher":[{"name":"王小明"}],"classroom":[{"name":"三教 201"}],"time":{"mon":["3","4"]},"courseType":"●"}`,
		`{"courseId":"c-55","name":"體育","credits":0,"teacher":"陳美麗","time":[{"day":5,"period":"N"}]}`,
		`{"code":"3012","name":{"en":"Calculus"},"creditsTotal":4,"time":[]}`,
	}

	for _, raw := range variants {
		once, err := Parse([]byte(raw))
		require.NoError(t, err)

		encoded, err := json.Marshal(once)
		require.NoError(t, err)

		twice, err := Parse(encoded)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "normalize must be idempotent for %s", raw)
	}
}

func TestParseCarriesSemesterID(t *testing.T) {
	course := parseT(t, `{"id":"101","semesterId":"114-1","time":[{"day":1,"period":"1"}]}`)
	assert.Equal(t, "114-1", course.SemesterID)
}
