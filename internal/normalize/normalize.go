// Package normalize converts the loosely-structured course records exposed by
// the upstream crawler into the canonical Course shape. It is the single
// chokepoint for external course data: the schedule engine and the simulation
// store only ever see its output. Variant shapes resolve to documented
// defaults instead of errors, and normalizing an already-canonical record is
// a no-op.
package normalize

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/models"
)

// NoClassroomInfo is the location sentinel used when no classroom can be
// resolved; downstream display relies on location never being empty.
const NoClassroomInfo = "無教室資訊"

var dayNames = map[string]int{
	"mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6, "sun": 7,
}

// Course normalizes a decoded raw course record.
func Course(raw map[string]json.RawMessage) models.Course {
	c := models.Course{
		ID:         firstString(raw, "id", "courseId", "code"),
		Name:       bilingualString(raw["name"]),
		Credit:     firstNumber(raw, "credit", "credits", "creditsTotal"),
		CourseType: firstString(raw, "courseType", "type"),
		Teacher:    peopleString(raw["teacher"]),
		Location:   asString(raw["location"]),
		Time:       timeEntries(raw["time"]),
		SemesterID: asString(raw["semesterId"]),
	}

	if c.Credit < 0 {
		c.Credit = 0
	}

	if c.Location == "" {
		c.Location = classroomString(raw["classroom"])
	}
	if c.Location == "" || c.Location == "undefined" {
		c.Location = NoClassroomInfo
	}

	return c
}

// Parse decodes and normalizes a raw JSON course record. The error is
// non-nil only when the payload is not a JSON object at all, which callers
// treat as a foreign payload rather than a malformed course.
func Parse(raw []byte) (models.Course, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Course{}, err
	}
	return Course(fields), nil
}

func firstString(raw map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		if s := asString(raw[key]); s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(raw map[string]json.RawMessage, keys ...string) float64 {
	for _, key := range keys {
		if msg, ok := raw[key]; ok {
			if n, ok := asNumber(msg); ok {
				return n
			}
		}
	}
	return 0
}

// asString coerces a scalar JSON value to a string. Objects and arrays yield
// "" here; field-specific helpers handle those shapes.
func asString(msg json.RawMessage) string {
	if len(msg) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(msg, &n); err == nil {
		return formatNumber(n)
	}
	return ""
}

func asNumber(msg json.RawMessage) (float64, bool) {
	if len(msg) == 0 {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(msg, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// bilingualString resolves a name that may be a plain string or a {zh, en}
// object; zh wins, en is the fallback.
func bilingualString(msg json.RawMessage) string {
	if len(msg) == 0 {
		return ""
	}
	if s := asString(msg); s != "" {
		return s
	}
	var pair struct {
		Zh string `json:"zh"`
		En string `json:"en"`
	}
	if err := json.Unmarshal(msg, &pair); err == nil {
		if pair.Zh != "" {
			return pair.Zh
		}
		return pair.En
	}
	return ""
}

// peopleString resolves a teacher field that may be a string, an object with
// a name, or an array of either, joined with the full-width separator.
func peopleString(msg json.RawMessage) string {
	if len(msg) == 0 {
		return ""
	}
	if s := asString(msg); s != "" {
		return s
	}

	var list []json.RawMessage
	if err := json.Unmarshal(msg, &list); err == nil {
		names := make([]string, 0, len(list))
		for _, item := range list {
			if name := namedString(item); name != "" {
				names = append(names, name)
			}
		}
		return strings.Join(names, "、")
	}

	return namedString(msg)
}

func namedString(msg json.RawMessage) string {
	if s := asString(msg); s != "" {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(msg, &obj); err == nil {
		return obj.Name
	}
	return ""
}

func classroomString(msg json.RawMessage) string {
	return peopleString(msg)
}

// timeEntries normalizes the time field. Two source shapes exist: an array of
// {day, period} entries, and a day-keyed object (day names or day numbers as
// keys, each mapping to one period id or a list of them). The result is
// always a non-nil slice; empty means the course is unschedulable.
func timeEntries(msg json.RawMessage) []models.TimeEntry {
	entries := []models.TimeEntry{}
	if len(msg) == 0 {
		return entries
	}

	var list []struct {
		Day    json.RawMessage `json:"day"`
		Period json.RawMessage `json:"period"`
	}
	if err := json.Unmarshal(msg, &list); err == nil {
		for _, item := range list {
			day := dayNumber(item.Day)
			period := asString(item.Period)
			if day >= 1 && day <= 7 && period != "" {
				entries = append(entries, models.TimeEntry{Day: day, Period: period})
			}
		}
		return entries
	}

	var byDay map[string]json.RawMessage
	if err := json.Unmarshal(msg, &byDay); err != nil {
		return entries
	}

	keys := make([]string, 0, len(byDay))
	for key := range byDay {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return dayKeyIndex(keys[i]) < dayKeyIndex(keys[j])
	})

	for _, key := range keys {
		day := dayKeyIndex(key)
		if day < 1 || day > 7 {
			continue
		}
		for _, period := range periodList(byDay[key]) {
			entries = append(entries, models.TimeEntry{Day: day, Period: period})
		}
	}
	return entries
}

func dayNumber(msg json.RawMessage) int {
	if n, ok := asNumber(msg); ok {
		return int(n)
	}
	return dayKeyIndex(asString(msg))
}

func dayKeyIndex(key string) int {
	if day, ok := dayNames[strings.ToLower(key)]; ok {
		return day
	}
	if n, err := strconv.Atoi(strings.TrimSpace(key)); err == nil {
		return n
	}
	return 0
}

func periodList(msg json.RawMessage) []string {
	var list []json.RawMessage
	if err := json.Unmarshal(msg, &list); err == nil {
		periods := make([]string, 0, len(list))
		for _, item := range list {
			if p := asString(item); p != "" {
				periods = append(periods, p)
			}
		}
		return periods
	}
	if p := asString(msg); p != "" {
		return []string{p}
	}
	return nil
}
