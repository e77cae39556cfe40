package models

// TimeEntry is one scheduled block of a course: a weekday (Mon=1..Sun=7) and
// a period label, either a single period id ("3") or an inclusive range
// ("3-5").
type TimeEntry struct {
	Day    int    `json:"day"`
	Period string `json:"period"`
}

// Course is the canonical course record. Every external record passes through
// normalize.Parse before it is allowed anywhere near the schedule engine;
// past that boundary the fields below are shape-stable.
type Course struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Credit     float64     `json:"credit"`
	CourseType string      `json:"courseType"`
	Teacher    string      `json:"teacher"`
	Location   string      `json:"location"`
	Time       []TimeEntry `json:"time"`
	SemesterID string      `json:"semesterId,omitempty"`
}

// Schedulable reports whether the course has at least one time entry.
// Courses without one cannot enter the simulation.
func (c Course) Schedulable() bool {
	return len(c.Time) > 0
}

// CreditSummary aggregates credits over the selected courses.
type CreditSummary struct {
	Total    float64 `json:"total"`
	Required float64 `json:"required"`
	Elective float64 `json:"elective"`
}

// SemesterOption is one selectable semester, value formatted as "year-sem".
type SemesterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
