package models

import "encoding/json"

// DepartmentOption identifies one department standard, value formatted as
// "system-department" (e.g. "四技-電機系").
type DepartmentOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CourseStandard is the graduation credit-rule breakdown for a department.
// Courses and Rules pass through from upstream untouched.
type CourseStandard struct {
	Year                 string          `json:"year"`
	System               string          `json:"system"`
	Department           string          `json:"department"`
	GeneralRequired      float64         `json:"generalRequired"`
	ProfessionalRequired float64         `json:"professionalRequired"`
	ProfessionalElective float64         `json:"professionalElective"`
	FreeElective         float64         `json:"freeElective"`
	GraduationTotal      float64         `json:"graduationTotal"`
	Courses              json.RawMessage `json:"courses,omitempty"`
	Rules                json.RawMessage `json:"rules,omitempty"`
}
