package models

// ClassOption is one selectable class within a department.
type ClassOption struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	DeptName  string `json:"deptName"`
	ClassCode string `json:"classCode"`
}

// Department groups classes under a college category.
type Department struct {
	Category string        `json:"category"`
	Name     string        `json:"name"`
	Classes  []ClassOption `json:"classes"`
}
