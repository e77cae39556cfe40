package models

// CalendarEvent is one campus calendar entry, dates formatted YYYY-MM-DD.
type CalendarEvent struct {
	Date        string `json:"date"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
	Details     string `json:"details,omitempty"`
}
