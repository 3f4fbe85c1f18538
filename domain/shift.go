package domain

// Shift is a reusable working-time definition.
type Shift struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
	IsFullDay bool   `json:"isFullDay"`
	Color     string `json:"color,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// ShiftCalendar is one month's planning grid.
type ShiftCalendar struct {
	ID        string `json:"id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// ShiftAssignment is one (staff, day) cell of a calendar. ShiftID is empty
// while the cell is unassigned.
type ShiftAssignment struct {
	ID         string `json:"id"`
	CalendarID string `json:"calendarId"`
	ResourceID string `json:"resourceId"`
	Day        int    `json:"day"`
	ShiftID    string `json:"shiftId,omitempty"`
}

// AssignmentGrid is the full grid for one calendar plus the staff resources
// that joined after the calendar was materialized and have no rows yet.
type AssignmentGrid struct {
	Assignments []ShiftAssignment `json:"assignments"`
	NewStaff    []Resource        `json:"newStaff,omitempty"`
}
