package domain

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// GridStorage defines persistence for shift calendars and their
// assignment rows. Rows of one calendar share the calendar's partition.
type GridStorage interface {
	ListCalendars(ctx context.Context) ([]ShiftCalendar, error)
	InsertCalendar(ctx context.Context, cal ShiftCalendar) error
	ListAssignments(ctx context.Context, calendarID string) ([]ShiftAssignment, error)
	InsertAssignments(ctx context.Context, calendarID string, rows []ShiftAssignment) error
	SetAssignmentShift(ctx context.Context, calendarID, assignmentID string, shiftID string) error
	ListStaff(ctx context.Context) ([]Resource, error)
}

// CalendarService materializes and maintains monthly shift-planning grids:
// one assignment row per staff resource per day of the month.
type CalendarService struct {
	st GridStorage
}

func NewCalendarService(st GridStorage) CalendarService { return CalendarService{st: st} }

// Calendars lists calendars, most recent month first.
func (s CalendarService) Calendars(ctx context.Context) ([]ShiftCalendar, error) {
	cals, err := s.st.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(cals, func(i, j int) bool {
		if cals[i].Year != cals[j].Year {
			return cals[i].Year > cals[j].Year
		}
		return cals[i].Month > cals[j].Month
	})
	if cals == nil {
		cals = []ShiftCalendar{}
	}
	return cals, nil
}

// CreateCalendar creates the month and pre-materializes one unassigned row
// per staff resource per day.
func (s CalendarService) CreateCalendar(ctx context.Context, year, month int) (ShiftCalendar, error) {
	if month < 1 || month > 12 {
		return ShiftCalendar{}, invalid("month", "out of range")
	}
	if year < 2000 || year > 2100 {
		return ShiftCalendar{}, invalid("year", "out of range")
	}
	existing, err := s.st.ListCalendars(ctx)
	if err != nil {
		return ShiftCalendar{}, err
	}
	for _, c := range existing {
		if c.Year == year && c.Month == month {
			return ShiftCalendar{}, invalid("month", "a calendar for this month already exists")
		}
	}
	cal := ShiftCalendar{
		ID:        uuid.NewString(),
		Year:      year,
		Month:     month,
		CreatedAt: timestamp(),
	}
	if err := s.st.InsertCalendar(ctx, cal); err != nil {
		return ShiftCalendar{}, err
	}
	staff, err := s.st.ListStaff(ctx)
	if err != nil {
		return ShiftCalendar{}, err
	}
	rows := materializeRows(cal, staff)
	if len(rows) > 0 {
		if err := s.st.InsertAssignments(ctx, cal.ID, rows); err != nil {
			return ShiftCalendar{}, err
		}
	}
	return cal, nil
}

// Grid returns the calendar's assignment rows (day ascending) together
// with the staff resources that have no rows in it yet.
func (s CalendarService) Grid(ctx context.Context, calendarID string) (AssignmentGrid, error) {
	if _, err := s.findCalendar(ctx, calendarID); err != nil {
		return AssignmentGrid{}, err
	}
	rows, err := s.st.ListAssignments(ctx, calendarID)
	if err != nil {
		return AssignmentGrid{}, err
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Day != rows[j].Day {
			return rows[i].Day < rows[j].Day
		}
		return rows[i].ResourceID < rows[j].ResourceID
	})
	staff, err := s.st.ListStaff(ctx)
	if err != nil {
		return AssignmentGrid{}, err
	}
	assigned := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		assigned[r.ResourceID] = struct{}{}
	}
	var fresh []Resource
	for _, r := range staff {
		if _, ok := assigned[r.ID]; !ok {
			fresh = append(fresh, r)
		}
	}
	if rows == nil {
		rows = []ShiftAssignment{}
	}
	return AssignmentGrid{Assignments: rows, NewStaff: fresh}, nil
}

// AddNewStaff backfills day rows for every staff resource that joined
// after the calendar was created.
func (s CalendarService) AddNewStaff(ctx context.Context, calendarID string) (AssignmentGrid, error) {
	cal, err := s.findCalendar(ctx, calendarID)
	if err != nil {
		return AssignmentGrid{}, err
	}
	grid, err := s.Grid(ctx, calendarID)
	if err != nil {
		return AssignmentGrid{}, err
	}
	if len(grid.NewStaff) > 0 {
		rows := materializeRows(*cal, grid.NewStaff)
		if err := s.st.InsertAssignments(ctx, calendarID, rows); err != nil {
			return AssignmentGrid{}, err
		}
	}
	return s.Grid(ctx, calendarID)
}

// SetShift assigns a shift to one grid cell; an empty shiftID clears it.
func (s CalendarService) SetShift(ctx context.Context, calendarID, assignmentID, shiftID string) error {
	return s.st.SetAssignmentShift(ctx, calendarID, assignmentID, shiftID)
}

func (s CalendarService) findCalendar(ctx context.Context, id string) (*ShiftCalendar, error) {
	cals, err := s.st.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cals {
		if cals[i].ID == id {
			return &cals[i], nil
		}
	}
	return nil, ErrNotFound
}

func materializeRows(cal ShiftCalendar, staff []Resource) []ShiftAssignment {
	days := daysInMonth(cal.Year, cal.Month)
	rows := make([]ShiftAssignment, 0, len(staff)*days)
	for _, r := range staff {
		for day := 1; day <= days; day++ {
			rows = append(rows, ShiftAssignment{
				ID:         uuid.NewString(),
				CalendarID: cal.ID,
				ResourceID: r.ID,
				Day:        day,
			})
		}
	}
	return rows
}

func daysInMonth(year, month int) int {
	// Day zero of the next month normalizes to this month's last day.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
