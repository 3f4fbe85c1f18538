package domain

import (
	"context"
	"errors"
	"sort"
)

// fakeBoard implements BoardStorage in memory and applies writes the way
// the table store does: all rows of one write succeed or none do.
type fakeBoard struct {
	lanes    map[string]Lane
	tasks    map[string]Task
	applyErr error
	applied  []BoardWrite
	listErr  error
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{lanes: map[string]Lane{}, tasks: map[string]Task{}}
}

func (f *fakeBoard) ListLanes(ctx context.Context, projectID string) ([]Lane, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []Lane
	for _, l := range f.lanes {
		if l.ProjectID == projectID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeBoard) ListTasks(ctx context.Context, projectID string) ([]Task, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []Task
	for _, t := range f.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeBoard) ApplyBoard(ctx context.Context, projectID string, w BoardWrite) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, w)
	for _, l := range w.InsertLanes {
		if _, exists := f.lanes[l.ID]; exists {
			return errors.New("lane already exists")
		}
		f.lanes[l.ID] = l
	}
	for _, u := range w.UpdateLanes {
		l, ok := f.lanes[u.ID]
		if !ok {
			return errors.New("lane missing")
		}
		if u.Name != nil {
			l.Name = *u.Name
		}
		if u.Position != nil {
			l.Position = *u.Position
		}
		f.lanes[u.ID] = l
	}
	for _, id := range w.DeleteLanes {
		delete(f.lanes, id)
	}
	for _, t := range w.InsertTasks {
		if _, exists := f.tasks[t.ID]; exists {
			return errors.New("task already exists")
		}
		f.tasks[t.ID] = t
	}
	for _, u := range w.UpdateTasks {
		t, ok := f.tasks[u.ID]
		if !ok {
			return errors.New("task missing")
		}
		if u.Title != nil {
			t.Title = *u.Title
		}
		if u.Description != nil {
			t.Description = *u.Description
		}
		if u.LaneID != nil {
			t.LaneID = *u.LaneID
		}
		if u.Status != nil {
			t.Status = *u.Status
		}
		if u.ResourceID != nil {
			t.ResourceID = *u.ResourceID
		}
		if u.Position != nil {
			t.Position = *u.Position
		}
		if u.UpdatedAt != nil {
			t.UpdatedAt = *u.UpdatedAt
		}
		f.tasks[u.ID] = t
	}
	for _, id := range w.DeleteTasks {
		delete(f.tasks, id)
	}
	return nil
}

// fakeGrid implements GridStorage in memory.
type fakeGrid struct {
	calendars   []ShiftCalendar
	assignments map[string][]ShiftAssignment
	staff       []Resource
	insertErr   error
}

func newFakeGrid() *fakeGrid {
	return &fakeGrid{assignments: map[string][]ShiftAssignment{}}
}

func (f *fakeGrid) ListCalendars(ctx context.Context) ([]ShiftCalendar, error) {
	return append([]ShiftCalendar(nil), f.calendars...), nil
}

func (f *fakeGrid) InsertCalendar(ctx context.Context, cal ShiftCalendar) error {
	f.calendars = append(f.calendars, cal)
	return nil
}

func (f *fakeGrid) ListAssignments(ctx context.Context, calendarID string) ([]ShiftAssignment, error) {
	return append([]ShiftAssignment(nil), f.assignments[calendarID]...), nil
}

func (f *fakeGrid) InsertAssignments(ctx context.Context, calendarID string, rows []ShiftAssignment) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.assignments[calendarID] = append(f.assignments[calendarID], rows...)
	return nil
}

func (f *fakeGrid) SetAssignmentShift(ctx context.Context, calendarID, assignmentID, shiftID string) error {
	rows := f.assignments[calendarID]
	for i := range rows {
		if rows[i].ID == assignmentID {
			rows[i].ShiftID = shiftID
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeGrid) ListStaff(ctx context.Context) ([]Resource, error) {
	return append([]Resource(nil), f.staff...), nil
}
