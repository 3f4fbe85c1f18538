package domain

import "strings"

// PositionChange assigns a new position to an existing lane or task as part
// of a reorder. All changes of one logical operation are persisted in a
// single batch so positions never go non-contiguous between operations.
type PositionChange struct {
	ID       string
	Position int
}

// laneInsertShifts opens a slot at position desired by shifting every lane
// at or after it one place right. Lanes already ordered is not assumed.
func laneInsertShifts(lanes []Lane, desired int) []PositionChange {
	var shifts []PositionChange
	for _, l := range lanes {
		if l.Position >= desired {
			shifts = append(shifts, PositionChange{ID: l.ID, Position: l.Position + 1})
		}
	}
	return shifts
}

// laneReorderShifts moves the lane from oldPos to newPos, shifting only the
// lanes strictly between the two. Callers handle the oldPos == newPos no-op.
func laneReorderShifts(lanes []Lane, laneID string, oldPos, newPos int) []PositionChange {
	var shifts []PositionChange
	for _, l := range lanes {
		if l.ID == laneID {
			continue
		}
		switch {
		case oldPos < newPos && l.Position > oldPos && l.Position <= newPos:
			shifts = append(shifts, PositionChange{ID: l.ID, Position: l.Position - 1})
		case oldPos > newPos && l.Position >= newPos && l.Position < oldPos:
			shifts = append(shifts, PositionChange{ID: l.ID, Position: l.Position + 1})
		}
	}
	shifts = append(shifts, PositionChange{ID: laneID, Position: newPos})
	return shifts
}

// laneRemovalShifts closes the gap left by removing the lane at removedPos.
func laneRemovalShifts(lanes []Lane, removedID string, removedPos int) []PositionChange {
	var shifts []PositionChange
	for _, l := range lanes {
		if l.ID == removedID {
			continue
		}
		if l.Position > removedPos {
			shifts = append(shifts, PositionChange{ID: l.ID, Position: l.Position - 1})
		}
	}
	return shifts
}

// taskReorderShifts moves a task within its lane from oldPos to newPos.
func taskReorderShifts(tasks []Task, laneID, taskID string, oldPos, newPos int) []PositionChange {
	var shifts []PositionChange
	for _, t := range tasks {
		if t.LaneID != laneID || t.ID == taskID {
			continue
		}
		switch {
		case oldPos < newPos && t.Position > oldPos && t.Position <= newPos:
			shifts = append(shifts, PositionChange{ID: t.ID, Position: t.Position - 1})
		case oldPos > newPos && t.Position >= newPos && t.Position < oldPos:
			shifts = append(shifts, PositionChange{ID: t.ID, Position: t.Position + 1})
		}
	}
	shifts = append(shifts, PositionChange{ID: taskID, Position: newPos})
	return shifts
}

// taskInsertShifts opens a slot at targetPos in the target lane.
func taskInsertShifts(tasks []Task, laneID, movedID string, targetPos int) []PositionChange {
	var shifts []PositionChange
	for _, t := range tasks {
		if t.LaneID != laneID || t.ID == movedID {
			continue
		}
		if t.Position >= targetPos {
			shifts = append(shifts, PositionChange{ID: t.ID, Position: t.Position + 1})
		}
	}
	return shifts
}

// taskRemovalShifts closes the gap left at removedPos in the source lane.
func taskRemovalShifts(tasks []Task, laneID, removedID string, removedPos int) []PositionChange {
	var shifts []PositionChange
	for _, t := range tasks {
		if t.LaneID != laneID || t.ID == removedID {
			continue
		}
		if t.Position > removedPos {
			shifts = append(shifts, PositionChange{ID: t.ID, Position: t.Position - 1})
		}
	}
	return shifts
}

func findLane(lanes []Lane, id string) *Lane {
	for i := range lanes {
		if lanes[i].ID == id {
			return &lanes[i]
		}
	}
	return nil
}

func findTask(tasks []Task, id string) *Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}

// laneNameTaken reports whether name collides case-insensitively with
// another lane of the same board.
func laneNameTaken(lanes []Lane, name, excludeID string) bool {
	for _, l := range lanes {
		if l.ID == excludeID {
			continue
		}
		if strings.EqualFold(l.Name, name) {
			return true
		}
	}
	return false
}

func countInLane(tasks []Task, laneID string) int {
	n := 0
	for _, t := range tasks {
		if t.LaneID == laneID {
			n++
		}
	}
	return n
}

func maxPositionInLane(tasks []Task, laneID string) int {
	max := 0
	for _, t := range tasks {
		if t.LaneID == laneID && t.Position > max {
			max = t.Position
		}
	}
	return max
}
