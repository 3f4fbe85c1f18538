package domain

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BoardStorage defines the persistence operations the ordering engine
// needs. ApplyBoard must persist the whole write atomically; lanes and
// tasks of one project live in one partition so a single table transaction
// covers any reorder.
type BoardStorage interface {
	ListLanes(ctx context.Context, projectID string) ([]Lane, error)
	ListTasks(ctx context.Context, projectID string) ([]Task, error)
	ApplyBoard(ctx context.Context, projectID string, w BoardWrite) error
}

// BoardWrite is one logical board mutation: inserts, partial updates and
// deletes that must be persisted together.
type BoardWrite struct {
	InsertLanes []Lane
	UpdateLanes []LaneWrite
	DeleteLanes []string
	InsertTasks []Task
	UpdateTasks []TaskWrite
	DeleteTasks []string
}

// LaneWrite is a partial lane update.
type LaneWrite struct {
	ID       string
	Name     *string
	Position *int
}

// TaskWrite is a partial task update.
type TaskWrite struct {
	ID          string
	Title       *string
	Description *string
	LaneID      *string
	Status      *string
	ResourceID  *string
	Position    *int
	UpdatedAt   *string
}

// BoardService maintains the contiguous 1..N position ordering of lanes
// within a project and tasks within a lane.
type BoardService struct {
	st BoardStorage
}

func NewBoardService(st BoardStorage) BoardService { return BoardService{st: st} }

// Board returns the project's lanes and tasks ordered by position.
func (s BoardService) Board(ctx context.Context, projectID string) (Board, error) {
	lanes, err := s.st.ListLanes(ctx, projectID)
	if err != nil {
		return Board{}, err
	}
	tasks, err := s.st.ListTasks(ctx, projectID)
	if err != nil {
		return Board{}, err
	}
	sort.Slice(lanes, func(i, j int) bool { return lanes[i].Position < lanes[j].Position })
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].LaneID != tasks[j].LaneID {
			return tasks[i].LaneID < tasks[j].LaneID
		}
		return tasks[i].Position < tasks[j].Position
	})
	if lanes == nil {
		lanes = []Lane{}
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return Board{Lanes: lanes, Tasks: tasks}, nil
}

// InitLanes creates the default lanes for a freshly created project. The
// first default lane is the landing lane and cannot be deleted.
func (s BoardService) InitLanes(ctx context.Context, projectID string) (Board, error) {
	now := timestamp()
	lanes := make([]Lane, 0, len(DefaultLaneNames))
	for i, name := range DefaultLaneNames {
		lanes = append(lanes, Lane{
			ID:        uuid.NewString(),
			ProjectID: projectID,
			Name:      name,
			Position:  i + 1,
			Deletable: i != 0,
			CreatedAt: now,
		})
	}
	if err := s.st.ApplyBoard(ctx, projectID, BoardWrite{InsertLanes: lanes}); err != nil {
		return Board{}, err
	}
	return s.Board(ctx, projectID)
}

// AddLane inserts a lane at desired (1..N+1) or appends when desired is nil.
func (s BoardService) AddLane(ctx context.Context, projectID, name string, desired *int) (Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Board{}, invalid("name", "must not be empty")
	}
	lanes, err := s.st.ListLanes(ctx, projectID)
	if err != nil {
		return Board{}, err
	}
	if laneNameTaken(lanes, name, "") {
		return Board{}, invalid("name", "a lane with this name already exists")
	}
	pos := len(lanes) + 1
	var shifts []PositionChange
	if desired != nil {
		if *desired < 1 || *desired > len(lanes)+1 {
			return Board{}, invalid("position", "out of range")
		}
		pos = *desired
		if pos <= len(lanes) {
			shifts = laneInsertShifts(lanes, pos)
		}
	}
	w := BoardWrite{
		InsertLanes: []Lane{{
			ID:        uuid.NewString(),
			ProjectID: projectID,
			Name:      name,
			Position:  pos,
			Deletable: true,
			CreatedAt: timestamp(),
		}},
		UpdateLanes: positionWrites(shifts),
	}
	if err := s.st.ApplyBoard(ctx, projectID, w); err != nil {
		return Board{}, err
	}
	return s.Board(ctx, projectID)
}

// RenameLane renames a lane and cascades the new name to the status mirror
// of every task in it, in one write.
func (s BoardService) RenameLane(ctx context.Context, projectID, laneID, newName string) (Board, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return Board{}, invalid("name", "must not be empty")
	}
	lanes, err := s.st.ListLanes(ctx, projectID)
	if err != nil {
		return Board{}, err
	}
	lane := findLane(lanes, laneID)
	if lane == nil {
		return Board{}, ErrNotFound
	}
	if laneNameTaken(lanes, newName, laneID) {
		return Board{}, invalid("name", "a lane with this name already exists")
	}
	tasks, err := s.st.ListTasks(ctx, projectID)
	if err != nil {
		return Board{}, err
	}
	w := BoardWrite{UpdateLanes: []LaneWrite{{ID: laneID, Name: &newName}}}
	now := timestamp()
	for _, t := range tasks {
		if t.LaneID == laneID {
			status := newName
			w.UpdateTasks = append(w.UpdateTasks, TaskWrite{ID: t.ID, Status: &status, UpdatedAt: &now})
		}
	}
	if err := s.st.ApplyBoard(ctx, projectID, w); err != nil {
		return Board{}, err
	}
	return s.Board(ctx, projectID)
}

// DeleteLane removes a deletable lane. Its tasks are migrated to the
// landing lane, appended after the landing lane's existing tasks in their
// current order, and the remaining lanes are renumbered to stay contiguous.
func (s BoardService) DeleteLane(ctx context.Context, projectID, laneID string) (Board, error) {
	lanes, err := s.st.ListLanes(ctx, projectID)
	if err != nil {
		return Board{}, err
	}
	lane := findLane(lanes, laneID)
	if lane == nil {
		return Board{}, ErrNotFound
	}
	if !lane.Deletable {
		return Board{}, ErrLaneNotDeletable
	}
	landing := landingLane(lanes)
	if landing == nil {
		return Board{}, invalid("lane", "project has no landing lane")
	}
	tasks, err := s.st.ListTasks(ctx, projectID)
	if err != nil {
		return Board{}, err
	}

	var orphans []Task
	for _, t := range tasks {
		if t.LaneID == laneID {
			orphans = append(orphans, t)
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Position < orphans[j].Position })

	w := BoardWrite{DeleteLanes: []string{laneID}}
	for _, c := range laneRemovalShifts(lanes, laneID, lane.Position) {
		pos := c.Position
		w.UpdateLanes = append(w.UpdateLanes, LaneWrite{ID: c.ID, Position: &pos})
	}
	base := maxPositionInLane(tasks, landing.ID)
	now := timestamp()
	for i := range orphans {
		target := landing.ID
		status := landing.Name
		pos := base + i + 1
		w.UpdateTasks = append(w.UpdateTasks, TaskWrite{
			ID:        orphans[i].ID,
			LaneID:    &target,
			Status:    &status,
			Position:  &pos,
			UpdatedAt: &now,
		})
	}
	if err := s.st.ApplyBoard(ctx, projectID, w); err != nil {
		return Board{}, err
	}
	return s.Board(ctx, projectID)
}

// ReorderLane moves a lane to newPos (1..N).
func (s BoardService) ReorderLane(ctx context.Context, projectID, laneID string, newPos int) (Board, error) {
	lanes, err := s.st.ListLanes(ctx, projectID)
	if err != nil {
		return Board{}, err
	}
	lane := findLane(lanes, laneID)
	if lane == nil {
		return Board{}, ErrNotFound
	}
	if newPos < 1 || newPos > len(lanes) {
		return Board{}, invalid("position", "out of range")
	}
	if newPos == lane.Position {
		return s.Board(ctx, projectID)
	}
	w := BoardWrite{UpdateLanes: positionWrites(laneReorderShifts(lanes, laneID, lane.Position, newPos))}
	if err := s.st.ApplyBoard(ctx, projectID, w); err != nil {
		return Board{}, err
	}
	return s.Board(ctx, projectID)
}

// AddTask appends a task to the end of a lane.
func (s BoardService) AddTask(ctx context.Context, projectID, laneID, title, description, resourceID string) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, invalid("title", "must not be empty")
	}
	lanes, err := s.st.ListLanes(ctx, projectID)
	if err != nil {
		return Task{}, err
	}
	lane := findLane(lanes, laneID)
	if lane == nil {
		return Task{}, ErrNotFound
	}
	tasks, err := s.st.ListTasks(ctx, projectID)
	if err != nil {
		return Task{}, err
	}
	now := timestamp()
	task := Task{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		LaneID:      laneID,
		Title:       title,
		Description: description,
		Status:      lane.Name,
		ResourceID:  resourceID,
		Position:    maxPositionInLane(tasks, laneID) + 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.st.ApplyBoard(ctx, projectID, BoardWrite{InsertTasks: []Task{task}}); err != nil {
		return Task{}, err
	}
	return task, nil
}

// UpdateTask applies raw field changes. A lane change through this path
// refreshes the status mirror but performs no renumbering; drag-and-drop
// moves go through MoveTask.
func (s BoardService) UpdateTask(ctx context.Context, projectID, taskID string, fields TaskFields) (Board, error) {
	tasks, err := s.st.ListTasks(ctx, projectID)
	if err != nil {
		return Board{}, err
	}
	if findTask(tasks, taskID) == nil {
		return Board{}, ErrNotFound
	}
	now := timestamp()
	w := TaskWrite{
		ID:          taskID,
		Title:       fields.Title,
		Description: fields.Description,
		ResourceID:  fields.ResourceID,
		Position:    fields.Position,
		UpdatedAt:   &now,
	}
	if fields.Title != nil && strings.TrimSpace(*fields.Title) == "" {
		return Board{}, invalid("title", "must not be empty")
	}
	if fields.LaneID != nil {
		lanes, err := s.st.ListLanes(ctx, projectID)
		if err != nil {
			return Board{}, err
		}
		lane := findLane(lanes, *fields.LaneID)
		if lane == nil {
			return Board{}, ErrNotFound
		}
		w.LaneID = fields.LaneID
		status := lane.Name
		w.Status = &status
	}
	if err := s.st.ApplyBoard(ctx, projectID, BoardWrite{UpdateTasks: []TaskWrite{w}}); err != nil {
		return Board{}, err
	}
	return s.Board(ctx, projectID)
}

// DeleteTask removes a task and renumbers the remaining tasks of its lane.
func (s BoardService) DeleteTask(ctx context.Context, projectID, taskID string) (Board, error) {
	tasks, err := s.st.ListTasks(ctx, projectID)
	if err != nil {
		return Board{}, err
	}
	task := findTask(tasks, taskID)
	if task == nil {
		return Board{}, ErrNotFound
	}
	w := BoardWrite{
		DeleteTasks: []string{taskID},
		UpdateTasks: taskWrites(taskRemovalShifts(tasks, task.LaneID, taskID, task.Position)),
	}
	if err := s.st.ApplyBoard(ctx, projectID, w); err != nil {
		return Board{}, err
	}
	return s.Board(ctx, projectID)
}

// MoveTask is the drag-and-drop move. A nil targetPos appends the task to
// the end of the target lane. Same-lane moves shift the tasks strictly
// between the old and new position; cross-lane moves open a slot in the
// target lane and close the gap in the source lane. All shifts and the
// move itself are persisted as one write.
func (s BoardService) MoveTask(ctx context.Context, projectID, taskID, targetLaneID string, targetPos *int) (Board, error) {
	lanes, err := s.st.ListLanes(ctx, projectID)
	if err != nil {
		return Board{}, err
	}
	target := findLane(lanes, targetLaneID)
	if target == nil {
		return Board{}, ErrNotFound
	}
	tasks, err := s.st.ListTasks(ctx, projectID)
	if err != nil {
		return Board{}, err
	}
	task := findTask(tasks, taskID)
	if task == nil {
		return Board{}, ErrNotFound
	}

	now := timestamp()
	if task.LaneID == targetLaneID {
		count := countInLane(tasks, targetLaneID)
		pos := count
		if targetPos != nil {
			pos = *targetPos
		}
		if pos < 1 || pos > count {
			return Board{}, invalid("position", "out of range")
		}
		if pos == task.Position {
			return s.Board(ctx, projectID)
		}
		w := BoardWrite{UpdateTasks: taskWrites(taskReorderShifts(tasks, targetLaneID, taskID, task.Position, pos))}
		for i := range w.UpdateTasks {
			w.UpdateTasks[i].UpdatedAt = &now
		}
		if err := s.st.ApplyBoard(ctx, projectID, w); err != nil {
			return Board{}, err
		}
		return s.Board(ctx, projectID)
	}

	count := countInLane(tasks, targetLaneID)
	pos := count + 1
	if targetPos != nil {
		pos = *targetPos
	}
	if pos < 1 || pos > count+1 {
		return Board{}, invalid("position", "out of range")
	}
	w := BoardWrite{UpdateTasks: taskWrites(taskInsertShifts(tasks, targetLaneID, taskID, pos))}
	status := target.Name
	w.UpdateTasks = append(w.UpdateTasks, TaskWrite{
		ID:        taskID,
		LaneID:    &targetLaneID,
		Status:    &status,
		Position:  &pos,
		UpdatedAt: &now,
	})
	w.UpdateTasks = append(w.UpdateTasks, taskWrites(taskRemovalShifts(tasks, task.LaneID, taskID, task.Position))...)
	if err := s.st.ApplyBoard(ctx, projectID, w); err != nil {
		return Board{}, err
	}
	return s.Board(ctx, projectID)
}

// landingLane is the project's designated non-deletable lane. The flag
// follows the lane itself, not whichever lane currently sits at position 1.
func landingLane(lanes []Lane) *Lane {
	for i := range lanes {
		if !lanes[i].Deletable {
			return &lanes[i]
		}
	}
	return nil
}

func positionWrites(shifts []PositionChange) []LaneWrite {
	ws := make([]LaneWrite, 0, len(shifts))
	for _, c := range shifts {
		pos := c.Position
		ws = append(ws, LaneWrite{ID: c.ID, Position: &pos})
	}
	return ws
}

func taskWrites(shifts []PositionChange) []TaskWrite {
	ws := make([]TaskWrite, 0, len(shifts))
	for _, c := range shifts {
		pos := c.Position
		ws = append(ws, TaskWrite{ID: c.ID, Position: &pos})
	}
	return ws
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
