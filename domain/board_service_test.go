package domain

import (
	"context"
	"testing"
)

const proj = "proj-1"

func seedLanes(f *fakeBoard, names ...string) []string {
	ids := make([]string, len(names))
	for i, name := range names {
		id := "lane-" + name
		f.lanes[id] = Lane{ID: id, ProjectID: proj, Name: name, Position: i + 1, Deletable: i != 0}
		ids[i] = id
	}
	return ids
}

func seedTask(f *fakeBoard, id, laneID string, pos int) {
	f.tasks[id] = Task{ID: id, ProjectID: proj, LaneID: laneID, Title: id, Status: f.lanes[laneID].Name, Position: pos}
}

func laneOrder(t *testing.T, b Board) []string {
	t.Helper()
	names := make([]string, 0, len(b.Lanes))
	for i, l := range b.Lanes {
		if l.Position != i+1 {
			t.Fatalf("lane %s at index %d has position %d, want %d", l.Name, i, l.Position, i+1)
		}
		names = append(names, l.Name)
	}
	return names
}

func lanePositions(t *testing.T, b Board) {
	t.Helper()
	seen := map[int]string{}
	for _, l := range b.Lanes {
		if prev, dup := seen[l.Position]; dup {
			t.Fatalf("lanes %s and %s share position %d", prev, l.Name, l.Position)
		}
		seen[l.Position] = l.Name
	}
	for i := 1; i <= len(b.Lanes); i++ {
		if _, ok := seen[i]; !ok {
			t.Fatalf("lane position %d missing, got %v", i, seen)
		}
	}
}

func taskOrderInLane(t *testing.T, b Board, laneID string) []string {
	t.Helper()
	var ids []string
	positions := map[int]string{}
	for _, task := range b.Tasks {
		if task.LaneID != laneID {
			continue
		}
		if prev, dup := positions[task.Position]; dup {
			t.Fatalf("tasks %s and %s share position %d in lane %s", prev, task.ID, task.Position, laneID)
		}
		positions[task.Position] = task.ID
	}
	for i := 1; i <= len(positions); i++ {
		id, ok := positions[i]
		if !ok {
			t.Fatalf("task position %d missing in lane %s, got %v", i, laneID, positions)
		}
		ids = append(ids, id)
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestInitLanesCreatesDefaults(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)

	b, err := svc.InitLanes(context.Background(), proj)
	if err != nil {
		t.Fatalf("init lanes: %v", err)
	}
	if got := laneOrder(t, b); !equalStrings(got, DefaultLaneNames) {
		t.Fatalf("unexpected default lanes: %v", got)
	}
	if b.Lanes[0].Deletable {
		t.Fatal("first default lane must not be deletable")
	}
	for _, l := range b.Lanes[1:] {
		if !l.Deletable {
			t.Fatalf("lane %s should be deletable", l.Name)
		}
	}
}

func TestAddLaneAtPositionShiftsTrailingLanes(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	seedLanes(f, "Backlog", "Doing", "Done")

	pos := 2
	b, err := svc.AddLane(context.Background(), proj, "Review", &pos)
	if err != nil {
		t.Fatalf("add lane: %v", err)
	}
	want := []string{"Backlog", "Review", "Doing", "Done"}
	if got := laneOrder(t, b); !equalStrings(got, want) {
		t.Fatalf("unexpected lane order: %v, want %v", got, want)
	}
}

func TestAddLaneAppendsWithoutPosition(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	seedLanes(f, "Backlog", "Doing")

	b, err := svc.AddLane(context.Background(), proj, "Done", nil)
	if err != nil {
		t.Fatalf("add lane: %v", err)
	}
	if got := laneOrder(t, b); !equalStrings(got, []string{"Backlog", "Doing", "Done"}) {
		t.Fatalf("unexpected lane order: %v", got)
	}
}

func TestAddLaneDuplicateNameCaseInsensitive(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	seedLanes(f, "Backlog")

	_, err := svc.AddLane(context.Background(), proj, "backlog", nil)
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.applied) != 0 {
		t.Fatal("no write may reach the store on a validation error")
	}
}

func TestAddLaneEmptyName(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)

	if _, err := svc.AddLane(context.Background(), proj, "   ", nil); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddLanePositionOutOfRange(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	seedLanes(f, "Backlog", "Doing")

	for _, pos := range []int{0, 4, -1} {
		p := pos
		if _, err := svc.AddLane(context.Background(), proj, "Review", &p); !IsValidation(err) {
			t.Fatalf("position %d: expected validation error, got %v", pos, err)
		}
	}
}

func TestReorderLaneRight(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "A", "B", "C", "D")

	b, err := svc.ReorderLane(context.Background(), proj, ids[0], 3)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if got := laneOrder(t, b); !equalStrings(got, []string{"B", "C", "A", "D"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestReorderLaneLeft(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "A", "B", "C", "D")

	b, err := svc.ReorderLane(context.Background(), proj, ids[3], 2)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if got := laneOrder(t, b); !equalStrings(got, []string{"A", "D", "B", "C"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestReorderLaneSamePositionIsNoop(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "A", "B", "C")

	b, err := svc.ReorderLane(context.Background(), proj, ids[1], 2)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if got := laneOrder(t, b); !equalStrings(got, []string{"A", "B", "C"}) {
		t.Fatalf("unexpected order: %v", got)
	}
	if len(f.applied) != 0 {
		t.Fatal("no-op reorder must not write")
	}
}

func TestRenameLaneCascadesTaskStatus(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "Backlog", "Doing")
	seedTask(f, "T1", ids[1], 1)
	seedTask(f, "T2", ids[1], 2)
	seedTask(f, "T3", ids[0], 1)

	b, err := svc.RenameLane(context.Background(), proj, ids[1], "In Review")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	for _, task := range b.Tasks {
		want := "Backlog"
		if task.LaneID == ids[1] {
			want = "In Review"
		}
		if task.Status != want {
			t.Fatalf("task %s status %q, want %q", task.ID, task.Status, want)
		}
	}
}

func TestRenameLaneDuplicateRejected(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "Backlog", "Doing")

	if _, err := svc.RenameLane(context.Background(), proj, ids[1], "BACKLOG"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteLaneMigratesTasksAndRenumbers(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "Backlog", "Doing", "Done")
	seedTask(f, "T1", ids[0], 1)
	seedTask(f, "T2", ids[1], 1)
	seedTask(f, "T3", ids[1], 2)

	b, err := svc.DeleteLane(context.Background(), proj, ids[1])
	if err != nil {
		t.Fatalf("delete lane: %v", err)
	}
	if got := laneOrder(t, b); !equalStrings(got, []string{"Backlog", "Done"}) {
		t.Fatalf("unexpected lanes after delete: %v", got)
	}
	// Orphans land after the landing lane's existing tasks, order kept.
	if got := taskOrderInLane(t, b, ids[0]); !equalStrings(got, []string{"T1", "T2", "T3"}) {
		t.Fatalf("unexpected landing lane order: %v", got)
	}
	for _, task := range b.Tasks {
		if task.Status != "Backlog" && task.LaneID == ids[0] {
			t.Fatalf("migrated task %s kept status %q", task.ID, task.Status)
		}
	}
	if len(f.applied) != 1 {
		t.Fatalf("expected one atomic write, got %d", len(f.applied))
	}
}

func TestDeleteLandingLaneRejected(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "Backlog", "Doing")

	_, err := svc.DeleteLane(context.Background(), proj, ids[0])
	if err != ErrLaneNotDeletable {
		t.Fatalf("expected ErrLaneNotDeletable, got %v", err)
	}
	if len(f.applied) != 0 {
		t.Fatal("rejected delete must not write")
	}
}

func TestDeleteLandingLaneRejectedAfterReorder(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "Backlog", "Doing", "Done")

	if _, err := svc.ReorderLane(context.Background(), proj, ids[0], 3); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	// The flag follows the original lane, not position 1.
	if _, err := svc.DeleteLane(context.Background(), proj, ids[0]); err != ErrLaneNotDeletable {
		t.Fatalf("expected ErrLaneNotDeletable, got %v", err)
	}
	if _, err := svc.DeleteLane(context.Background(), proj, ids[1]); err != nil {
		t.Fatalf("delete of deletable lane: %v", err)
	}
}

func TestAddTaskAppends(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "Backlog", "Doing")
	seedTask(f, "T1", ids[1], 1)

	task, err := svc.AddTask(context.Background(), proj, ids[1], "New work", "details", "")
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if task.Position != 2 {
		t.Fatalf("expected position 2, got %d", task.Position)
	}
	if task.Status != "Doing" {
		t.Fatalf("expected status mirror Doing, got %q", task.Status)
	}
}

func TestAddTaskEmptyLaneStartsAtOne(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "Backlog")

	task, err := svc.AddTask(context.Background(), proj, ids[0], "First", "", "")
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if task.Position != 1 {
		t.Fatalf("expected position 1, got %d", task.Position)
	}
}

func TestMoveTaskWithinLaneToFront(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "Backlog", "Doing")
	seedTask(f, "T1", ids[1], 1)
	seedTask(f, "T2", ids[1], 2)
	seedTask(f, "T3", ids[1], 3)

	pos := 1
	b, err := svc.MoveTask(context.Background(), proj, "T3", ids[1], &pos)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := taskOrderInLane(t, b, ids[1]); !equalStrings(got, []string{"T3", "T1", "T2"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestMoveTaskAcrossLanes(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "Backlog", "Doing", "Done")
	seedTask(f, "T1", ids[1], 1)
	seedTask(f, "T2", ids[1], 2)
	seedTask(f, "T3", ids[2], 1)

	pos := 1
	b, err := svc.MoveTask(context.Background(), proj, "T1", ids[2], &pos)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := taskOrderInLane(t, b, ids[1]); !equalStrings(got, []string{"T2"}) {
		t.Fatalf("unexpected source lane: %v", got)
	}
	if got := taskOrderInLane(t, b, ids[2]); !equalStrings(got, []string{"T1", "T3"}) {
		t.Fatalf("unexpected target lane: %v", got)
	}
	for _, task := range b.Tasks {
		if task.ID == "T1" && task.Status != "Done" {
			t.Fatalf("moved task status %q, want Done", task.Status)
		}
	}
	if len(f.applied) != 1 {
		t.Fatalf("expected one atomic write, got %d", len(f.applied))
	}
}

func TestMoveTaskRoundTripRestoresPositions(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "A", "B")
	seedTask(f, "T1", ids[0], 1)
	seedTask(f, "T2", ids[0], 2)
	seedTask(f, "T3", ids[0], 3)
	seedTask(f, "T4", ids[1], 1)

	ctx := context.Background()
	pos := 1
	if _, err := svc.MoveTask(ctx, proj, "T2", ids[1], &pos); err != nil {
		t.Fatalf("move out: %v", err)
	}
	pos = 2
	b, err := svc.MoveTask(ctx, proj, "T2", ids[0], &pos)
	if err != nil {
		t.Fatalf("move back: %v", err)
	}
	if got := taskOrderInLane(t, b, ids[0]); !equalStrings(got, []string{"T1", "T2", "T3"}) {
		t.Fatalf("round trip broke lane A: %v", got)
	}
	if got := taskOrderInLane(t, b, ids[1]); !equalStrings(got, []string{"T4"}) {
		t.Fatalf("round trip broke lane B: %v", got)
	}
}

func TestMoveTaskWithoutPositionAppends(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "A", "B")
	seedTask(f, "T1", ids[0], 1)
	seedTask(f, "T2", ids[1], 1)

	b, err := svc.MoveTask(context.Background(), proj, "T1", ids[1], nil)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := taskOrderInLane(t, b, ids[1]); !equalStrings(got, []string{"T2", "T1"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestMoveTaskSamePositionIsNoop(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "A")
	seedTask(f, "T1", ids[0], 1)
	seedTask(f, "T2", ids[0], 2)

	pos := 2
	if _, err := svc.MoveTask(context.Background(), proj, "T2", ids[0], &pos); err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(f.applied) != 0 {
		t.Fatal("no-op move must not write")
	}
}

func TestDeleteTaskRenumbersSiblings(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "A")
	seedTask(f, "T1", ids[0], 1)
	seedTask(f, "T2", ids[0], 2)
	seedTask(f, "T3", ids[0], 3)

	b, err := svc.DeleteTask(context.Background(), proj, "T2")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := taskOrderInLane(t, b, ids[0]); !equalStrings(got, []string{"T1", "T3"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestUpdateTaskLaneChangeRefreshesStatus(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ids := seedLanes(f, "Backlog", "Doing")
	seedTask(f, "T1", ids[0], 1)

	lane := ids[1]
	b, err := svc.UpdateTask(context.Background(), proj, "T1", TaskFields{LaneID: &lane})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	for _, task := range b.Tasks {
		if task.ID == "T1" && task.Status != "Doing" {
			t.Fatalf("status %q, want Doing", task.Status)
		}
	}
}

func TestContiguityAfterMixedSequence(t *testing.T) {
	f := newFakeBoard()
	svc := NewBoardService(f)
	ctx := context.Background()

	b, err := svc.InitLanes(ctx, proj)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	pos := 2
	if b, err = svc.AddLane(ctx, proj, "Review", &pos); err != nil {
		t.Fatalf("add lane: %v", err)
	}
	var review string
	for _, l := range b.Lanes {
		if l.Name == "Review" {
			review = l.ID
		}
	}
	if _, err := svc.AddTask(ctx, proj, review, "one", "", ""); err != nil {
		t.Fatalf("add task: %v", err)
	}
	if _, err := svc.AddTask(ctx, proj, review, "two", "", ""); err != nil {
		t.Fatalf("add task: %v", err)
	}
	if b, err = svc.ReorderLane(ctx, proj, review, 4); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	lanePositions(t, b)
	if b, err = svc.DeleteLane(ctx, proj, review); err != nil {
		t.Fatalf("delete lane: %v", err)
	}
	lanePositions(t, b)
	taskOrderInLane(t, b, b.Lanes[0].ID)
}
