package storage

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"crewboard-api/domain"
)

func decodeAction(t *testing.T, a aztables.TransactionAction) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(a.Entity, &m); err != nil {
		t.Fatalf("decode action entity: %v", err)
	}
	return m
}

func TestBoardActionsSingleTransactionForMove(t *testing.T) {
	w := domain.BoardWrite{
		UpdateTasks: []domain.TaskWrite{
			{ID: "t2", Position: ptrInt(1)},
			{ID: "t1", Position: ptrInt(2), LaneID: ptrStr("lane-b"), Status: ptrStr("Doing")},
		},
	}
	actions, err := boardActions("p1", w)
	if err != nil {
		t.Fatalf("board actions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}
	for _, a := range actions {
		if a.ActionType != aztables.TransactionTypeUpdateMerge {
			t.Fatalf("expected merge action, got %v", a.ActionType)
		}
		m := decodeAction(t, a)
		if m["PartitionKey"] != "p1" {
			t.Fatalf("all actions must share the project partition, got %v", m["PartitionKey"])
		}
	}
	moved := decodeAction(t, actions[1])
	if moved["LaneId"] != "lane-b" || moved["Status"] != "Doing" {
		t.Fatalf("unexpected moved task payload: %v", moved)
	}
	if _, ok := decodeAction(t, actions[0])["LaneId"]; ok {
		t.Fatalf("position-only update must not touch LaneId")
	}
}

func TestBoardActionsInsertCarriesKind(t *testing.T) {
	w := domain.BoardWrite{
		InsertLanes: []domain.Lane{{ID: "l1", Name: "Review", Position: 2}},
		InsertTasks: []domain.Task{{ID: "t1", LaneID: "l1", Title: "Plan", Status: "Review", Position: 1}},
	}
	actions, err := boardActions("p1", w)
	if err != nil {
		t.Fatalf("board actions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}
	lane := decodeAction(t, actions[0])
	if lane["Kind"] != kindLane || lane["RowKey"] != "l1" {
		t.Fatalf("unexpected lane payload: %v", lane)
	}
	task := decodeAction(t, actions[1])
	if task["Kind"] != kindTask || task["LaneId"] != "l1" {
		t.Fatalf("unexpected task payload: %v", task)
	}
}

func TestBoardActionsDeletesLanesAndTasks(t *testing.T) {
	w := domain.BoardWrite{
		DeleteLanes: []string{"l2"},
		DeleteTasks: []string{"t3", "t4"},
	}
	actions, err := boardActions("p1", w)
	if err != nil {
		t.Fatalf("board actions: %v", err)
	}
	if len(actions) != 3 {
		t.Fatalf("expected 3 actions, got %d", len(actions))
	}
	want := []string{"l2", "t3", "t4"}
	for i, a := range actions {
		if a.ActionType != aztables.TransactionTypeDelete {
			t.Fatalf("expected delete action, got %v", a.ActionType)
		}
		if m := decodeAction(t, a); m["RowKey"] != want[i] {
			t.Fatalf("unexpected delete target: %v", m["RowKey"])
		}
	}
}

func TestFullUpdatePayloadsKeepClearedFields(t *testing.T) {
	// Merge-updated payloads must carry cleared fields explicitly; an
	// omitted property keeps whatever the table already stores.
	decode := func(v any) map[string]any {
		t.Helper()
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		return m
	}

	dep := decode(departmentUpdate{
		Entity: aztables.Entity{PartitionKey: pkDepartment, RowKey: "d1"},
		Name:   "Surgery",
	})
	if v, ok := dep["Supervisor"]; !ok || v != "" {
		t.Fatalf("cleared supervisor must be written as empty, got %v", dep)
	}

	sh := decode(shiftUpdate{
		Entity:    aztables.Entity{PartitionKey: pkShift, RowKey: "s1"},
		Name:      "On Call",
		ShortName: "OC",
		IsFullDay: true,
	})
	if v, ok := sh["StartTime"]; !ok || v != "" {
		t.Fatalf("full-day switch must clear StartTime, got %v", sh)
	}
	if v, ok := sh["EndTime"]; !ok || v != "" {
		t.Fatalf("full-day switch must clear EndTime, got %v", sh)
	}

	rt := decode(resourceTypeUpdate{
		Entity: aztables.Entity{PartitionKey: pkResourceType, RowKey: "rt1"},
		Type:   "Nurse",
	})
	if v, ok := rt["Color"]; !ok || v != "" {
		t.Fatalf("cleared color must be written as empty, got %v", rt)
	}

	rs := decode(resourceStatusUpdate{
		Entity: aztables.Entity{PartitionKey: pkResourceStatus, RowKey: "rs1"},
		Name:   "Active",
	})
	if v, ok := rs["Description"]; !ok || v != "" {
		t.Fatalf("cleared description must be written as empty, got %v", rs)
	}
	for _, m := range []map[string]any{dep, sh, rt, rs} {
		if _, ok := m["CreatedAt"]; ok {
			t.Fatalf("updates must not touch CreatedAt, got %v", m)
		}
	}
}

func TestPartitionFilterEscapesQuotes(t *testing.T) {
	if got := odataQuote("o'brien"); got != "o''brien" {
		t.Fatalf("expected doubled quote, got %q", got)
	}
	if got := partitionFilter("it's"); got != "PartitionKey eq 'it''s'" {
		t.Fatalf("unexpected filter: %q", got)
	}
	if got := partitionFilter("plain"); got != "PartitionKey eq 'plain'" {
		t.Fatalf("unexpected filter: %q", got)
	}
}

func TestMapError(t *testing.T) {
	if err := mapError(&azcore.ResponseError{StatusCode: 404}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("404 should map to not found, got %v", err)
	}
	if err := mapError(&azcore.ResponseError{StatusCode: 412}); !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("412 should map to conflict, got %v", err)
	}
	sentinel := errors.New("boom")
	if err := mapError(sentinel); err != sentinel {
		t.Fatalf("unrelated errors must pass through, got %v", err)
	}
}

func ptrInt(v int) *int       { return &v }
func ptrStr(v string) *string { return &v }
