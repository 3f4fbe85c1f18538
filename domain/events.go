package domain

import "encoding/json"

// Board event types published to the board events queue after a mutation
// has been committed. Consumers (activity feeds, projections) are external.
const (
	LaneAdded     = "lane-added"
	LaneRenamed   = "lane-renamed"
	LaneDeleted   = "lane-deleted"
	LaneReordered = "lane-reordered"
	TaskAdded     = "task-added"
	TaskUpdated   = "task-updated"
	TaskDeleted   = "task-deleted"
	TaskMoved     = "task-moved"
)

// Event records one committed board change.
type Event struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"projectId"`
	EntityID  string          `json:"entityId"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Time      int64           `json:"time"`
	ActorID   string          `json:"actorId"`
}
