package domain

// Task is a unit of work placed in exactly one lane. Status mirrors the
// owning lane's name and is kept in sync on lane renames and moves.
// Positions are 1-based and contiguous within a lane.
type Task struct {
	ID          string `json:"id"`
	ProjectID   string `json:"projectId"`
	LaneID      string `json:"laneId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	ResourceID  string `json:"resourceId,omitempty"`
	Position    int    `json:"position"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// TaskFields carries partial changes applied through the raw update path.
// Moving a task between lanes with renumbering goes through MoveTask instead.
type TaskFields struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	LaneID      *string `json:"laneId,omitempty"`
	ResourceID  *string `json:"resourceId,omitempty"`
	Position    *int    `json:"position,omitempty"`
}

// Board is a project's full lane and task collection, both ordered by
// position.
type Board struct {
	Lanes []Lane `json:"lanes"`
	Tasks []Task `json:"tasks"`
}
