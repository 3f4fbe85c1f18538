package domain

// Lane is a named column of a project board. Positions are 1-based and
// contiguous within a project.
type Lane struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	Deletable bool   `json:"isDeletable"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// DefaultLaneNames are created for every new project. The first one becomes
// the non-deletable landing lane that receives tasks from deleted lanes.
var DefaultLaneNames = []string{"To Do", "In Progress", "Done"}
