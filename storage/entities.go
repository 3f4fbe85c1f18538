package storage

import "github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

// Lanes and tasks share the board table, partitioned by project, so one
// logical reorder maps to one entity-group transaction. Kind discriminates
// the two row shapes.
const (
	kindLane = "lane"
	kindTask = "task"
)

// Fixed partition keys for small org-wide collections.
const (
	pkProject        = "project"
	pkDepartment     = "department"
	pkResource       = "resource"
	pkResourceType   = "resource-type"
	pkResourceStatus = "resource-status"
	pkShift          = "shift"
	pkCalendar       = "calendar"
)

type projectEntity struct {
	aztables.Entity
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
	OwnerID     string `json:"OwnerId,omitempty"`
	CreatedAt   string `json:"CreatedAt,omitempty"`
	UpdatedAt   string `json:"UpdatedAt,omitempty"`
}

type projectUpdate struct {
	aztables.Entity
	Name        *string `json:"Name,omitempty"`
	Description *string `json:"Description,omitempty"`
	OwnerID     *string `json:"OwnerId,omitempty"`
	UpdatedAt   *string `json:"UpdatedAt,omitempty"`
}

type laneEntity struct {
	aztables.Entity
	Kind      string `json:"Kind"`
	Name      string `json:"Name"`
	Position  int    `json:"Position"`
	Deletable bool   `json:"Deletable"`
	CreatedAt string `json:"CreatedAt,omitempty"`
}

type laneUpdate struct {
	aztables.Entity
	Name     *string `json:"Name,omitempty"`
	Position *int    `json:"Position,omitempty"`
}

type taskEntity struct {
	aztables.Entity
	Kind        string `json:"Kind"`
	LaneID      string `json:"LaneId"`
	Title       string `json:"Title"`
	Description string `json:"Description,omitempty"`
	Status      string `json:"Status"`
	ResourceID  string `json:"ResourceId,omitempty"`
	Position    int    `json:"Position"`
	CreatedAt   string `json:"CreatedAt,omitempty"`
	UpdatedAt   string `json:"UpdatedAt,omitempty"`
}

type taskUpdate struct {
	aztables.Entity
	LaneID      *string `json:"LaneId,omitempty"`
	Title       *string `json:"Title,omitempty"`
	Description *string `json:"Description,omitempty"`
	Status      *string `json:"Status,omitempty"`
	ResourceID  *string `json:"ResourceId,omitempty"`
	Position    *int    `json:"Position,omitempty"`
	UpdatedAt   *string `json:"UpdatedAt,omitempty"`
}

type departmentEntity struct {
	aztables.Entity
	Name       string `json:"Name"`
	Supervisor string `json:"Supervisor,omitempty"`
	CreatedAt  string `json:"CreatedAt,omitempty"`
}

// Update payloads for PUT-style full replacements carry every mutable
// property without omitempty: a merge with an omitted property keeps the
// stale stored value, so clearing a field (supervisor, shift times)
// would be impossible. CreatedAt stays off these structs so the merge
// preserves it.

type departmentUpdate struct {
	aztables.Entity
	Name       string `json:"Name"`
	Supervisor string `json:"Supervisor"`
}

type resourceTypeUpdate struct {
	aztables.Entity
	Type    string `json:"Type"`
	Color   string `json:"Color"`
	IsStaff bool   `json:"IsStaff"`
}

type resourceStatusUpdate struct {
	aztables.Entity
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Color       string `json:"Color"`
	IsActive    bool   `json:"IsActive"`
}

type shiftUpdate struct {
	aztables.Entity
	Name      string `json:"Name"`
	ShortName string `json:"ShortName"`
	StartTime string `json:"StartTime"`
	EndTime   string `json:"EndTime"`
	IsFullDay bool   `json:"IsFullDay"`
	Color     string `json:"Color"`
}

type resourceTypeEntity struct {
	aztables.Entity
	Type      string `json:"Type"`
	Color     string `json:"Color,omitempty"`
	IsStaff   bool   `json:"IsStaff"`
	CreatedAt string `json:"CreatedAt,omitempty"`
}

type resourceStatusEntity struct {
	aztables.Entity
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
	Color       string `json:"Color,omitempty"`
	IsActive    bool   `json:"IsActive"`
	CreatedAt   string `json:"CreatedAt,omitempty"`
}

type resourceEntity struct {
	aztables.Entity
	Name         string `json:"Name"`
	TypeID       string `json:"TypeId"`
	StatusID     string `json:"StatusId"`
	DepartmentID string `json:"DepartmentId,omitempty"`
	CreatedAt    string `json:"CreatedAt,omitempty"`
}

type resourceUpdate struct {
	aztables.Entity
	Name         *string `json:"Name,omitempty"`
	TypeID       *string `json:"TypeId,omitempty"`
	StatusID     *string `json:"StatusId,omitempty"`
	DepartmentID *string `json:"DepartmentId,omitempty"`
}

type shiftEntity struct {
	aztables.Entity
	Name      string `json:"Name"`
	ShortName string `json:"ShortName"`
	StartTime string `json:"StartTime,omitempty"`
	EndTime   string `json:"EndTime,omitempty"`
	IsFullDay bool   `json:"IsFullDay"`
	Color     string `json:"Color,omitempty"`
	CreatedAt string `json:"CreatedAt,omitempty"`
}

type calendarEntity struct {
	aztables.Entity
	Year      int    `json:"Year"`
	Month     int    `json:"Month"`
	CreatedAt string `json:"CreatedAt,omitempty"`
}

type assignmentEntity struct {
	aztables.Entity
	ResourceID string `json:"ResourceId"`
	Day        int    `json:"Day"`
	ShiftID    string `json:"ShiftId,omitempty"`
}

type assignmentUpdate struct {
	aztables.Entity
	ShiftID string `json:"ShiftId"`
}

type preferencesEntity struct {
	aztables.Entity
	LastProjectID string `json:"LastProjectId,omitempty"`
	Settings      string `json:"Settings,omitempty"`
	UpdatedAt     string `json:"UpdatedAt,omitempty"`
}
