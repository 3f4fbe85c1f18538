package domain

// Department groups resources under a supervisor.
type Department struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Supervisor string `json:"supervisor,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// ResourceType classifies resources. Staff types participate in shift
// planning.
type ResourceType struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Color     string `json:"color,omitempty"`
	IsStaff   bool   `json:"isStaff"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// ResourceStatus labels a resource's availability.
type ResourceStatus struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	IsActive    bool   `json:"isActive"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// Resource is a person or asset that can own projects, be assigned to
// tasks and, when its type is staff, appear on shift calendars.
type Resource struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TypeID       string `json:"resourceTypeId"`
	StatusID     string `json:"resourceStatusId"`
	DepartmentID string `json:"departmentId,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// ResourceUpdate carries partial changes to a resource.
type ResourceUpdate struct {
	Name         *string `json:"name,omitempty"`
	TypeID       *string `json:"resourceTypeId,omitempty"`
	StatusID     *string `json:"resourceStatusId,omitempty"`
	DepartmentID *string `json:"departmentId,omitempty"`
}
