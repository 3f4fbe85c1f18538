package api

import (
	"context"

	"crewboard-api/domain"
)

// Storage abstracts persistence for handlers. Both storage.Storage and its
// caching wrapper satisfy it.
type Storage interface {
	domain.BoardStorage
	domain.GridStorage

	ListProjects(ctx context.Context) ([]domain.Project, error)
	InsertProject(ctx context.Context, p domain.Project) error
	UpdateProject(ctx context.Context, id string, upd domain.ProjectUpdate, updatedAt string) error
	DeleteProject(ctx context.Context, id string) error

	ListDepartments(ctx context.Context) ([]domain.Department, error)
	InsertDepartment(ctx context.Context, d domain.Department) error
	UpdateDepartment(ctx context.Context, d domain.Department) error
	DeleteDepartment(ctx context.Context, id string) error

	ListResourceTypes(ctx context.Context) ([]domain.ResourceType, error)
	InsertResourceType(ctx context.Context, rt domain.ResourceType) error
	UpdateResourceType(ctx context.Context, rt domain.ResourceType) error
	DeleteResourceType(ctx context.Context, id string) error

	ListResourceStatuses(ctx context.Context) ([]domain.ResourceStatus, error)
	InsertResourceStatus(ctx context.Context, rs domain.ResourceStatus) error
	UpdateResourceStatus(ctx context.Context, rs domain.ResourceStatus) error
	DeleteResourceStatus(ctx context.Context, id string) error

	ListResources(ctx context.Context) ([]domain.Resource, error)
	InsertResource(ctx context.Context, r domain.Resource) error
	UpdateResource(ctx context.Context, id string, upd domain.ResourceUpdate) error
	DeleteResource(ctx context.Context, id string) error

	ListShifts(ctx context.Context) ([]domain.Shift, error)
	InsertShift(ctx context.Context, sh domain.Shift) error
	UpdateShift(ctx context.Context, sh domain.Shift) error
	DeleteShift(ctx context.Context, id string) error

	FetchPreferences(ctx context.Context, userID string) (domain.Preferences, error)
	UpsertPreferences(ctx context.Context, prefs domain.Preferences) error

	EnqueueEvents(ctx context.Context, events []domain.Event) error
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents reprocessing of repeated board mutations.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when downstream processing fails.
	Remove(ctx context.Context, userID, key string) error
}
