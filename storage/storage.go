package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"crewboard-api/domain"
)

// The table service caps entity-group transactions at 100 actions. Board
// writes stay well under it; bulk inserts (calendar materialization,
// cascade deletes) are chunked.
const transactionLimit = 100

// Config names the tables and queue the service uses.
type Config struct {
	ConnectionString string
	ProjectsTable    string
	BoardTable       string
	DepartmentsTable string
	TypesTable       string
	StatusesTable    string
	ResourcesTable   string
	ShiftsTable      string
	CalendarsTable   string
	AssignmentsTable string
	PreferencesTable string
	EventQueue       string
}

// Storage provides access to the underlying persistence mechanisms.
type Storage struct {
	projects    *aztables.Client
	board       *aztables.Client
	departments *aztables.Client
	types       *aztables.Client
	statuses    *aztables.Client
	resources   *aztables.Client
	shifts      *aztables.Client
	calendars   *aztables.Client
	assignments *aztables.Client
	preferences *aztables.Client
	eventQueue  *azqueue.QueueClient
}

// New creates a Storage instance from the given configuration.
func New(cfg Config) (*Storage, error) {
	tableOpts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(cfg.ConnectionString, &tableOpts)
	if err != nil {
		return nil, err
	}
	queueOpts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	eq, err := azqueue.NewQueueClientFromConnectionString(cfg.ConnectionString, cfg.EventQueue, &queueOpts)
	if err != nil {
		return nil, err
	}
	return &Storage{
		projects:    svc.NewClient(cfg.ProjectsTable),
		board:       svc.NewClient(cfg.BoardTable),
		departments: svc.NewClient(cfg.DepartmentsTable),
		types:       svc.NewClient(cfg.TypesTable),
		statuses:    svc.NewClient(cfg.StatusesTable),
		resources:   svc.NewClient(cfg.ResourcesTable),
		shifts:      svc.NewClient(cfg.ShiftsTable),
		calendars:   svc.NewClient(cfg.CalendarsTable),
		assignments: svc.NewClient(cfg.AssignmentsTable),
		preferences: svc.NewClient(cfg.PreferencesTable),
		eventQueue:  eq,
	}, nil
}

func mapError(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case 404:
			return domain.ErrNotFound
		case 412:
			return domain.ErrConcurrencyConflict
		}
	}
	return err
}

// odataQuote escapes a value for use inside an OData string literal;
// single quotes are doubled per the OData grammar.
func odataQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func partitionFilter(pk string) string {
	return "PartitionKey eq '" + odataQuote(pk) + "'"
}

func listRaw(ctx context.Context, client *aztables.Client, filter string) ([][]byte, error) {
	opts := &aztables.ListEntitiesOptions{}
	if filter != "" {
		opts.Filter = &filter
	}
	pager := client.NewListEntitiesPager(opts)
	var out [][]byte
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, resp.Entities...)
	}
	return out, nil
}

func addEntity(ctx context.Context, client *aztables.Client, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := client.AddEntity(ctx, payload, nil); err != nil {
		return mapError(err)
	}
	return nil
}

func mergeEntity(ctx context.Context, client *aztables.Client, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = client.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	if err != nil {
		return mapError(err)
	}
	return nil
}

func deleteEntity(ctx context.Context, client *aztables.Client, pk, rk string) error {
	if _, err := client.DeleteEntity(ctx, pk, rk, nil); err != nil {
		return mapError(err)
	}
	return nil
}

// --- projects ---

func (s *Storage) ListProjects(ctx context.Context) ([]domain.Project, error) {
	raw, err := listRaw(ctx, s.projects, partitionFilter(pkProject))
	if err != nil {
		return nil, err
	}
	projects := make([]domain.Project, 0, len(raw))
	for _, data := range raw {
		var ent projectEntity
		if err := json.Unmarshal(data, &ent); err != nil {
			return nil, err
		}
		projects = append(projects, domain.Project{
			ID:          ent.RowKey,
			Name:        ent.Name,
			Description: ent.Description,
			OwnerID:     ent.OwnerID,
			CreatedAt:   ent.CreatedAt,
			UpdatedAt:   ent.UpdatedAt,
		})
	}
	return projects, nil
}

func (s *Storage) InsertProject(ctx context.Context, p domain.Project) error {
	return addEntity(ctx, s.projects, projectEntity{
		Entity:      aztables.Entity{PartitionKey: pkProject, RowKey: p.ID},
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	})
}

func (s *Storage) UpdateProject(ctx context.Context, id string, upd domain.ProjectUpdate, updatedAt string) error {
	return mergeEntity(ctx, s.projects, projectUpdate{
		Entity:      aztables.Entity{PartitionKey: pkProject, RowKey: id},
		Name:        upd.Name,
		Description: upd.Description,
		OwnerID:     upd.OwnerID,
		UpdatedAt:   &updatedAt,
	})
}

// DeleteProject removes the project and its board partition. The board
// rows go first so a mid-cascade failure leaves the project row behind as
// a retry handle instead of orphaning lanes and tasks.
func (s *Storage) DeleteProject(ctx context.Context, id string) error {
	raw, err := listRaw(ctx, s.board, partitionFilter(id))
	if err != nil {
		return err
	}
	var actions []aztables.TransactionAction
	for _, data := range raw {
		var ent aztables.Entity
		if err := json.Unmarshal(data, &ent); err != nil {
			return err
		}
		payload, err := json.Marshal(aztables.Entity{PartitionKey: ent.PartitionKey, RowKey: ent.RowKey})
		if err != nil {
			return err
		}
		actions = append(actions, aztables.TransactionAction{ActionType: aztables.TransactionTypeDelete, Entity: payload})
	}
	if err := s.submitChunked(ctx, s.board, actions); err != nil {
		return err
	}
	return deleteEntity(ctx, s.projects, pkProject, id)
}

// --- board (lanes and tasks, one partition per project) ---

func (s *Storage) ListLanes(ctx context.Context, projectID string) ([]domain.Lane, error) {
	raw, err := listRaw(ctx, s.board, partitionFilter(projectID)+" and Kind eq '"+kindLane+"'")
	if err != nil {
		return nil, err
	}
	lanes := make([]domain.Lane, 0, len(raw))
	for _, data := range raw {
		var ent laneEntity
		if err := json.Unmarshal(data, &ent); err != nil {
			return nil, err
		}
		lanes = append(lanes, domain.Lane{
			ID:        ent.RowKey,
			ProjectID: ent.PartitionKey,
			Name:      ent.Name,
			Position:  ent.Position,
			Deletable: ent.Deletable,
			CreatedAt: ent.CreatedAt,
		})
	}
	return lanes, nil
}

func (s *Storage) ListTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	raw, err := listRaw(ctx, s.board, partitionFilter(projectID)+" and Kind eq '"+kindTask+"'")
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(raw))
	for _, data := range raw {
		var ent taskEntity
		if err := json.Unmarshal(data, &ent); err != nil {
			return nil, err
		}
		tasks = append(tasks, domain.Task{
			ID:          ent.RowKey,
			ProjectID:   ent.PartitionKey,
			LaneID:      ent.LaneID,
			Title:       ent.Title,
			Description: ent.Description,
			Status:      ent.Status,
			ResourceID:  ent.ResourceID,
			Position:    ent.Position,
			CreatedAt:   ent.CreatedAt,
			UpdatedAt:   ent.UpdatedAt,
		})
	}
	return tasks, nil
}

// ApplyBoard persists one logical board mutation as an entity-group
// transaction on the project's partition.
func (s *Storage) ApplyBoard(ctx context.Context, projectID string, w domain.BoardWrite) error {
	actions, err := boardActions(projectID, w)
	if err != nil {
		return err
	}
	return s.submitChunked(ctx, s.board, actions)
}

func boardActions(projectID string, w domain.BoardWrite) ([]aztables.TransactionAction, error) {
	var actions []aztables.TransactionAction

	add := func(actionType aztables.TransactionType, v any) error {
		payload, err := json.Marshal(v)
		if err != nil {
			return err
		}
		actions = append(actions, aztables.TransactionAction{ActionType: actionType, Entity: payload})
		return nil
	}

	for _, l := range w.InsertLanes {
		ent := laneEntity{
			Entity:    aztables.Entity{PartitionKey: projectID, RowKey: l.ID},
			Kind:      kindLane,
			Name:      l.Name,
			Position:  l.Position,
			Deletable: l.Deletable,
			CreatedAt: l.CreatedAt,
		}
		if err := add(aztables.TransactionTypeAdd, ent); err != nil {
			return nil, err
		}
	}
	for _, u := range w.UpdateLanes {
		ent := laneUpdate{
			Entity:   aztables.Entity{PartitionKey: projectID, RowKey: u.ID},
			Name:     u.Name,
			Position: u.Position,
		}
		if err := add(aztables.TransactionTypeUpdateMerge, ent); err != nil {
			return nil, err
		}
	}
	for _, t := range w.InsertTasks {
		ent := taskEntity{
			Entity:      aztables.Entity{PartitionKey: projectID, RowKey: t.ID},
			Kind:        kindTask,
			LaneID:      t.LaneID,
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			ResourceID:  t.ResourceID,
			Position:    t.Position,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		}
		if err := add(aztables.TransactionTypeAdd, ent); err != nil {
			return nil, err
		}
	}
	for _, u := range w.UpdateTasks {
		ent := taskUpdate{
			Entity:      aztables.Entity{PartitionKey: projectID, RowKey: u.ID},
			LaneID:      u.LaneID,
			Title:       u.Title,
			Description: u.Description,
			Status:      u.Status,
			ResourceID:  u.ResourceID,
			Position:    u.Position,
			UpdatedAt:   u.UpdatedAt,
		}
		if err := add(aztables.TransactionTypeUpdateMerge, ent); err != nil {
			return nil, err
		}
	}
	for _, id := range append(append([]string{}, w.DeleteLanes...), w.DeleteTasks...) {
		ent := aztables.Entity{PartitionKey: projectID, RowKey: id}
		if err := add(aztables.TransactionTypeDelete, ent); err != nil {
			return nil, err
		}
	}
	return actions, nil
}

func (s *Storage) submitChunked(ctx context.Context, client *aztables.Client, actions []aztables.TransactionAction) error {
	for len(actions) > 0 {
		n := len(actions)
		if n > transactionLimit {
			n = transactionLimit
		}
		if _, err := client.SubmitTransaction(ctx, actions[:n], nil); err != nil {
			return mapError(err)
		}
		actions = actions[n:]
	}
	return nil
}

// --- departments ---

func (s *Storage) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	raw, err := listRaw(ctx, s.departments, "")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Department, 0, len(raw))
	for _, data := range raw {
		var ent departmentEntity
		if err := json.Unmarshal(data, &ent); err != nil {
			return nil, err
		}
		out = append(out, domain.Department{ID: ent.RowKey, Name: ent.Name, Supervisor: ent.Supervisor, CreatedAt: ent.CreatedAt})
	}
	return out, nil
}

func (s *Storage) InsertDepartment(ctx context.Context, d domain.Department) error {
	return addEntity(ctx, s.departments, departmentEntity{
		Entity:     aztables.Entity{PartitionKey: pkDepartment, RowKey: d.ID},
		Name:       d.Name,
		Supervisor: d.Supervisor,
		CreatedAt:  d.CreatedAt,
	})
}

func (s *Storage) UpdateDepartment(ctx context.Context, d domain.Department) error {
	return mergeEntity(ctx, s.departments, departmentUpdate{
		Entity:     aztables.Entity{PartitionKey: pkDepartment, RowKey: d.ID},
		Name:       d.Name,
		Supervisor: d.Supervisor,
	})
}

func (s *Storage) DeleteDepartment(ctx context.Context, id string) error {
	return deleteEntity(ctx, s.departments, pkDepartment, id)
}

// --- resource types ---

func (s *Storage) ListResourceTypes(ctx context.Context) ([]domain.ResourceType, error) {
	raw, err := listRaw(ctx, s.types, "")
	if err != nil {
		return nil, err
	}
	out := make([]domain.ResourceType, 0, len(raw))
	for _, data := range raw {
		var ent resourceTypeEntity
		if err := json.Unmarshal(data, &ent); err != nil {
			return nil, err
		}
		out = append(out, domain.ResourceType{ID: ent.RowKey, Type: ent.Type, Color: ent.Color, IsStaff: ent.IsStaff, CreatedAt: ent.CreatedAt})
	}
	return out, nil
}

func (s *Storage) InsertResourceType(ctx context.Context, rt domain.ResourceType) error {
	return addEntity(ctx, s.types, resourceTypeEntity{
		Entity:    aztables.Entity{PartitionKey: pkResourceType, RowKey: rt.ID},
		Type:      rt.Type,
		Color:     rt.Color,
		IsStaff:   rt.IsStaff,
		CreatedAt: rt.CreatedAt,
	})
}

func (s *Storage) UpdateResourceType(ctx context.Context, rt domain.ResourceType) error {
	return mergeEntity(ctx, s.types, resourceTypeUpdate{
		Entity:  aztables.Entity{PartitionKey: pkResourceType, RowKey: rt.ID},
		Type:    rt.Type,
		Color:   rt.Color,
		IsStaff: rt.IsStaff,
	})
}

func (s *Storage) DeleteResourceType(ctx context.Context, id string) error {
	return deleteEntity(ctx, s.types, pkResourceType, id)
}

// --- resource statuses ---

func (s *Storage) ListResourceStatuses(ctx context.Context) ([]domain.ResourceStatus, error) {
	raw, err := listRaw(ctx, s.statuses, "")
	if err != nil {
		return nil, err
	}
	out := make([]domain.ResourceStatus, 0, len(raw))
	for _, data := range raw {
		var ent resourceStatusEntity
		if err := json.Unmarshal(data, &ent); err != nil {
			return nil, err
		}
		out = append(out, domain.ResourceStatus{ID: ent.RowKey, Name: ent.Name, Description: ent.Description, Color: ent.Color, IsActive: ent.IsActive, CreatedAt: ent.CreatedAt})
	}
	return out, nil
}

func (s *Storage) InsertResourceStatus(ctx context.Context, rs domain.ResourceStatus) error {
	return addEntity(ctx, s.statuses, resourceStatusEntity{
		Entity:      aztables.Entity{PartitionKey: pkResourceStatus, RowKey: rs.ID},
		Name:        rs.Name,
		Description: rs.Description,
		Color:       rs.Color,
		IsActive:    rs.IsActive,
		CreatedAt:   rs.CreatedAt,
	})
}

func (s *Storage) UpdateResourceStatus(ctx context.Context, rs domain.ResourceStatus) error {
	return mergeEntity(ctx, s.statuses, resourceStatusUpdate{
		Entity:      aztables.Entity{PartitionKey: pkResourceStatus, RowKey: rs.ID},
		Name:        rs.Name,
		Description: rs.Description,
		Color:       rs.Color,
		IsActive:    rs.IsActive,
	})
}

func (s *Storage) DeleteResourceStatus(ctx context.Context, id string) error {
	return deleteEntity(ctx, s.statuses, pkResourceStatus, id)
}

// --- resources ---

func (s *Storage) ListResources(ctx context.Context) ([]domain.Resource, error) {
	raw, err := listRaw(ctx, s.resources, "")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Resource, 0, len(raw))
	for _, data := range raw {
		var ent resourceEntity
		if err := json.Unmarshal(data, &ent); err != nil {
			return nil, err
		}
		out = append(out, domain.Resource{
			ID:           ent.RowKey,
			Name:         ent.Name,
			TypeID:       ent.TypeID,
			StatusID:     ent.StatusID,
			DepartmentID: ent.DepartmentID,
			CreatedAt:    ent.CreatedAt,
		})
	}
	return out, nil
}

// ListStaff returns resources whose type carries the staff flag.
func (s *Storage) ListStaff(ctx context.Context) ([]domain.Resource, error) {
	types, err := s.ListResourceTypes(ctx)
	if err != nil {
		return nil, err
	}
	staffTypes := make(map[string]struct{})
	for _, t := range types {
		if t.IsStaff {
			staffTypes[t.ID] = struct{}{}
		}
	}
	resources, err := s.ListResources(ctx)
	if err != nil {
		return nil, err
	}
	var staff []domain.Resource
	for _, r := range resources {
		if _, ok := staffTypes[r.TypeID]; ok {
			staff = append(staff, r)
		}
	}
	return staff, nil
}

func (s *Storage) InsertResource(ctx context.Context, r domain.Resource) error {
	return addEntity(ctx, s.resources, resourceEntity{
		Entity:       aztables.Entity{PartitionKey: pkResource, RowKey: r.ID},
		Name:         r.Name,
		TypeID:       r.TypeID,
		StatusID:     r.StatusID,
		DepartmentID: r.DepartmentID,
		CreatedAt:    r.CreatedAt,
	})
}

func (s *Storage) UpdateResource(ctx context.Context, id string, upd domain.ResourceUpdate) error {
	return mergeEntity(ctx, s.resources, resourceUpdate{
		Entity:       aztables.Entity{PartitionKey: pkResource, RowKey: id},
		Name:         upd.Name,
		TypeID:       upd.TypeID,
		StatusID:     upd.StatusID,
		DepartmentID: upd.DepartmentID,
	})
}

func (s *Storage) DeleteResource(ctx context.Context, id string) error {
	return deleteEntity(ctx, s.resources, pkResource, id)
}

// --- shifts ---

func (s *Storage) ListShifts(ctx context.Context) ([]domain.Shift, error) {
	raw, err := listRaw(ctx, s.shifts, "")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Shift, 0, len(raw))
	for _, data := range raw {
		var ent shiftEntity
		if err := json.Unmarshal(data, &ent); err != nil {
			return nil, err
		}
		out = append(out, domain.Shift{
			ID:        ent.RowKey,
			Name:      ent.Name,
			ShortName: ent.ShortName,
			StartTime: ent.StartTime,
			EndTime:   ent.EndTime,
			IsFullDay: ent.IsFullDay,
			Color:     ent.Color,
			CreatedAt: ent.CreatedAt,
		})
	}
	return out, nil
}

func (s *Storage) InsertShift(ctx context.Context, sh domain.Shift) error {
	return addEntity(ctx, s.shifts, shiftEntity{
		Entity:    aztables.Entity{PartitionKey: pkShift, RowKey: sh.ID},
		Name:      sh.Name,
		ShortName: sh.ShortName,
		StartTime: sh.StartTime,
		EndTime:   sh.EndTime,
		IsFullDay: sh.IsFullDay,
		Color:     sh.Color,
		CreatedAt: sh.CreatedAt,
	})
}

func (s *Storage) UpdateShift(ctx context.Context, sh domain.Shift) error {
	return mergeEntity(ctx, s.shifts, shiftUpdate{
		Entity:    aztables.Entity{PartitionKey: pkShift, RowKey: sh.ID},
		Name:      sh.Name,
		ShortName: sh.ShortName,
		StartTime: sh.StartTime,
		EndTime:   sh.EndTime,
		IsFullDay: sh.IsFullDay,
		Color:     sh.Color,
	})
}

func (s *Storage) DeleteShift(ctx context.Context, id string) error {
	return deleteEntity(ctx, s.shifts, pkShift, id)
}

// --- shift calendars and assignments ---

func (s *Storage) ListCalendars(ctx context.Context) ([]domain.ShiftCalendar, error) {
	raw, err := listRaw(ctx, s.calendars, "")
	if err != nil {
		return nil, err
	}
	out := make([]domain.ShiftCalendar, 0, len(raw))
	for _, data := range raw {
		var ent calendarEntity
		if err := json.Unmarshal(data, &ent); err != nil {
			return nil, err
		}
		out = append(out, domain.ShiftCalendar{ID: ent.RowKey, Year: ent.Year, Month: ent.Month, CreatedAt: ent.CreatedAt})
	}
	return out, nil
}

func (s *Storage) InsertCalendar(ctx context.Context, cal domain.ShiftCalendar) error {
	return addEntity(ctx, s.calendars, calendarEntity{
		Entity:    aztables.Entity{PartitionKey: pkCalendar, RowKey: cal.ID},
		Year:      cal.Year,
		Month:     cal.Month,
		CreatedAt: cal.CreatedAt,
	})
}

func (s *Storage) ListAssignments(ctx context.Context, calendarID string) ([]domain.ShiftAssignment, error) {
	raw, err := listRaw(ctx, s.assignments, partitionFilter(calendarID))
	if err != nil {
		return nil, err
	}
	out := make([]domain.ShiftAssignment, 0, len(raw))
	for _, data := range raw {
		var ent assignmentEntity
		if err := json.Unmarshal(data, &ent); err != nil {
			return nil, err
		}
		out = append(out, domain.ShiftAssignment{
			ID:         ent.RowKey,
			CalendarID: ent.PartitionKey,
			ResourceID: ent.ResourceID,
			Day:        ent.Day,
			ShiftID:    ent.ShiftID,
		})
	}
	return out, nil
}

// InsertAssignments batch-inserts grid rows, chunked per the transaction
// limit. Rows of one calendar share its partition.
func (s *Storage) InsertAssignments(ctx context.Context, calendarID string, rows []domain.ShiftAssignment) error {
	var actions []aztables.TransactionAction
	for _, r := range rows {
		payload, err := json.Marshal(assignmentEntity{
			Entity:     aztables.Entity{PartitionKey: calendarID, RowKey: r.ID},
			ResourceID: r.ResourceID,
			Day:        r.Day,
			ShiftID:    r.ShiftID,
		})
		if err != nil {
			return err
		}
		actions = append(actions, aztables.TransactionAction{ActionType: aztables.TransactionTypeAdd, Entity: payload})
	}
	return s.submitChunked(ctx, s.assignments, actions)
}

func (s *Storage) SetAssignmentShift(ctx context.Context, calendarID, assignmentID, shiftID string) error {
	return mergeEntity(ctx, s.assignments, assignmentUpdate{
		Entity:  aztables.Entity{PartitionKey: calendarID, RowKey: assignmentID},
		ShiftID: shiftID,
	})
}

// --- user preferences ---

func (s *Storage) FetchPreferences(ctx context.Context, userID string) (domain.Preferences, error) {
	resp, err := s.preferences.GetEntity(ctx, userID, userID, nil)
	if err != nil {
		if errors.Is(mapError(err), domain.ErrNotFound) {
			return domain.Preferences{UserID: userID}, nil
		}
		return domain.Preferences{}, mapError(err)
	}
	var ent preferencesEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Preferences{}, err
	}
	prefs := domain.Preferences{
		UserID:        userID,
		LastProjectID: ent.LastProjectID,
		UpdatedAt:     ent.UpdatedAt,
	}
	if ent.Settings != "" {
		if err := json.Unmarshal([]byte(ent.Settings), &prefs.Settings); err != nil {
			return domain.Preferences{}, err
		}
	}
	return prefs, nil
}

func (s *Storage) UpsertPreferences(ctx context.Context, prefs domain.Preferences) error {
	var settings string
	if len(prefs.Settings) > 0 {
		data, err := json.Marshal(prefs.Settings)
		if err != nil {
			return err
		}
		settings = string(data)
	}
	payload, err := json.Marshal(preferencesEntity{
		Entity:        aztables.Entity{PartitionKey: prefs.UserID, RowKey: prefs.UserID},
		LastProjectID: prefs.LastProjectID,
		Settings:      settings,
		UpdatedAt:     prefs.UpdatedAt,
	})
	if err != nil {
		return err
	}
	if _, err := s.preferences.UpsertEntity(ctx, payload, nil); err != nil {
		return mapError(err)
	}
	return nil
}

// --- board events ---

// EnqueueEvents publishes committed board events to the events queue.
func (s *Storage) EnqueueEvents(ctx context.Context, events []domain.Event) error {
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := s.eventQueue.EnqueueMessage(ctx, string(data), nil); err != nil {
			return mapError(err)
		}
	}
	return nil
}
