package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"crewboard-api/domain"
)

// --- departments ---

type departmentRequest struct {
	Name       string `json:"name"`
	Supervisor string `json:"supervisor"`
}

func (h *handlers) listDepartments(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	departments, err := h.store.ListDepartments(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	if departments == nil {
		departments = []domain.Department{}
	}
	return c.JSON(http.StatusOK, departments)
}

func (h *handlers) createDepartment(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var req departmentRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name: must not be empty"})
	}
	if taken, err := h.departmentNameTaken(c, name, ""); err != nil {
		return h.fail(c, err)
	} else if taken {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name: a department with this name already exists"})
	}
	d := domain.Department{
		ID:         uuid.NewString(),
		Name:       name,
		Supervisor: req.Supervisor,
		CreatedAt:  rfcNow(),
	}
	if err := h.store.InsertDepartment(c.Request().Context(), d); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *handlers) updateDepartment(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var req departmentRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name: must not be empty"})
	}
	if taken, err := h.departmentNameTaken(c, name, c.Param("id")); err != nil {
		return h.fail(c, err)
	} else if taken {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name: a department with this name already exists"})
	}
	d := domain.Department{ID: c.Param("id"), Name: name, Supervisor: req.Supervisor}
	if err := h.store.UpdateDepartment(c.Request().Context(), d); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *handlers) departmentNameTaken(c echo.Context, name, excludeID string) (bool, error) {
	departments, err := h.store.ListDepartments(c.Request().Context())
	if err != nil {
		return false, err
	}
	for _, d := range departments {
		if d.ID != excludeID && strings.EqualFold(d.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (h *handlers) deleteDepartment(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	if err := h.store.DeleteDepartment(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- resource types ---

type resourceTypeRequest struct {
	Type    string `json:"type"`
	Color   string `json:"color"`
	IsStaff bool   `json:"isStaff"`
}

func (h *handlers) listResourceTypes(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	types, err := h.store.ListResourceTypes(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	if types == nil {
		types = []domain.ResourceType{}
	}
	return c.JSON(http.StatusOK, types)
}

func (h *handlers) createResourceType(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var req resourceTypeRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	typeName := strings.TrimSpace(req.Type)
	if typeName == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "type: must not be empty"})
	}
	if taken, err := h.resourceTypeNameTaken(c, typeName, ""); err != nil {
		return h.fail(c, err)
	} else if taken {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "type: a resource type with this name already exists"})
	}
	rt := domain.ResourceType{
		ID:        uuid.NewString(),
		Type:      typeName,
		Color:     req.Color,
		IsStaff:   req.IsStaff,
		CreatedAt: rfcNow(),
	}
	if err := h.store.InsertResourceType(c.Request().Context(), rt); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, rt)
}

func (h *handlers) updateResourceType(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var req resourceTypeRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	typeName := strings.TrimSpace(req.Type)
	if typeName == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "type: must not be empty"})
	}
	if taken, err := h.resourceTypeNameTaken(c, typeName, c.Param("id")); err != nil {
		return h.fail(c, err)
	} else if taken {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "type: a resource type with this name already exists"})
	}
	rt := domain.ResourceType{ID: c.Param("id"), Type: typeName, Color: req.Color, IsStaff: req.IsStaff}
	if err := h.store.UpdateResourceType(c.Request().Context(), rt); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rt)
}

func (h *handlers) resourceTypeNameTaken(c echo.Context, typeName, excludeID string) (bool, error) {
	types, err := h.store.ListResourceTypes(c.Request().Context())
	if err != nil {
		return false, err
	}
	for _, rt := range types {
		if rt.ID != excludeID && strings.EqualFold(rt.Type, typeName) {
			return true, nil
		}
	}
	return false, nil
}

func (h *handlers) deleteResourceType(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	if err := h.store.DeleteResourceType(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- resource statuses ---

type resourceStatusRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	IsActive    bool   `json:"isActive"`
}

func (h *handlers) listResourceStatuses(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	statuses, err := h.store.ListResourceStatuses(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	if statuses == nil {
		statuses = []domain.ResourceStatus{}
	}
	return c.JSON(http.StatusOK, statuses)
}

func (h *handlers) createResourceStatus(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var req resourceStatusRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name: must not be empty"})
	}
	rs := domain.ResourceStatus{
		ID:          uuid.NewString(),
		Name:        name,
		Description: req.Description,
		Color:       req.Color,
		IsActive:    req.IsActive,
		CreatedAt:   rfcNow(),
	}
	if err := h.store.InsertResourceStatus(c.Request().Context(), rs); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, rs)
}

func (h *handlers) updateResourceStatus(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var req resourceStatusRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name: must not be empty"})
	}
	rs := domain.ResourceStatus{
		ID:          c.Param("id"),
		Name:        name,
		Description: req.Description,
		Color:       req.Color,
		IsActive:    req.IsActive,
	}
	if err := h.store.UpdateResourceStatus(c.Request().Context(), rs); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *handlers) deleteResourceStatus(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	if err := h.store.DeleteResourceStatus(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- resources ---

type resourceRequest struct {
	Name         string `json:"name"`
	TypeID       string `json:"resourceTypeId"`
	StatusID     string `json:"resourceStatusId"`
	DepartmentID string `json:"departmentId"`
}

func (h *handlers) listResources(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	resources, err := h.store.ListResources(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	if resources == nil {
		resources = []domain.Resource{}
	}
	return c.JSON(http.StatusOK, resources)
}

func (h *handlers) createResource(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var req resourceRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name: must not be empty"})
	case req.TypeID == "":
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "resourceTypeId: must not be empty"})
	case req.StatusID == "":
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "resourceStatusId: must not be empty"})
	}
	r := domain.Resource{
		ID:           uuid.NewString(),
		Name:         name,
		TypeID:       req.TypeID,
		StatusID:     req.StatusID,
		DepartmentID: req.DepartmentID,
		CreatedAt:    rfcNow(),
	}
	if err := h.store.InsertResource(c.Request().Context(), r); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *handlers) updateResource(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var upd domain.ResourceUpdate
	if err := decodeBody(c, &upd); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name: must not be empty"})
	}
	if err := h.store.UpdateResource(c.Request().Context(), c.Param("id"), upd); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) deleteResource(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	if err := h.store.DeleteResource(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- shifts ---

type shiftRequest struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	IsFullDay bool   `json:"isFullDay"`
	Color     string `json:"color"`
}

func (h *handlers) listShifts(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	shifts, err := h.store.ListShifts(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	if shifts == nil {
		shifts = []domain.Shift{}
	}
	return c.JSON(http.StatusOK, shifts)
}

func (h *handlers) createShift(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var req shiftRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	name := strings.TrimSpace(req.Name)
	shortName := strings.TrimSpace(req.ShortName)
	if name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name: must not be empty"})
	}
	if shortName == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "shortName: must not be empty"})
	}
	if !req.IsFullDay {
		if msg := validateShiftTimes(req.StartTime, req.EndTime); msg != "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
		}
	}
	sh := domain.Shift{
		ID:        uuid.NewString(),
		Name:      name,
		ShortName: shortName,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsFullDay: req.IsFullDay,
		Color:     req.Color,
		CreatedAt: rfcNow(),
	}
	if err := h.store.InsertShift(c.Request().Context(), sh); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, sh)
}

func (h *handlers) updateShift(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var req shiftRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	name := strings.TrimSpace(req.Name)
	shortName := strings.TrimSpace(req.ShortName)
	if name == "" || shortName == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name: must not be empty"})
	}
	if !req.IsFullDay {
		if msg := validateShiftTimes(req.StartTime, req.EndTime); msg != "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
		}
	}
	sh := domain.Shift{
		ID:        c.Param("id"),
		Name:      name,
		ShortName: shortName,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsFullDay: req.IsFullDay,
		Color:     req.Color,
	}
	if err := h.store.UpdateShift(c.Request().Context(), sh); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, sh)
}

// validateShiftTimes checks HH:MM start/end on a non-full-day shift and
// returns an error message, or empty when valid.
func validateShiftTimes(start, end string) string {
	if start == "" || end == "" {
		return "startTime: required unless the shift is full-day"
	}
	s, err := time.Parse("15:04", start)
	if err != nil {
		return "startTime: must be HH:MM"
	}
	e, err := time.Parse("15:04", end)
	if err != nil {
		return "endTime: must be HH:MM"
	}
	if !s.Before(e) {
		return "endTime: must be after startTime"
	}
	return ""
}

func (h *handlers) deleteShift(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	if err := h.store.DeleteShift(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- shift calendars ---

type calendarRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type assignmentRequest struct {
	ShiftID string `json:"shiftId"`
}

func (h *handlers) listCalendars(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	calendars, err := h.calendars.Calendars(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	if calendars == nil {
		calendars = []domain.ShiftCalendar{}
	}
	return c.JSON(http.StatusOK, calendars)
}

func (h *handlers) createCalendar(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var req calendarRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	release, err := h.claimKey(c, userID)
	if err != nil {
		return h.fail(c, err)
	}
	cal, err := h.calendars.CreateCalendar(c.Request().Context(), req.Year, req.Month)
	if err != nil {
		release(true)
		return h.fail(c, err)
	}
	release(false)
	return c.JSON(http.StatusCreated, cal)
}

func (h *handlers) getGrid(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	grid, err := h.calendars.Grid(c.Request().Context(), c.Param("calendarId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, grid)
}

func (h *handlers) addNewStaff(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	grid, err := h.calendars.AddNewStaff(c.Request().Context(), c.Param("calendarId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, grid)
}

func (h *handlers) setAssignment(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var req assignmentRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	err := h.calendars.SetShift(c.Request().Context(), c.Param("calendarId"), c.Param("assignmentId"), req.ShiftID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- preferences ---

type preferencesRequest struct {
	LastProjectID string            `json:"lastProjectId"`
	Settings      map[string]string `json:"settings"`
}

func (h *handlers) getPreferences(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	prefs, err := h.store.FetchPreferences(c.Request().Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, prefs)
}

func (h *handlers) putPreferences(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var req preferencesRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	prefs := domain.Preferences{
		UserID:        userID,
		LastProjectID: req.LastProjectID,
		Settings:      req.Settings,
		UpdatedAt:     rfcNow(),
	}
	if err := h.store.UpsertPreferences(c.Request().Context(), prefs); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, prefs)
}
