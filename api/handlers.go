package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"crewboard-api/domain"
)

const requestBodyMaxSize = 64 * 1024 // 64 KiB

var tracer = otel.Tracer("crewboard-api/api")

var errDuplicateRequest = errors.New("duplicate request")

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	store     Storage
	auth      Authenticator
	deduper   Deduper
	log       *log.Logger
	boards    domain.BoardService
	calendars domain.CalendarService
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, auth Authenticator, deduper Deduper, logger *log.Logger) {
	h := &handlers{
		store:     store,
		auth:      auth,
		deduper:   deduper,
		log:       logger,
		boards:    domain.NewBoardService(store),
		calendars: domain.NewCalendarService(store),
	}

	e.GET("/healthz", h.healthz)

	g := e.Group("/api")

	g.GET("/projects", h.listProjects)
	g.POST("/projects", h.createProject)
	g.PATCH("/projects/:projectId", h.updateProject)
	g.DELETE("/projects/:projectId", h.deleteProject)

	g.GET("/projects/:projectId/board", h.getBoard)
	g.POST("/projects/:projectId/lanes", h.addLane)
	g.PATCH("/projects/:projectId/lanes/:laneId", h.renameLane)
	g.PUT("/projects/:projectId/lanes/:laneId/position", h.reorderLane)
	g.DELETE("/projects/:projectId/lanes/:laneId", h.deleteLane)
	g.POST("/projects/:projectId/tasks", h.addTask)
	g.PATCH("/projects/:projectId/tasks/:taskId", h.updateTask)
	g.PUT("/projects/:projectId/tasks/:taskId/position", h.moveTask)
	g.DELETE("/projects/:projectId/tasks/:taskId", h.deleteTask)

	g.GET("/departments", h.listDepartments)
	g.POST("/departments", h.createDepartment)
	g.PUT("/departments/:id", h.updateDepartment)
	g.DELETE("/departments/:id", h.deleteDepartment)

	g.GET("/resource-types", h.listResourceTypes)
	g.POST("/resource-types", h.createResourceType)
	g.PUT("/resource-types/:id", h.updateResourceType)
	g.DELETE("/resource-types/:id", h.deleteResourceType)

	g.GET("/resource-statuses", h.listResourceStatuses)
	g.POST("/resource-statuses", h.createResourceStatus)
	g.PUT("/resource-statuses/:id", h.updateResourceStatus)
	g.DELETE("/resource-statuses/:id", h.deleteResourceStatus)

	g.GET("/resources", h.listResources)
	g.POST("/resources", h.createResource)
	g.PATCH("/resources/:id", h.updateResource)
	g.DELETE("/resources/:id", h.deleteResource)

	g.GET("/shifts", h.listShifts)
	g.POST("/shifts", h.createShift)
	g.PUT("/shifts/:id", h.updateShift)
	g.DELETE("/shifts/:id", h.deleteShift)

	g.GET("/calendars", h.listCalendars)
	g.POST("/calendars", h.createCalendar)
	g.GET("/calendars/:calendarId/assignments", h.getGrid)
	g.POST("/calendars/:calendarId/staff", h.addNewStaff)
	g.PUT("/calendars/:calendarId/assignments/:assignmentId", h.setAssignment)

	g.GET("/preferences", h.getPreferences)
	g.PUT("/preferences", h.putPreferences)

	initEventPublisher(store, logger)
}

func (h *handlers) healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (h *handlers) userID(c echo.Context) (string, error) {
	return h.auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (h *handlers) fail(c echo.Context, err error) error {
	switch {
	case domain.IsValidation(err):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, errDuplicateRequest),
		errors.Is(err, domain.ErrLaneNotDeletable),
		errors.Is(err, domain.ErrConcurrencyConflict):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	}
	h.log.WithError(err).Error("request failed")
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

// claimKey reserves the request's Idempotency-Key for the user so a retried
// mutation is rejected instead of applied twice. The release callback rolls
// the claim back when the mutation failed.
func (h *handlers) claimKey(c echo.Context, userID string) (func(failed bool), error) {
	key := strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
	if key == "" || h.deduper == nil {
		return func(bool) {}, nil
	}
	added, err := h.deduper.Add(c.Request().Context(), userID, key)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, errDuplicateRequest
	}
	return func(failed bool) {
		if !failed {
			return
		}
		if rerr := h.deduper.Remove(bg, userID, key); rerr != nil {
			h.log.Errorf("dedupe rollback failed, err: %v, key: %s, user: %s", rerr, key, userID)
		}
	}, nil
}

func (h *handlers) publish(projectID, entityID, eventType, actorID string, payload any) {
	var data json.RawMessage
	if payload != nil {
		if raw, err := sonic.Marshal(payload); err == nil {
			data = raw
		}
	}
	ev := domain.Event{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		EntityID:  entityID,
		Type:      eventType,
		Data:      data,
		Time:      nextTimestamp(),
		ActorID:   actorID,
	}

	if tryPublishJob(publishJob{events: []domain.Event{ev}}) {
		return
	}

	if globalLog != nil {
		globalLog.Warn("publish buffer saturated; sending inline")
	}
	timeout := publishTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(bg, timeout)
	defer cancel()
	if err := h.store.EnqueueEvents(ctx, []domain.Event{ev}); err != nil {
		h.log.Errorf("event publish inline failed: %v", err)
	}
}

func startSpan(c echo.Context, name, projectID string) (context.Context, oteltrace.Span) {
	return tracer.Start(c.Request().Context(), name,
		oteltrace.WithAttributes(attribute.String("project.id", projectID)))
}

func rfcNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// --- projects ---

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *handlers) listProjects(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	projects, err := h.store.ListProjects(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

func (h *handlers) createProject(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var req projectRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name: must not be empty"})
	}
	now := rfcNow()
	p := domain.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: req.Description,
		OwnerID:     userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ctx := c.Request().Context()
	if err := h.store.InsertProject(ctx, p); err != nil {
		return h.fail(c, err)
	}
	// Every new project starts with the default lane set.
	if _, err := h.boards.InitLanes(ctx, p.ID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *handlers) updateProject(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	var upd domain.ProjectUpdate
	if err := decodeBody(c, &upd); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "name: must not be empty"})
	}
	err := h.store.UpdateProject(c.Request().Context(), c.Param("projectId"), upd, rfcNow())
	if err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) deleteProject(c echo.Context) error {
	if _, err := h.userID(c); err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	if err := h.store.DeleteProject(c.Request().Context(), c.Param("projectId")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- board ---

type laneCreateRequest struct {
	Name     string `json:"name"`
	Position *int   `json:"position"`
}

type laneRenameRequest struct {
	Name string `json:"name"`
}

type lanePositionRequest struct {
	Position int `json:"position"`
}

type taskCreateRequest struct {
	LaneID      string `json:"laneId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ResourceID  string `json:"resourceId"`
}

type taskPositionRequest struct {
	LaneID   string `json:"laneId"`
	Position *int   `json:"position"`
}

func (h *handlers) getBoard(c echo.Context) (err error) {
	metrics := newBoardRequestMetrics(h.log)
	projectID := c.Param("projectId")
	defer func() {
		metrics.Log(projectID, c.Response().Status, err)
	}()

	authStart := time.Now()
	_, authErr := h.userID(c)
	metrics.ObserveAuth(time.Since(authStart))
	if authErr != nil {
		metrics.SetErrorStage("auth")
		err = c.String(http.StatusUnauthorized, authErr.Error())
		return err
	}

	loadStart := time.Now()
	board, loadErr := h.boards.Board(c.Request().Context(), projectID)
	metrics.ObserveLoad(time.Since(loadStart))
	if loadErr != nil {
		metrics.SetErrorStage("storage")
		err = h.fail(c, loadErr)
		return err
	}
	metrics.SetBoardSize(len(board.Lanes), len(board.Tasks))
	err = c.JSON(http.StatusOK, board)
	if err != nil {
		metrics.SetErrorStage("encode_response")
	}
	return err
}

func (h *handlers) addLane(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	projectID := c.Param("projectId")
	var req laneCreateRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	release, err := h.claimKey(c, userID)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, span := startSpan(c, "board.addLane", projectID)
	defer span.End()
	board, err := h.boards.AddLane(ctx, projectID, req.Name, req.Position)
	if err != nil {
		release(true)
		return h.fail(c, err)
	}
	release(false)
	h.publish(projectID, "", domain.LaneAdded, userID, req)
	return c.JSON(http.StatusCreated, board)
}

func (h *handlers) renameLane(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	projectID := c.Param("projectId")
	laneID := c.Param("laneId")
	var req laneRenameRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	release, err := h.claimKey(c, userID)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, span := startSpan(c, "board.renameLane", projectID)
	defer span.End()
	board, err := h.boards.RenameLane(ctx, projectID, laneID, req.Name)
	if err != nil {
		release(true)
		return h.fail(c, err)
	}
	release(false)
	h.publish(projectID, laneID, domain.LaneRenamed, userID, req)
	return c.JSON(http.StatusOK, board)
}

func (h *handlers) reorderLane(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	projectID := c.Param("projectId")
	laneID := c.Param("laneId")
	var req lanePositionRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	release, err := h.claimKey(c, userID)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, span := startSpan(c, "board.reorderLane", projectID)
	defer span.End()
	board, err := h.boards.ReorderLane(ctx, projectID, laneID, req.Position)
	if err != nil {
		release(true)
		return h.fail(c, err)
	}
	release(false)
	h.publish(projectID, laneID, domain.LaneReordered, userID, req)
	return c.JSON(http.StatusOK, board)
}

func (h *handlers) deleteLane(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	projectID := c.Param("projectId")
	laneID := c.Param("laneId")
	release, err := h.claimKey(c, userID)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, span := startSpan(c, "board.deleteLane", projectID)
	defer span.End()
	board, err := h.boards.DeleteLane(ctx, projectID, laneID)
	if err != nil {
		release(true)
		return h.fail(c, err)
	}
	release(false)
	h.publish(projectID, laneID, domain.LaneDeleted, userID, nil)
	return c.JSON(http.StatusOK, board)
}

func (h *handlers) addTask(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	projectID := c.Param("projectId")
	var req taskCreateRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	release, err := h.claimKey(c, userID)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, span := startSpan(c, "board.addTask", projectID)
	defer span.End()
	task, err := h.boards.AddTask(ctx, projectID, req.LaneID, req.Title, req.Description, req.ResourceID)
	if err != nil {
		release(true)
		return h.fail(c, err)
	}
	release(false)
	h.publish(projectID, task.ID, domain.TaskAdded, userID, task)
	return c.JSON(http.StatusCreated, task)
}

func (h *handlers) updateTask(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	projectID := c.Param("projectId")
	taskID := c.Param("taskId")
	var fields domain.TaskFields
	if err := decodeBody(c, &fields); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	release, err := h.claimKey(c, userID)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, span := startSpan(c, "board.updateTask", projectID)
	defer span.End()
	board, err := h.boards.UpdateTask(ctx, projectID, taskID, fields)
	if err != nil {
		release(true)
		return h.fail(c, err)
	}
	release(false)
	h.publish(projectID, taskID, domain.TaskUpdated, userID, fields)
	return c.JSON(http.StatusOK, board)
}

func (h *handlers) moveTask(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	projectID := c.Param("projectId")
	taskID := c.Param("taskId")
	var req taskPositionRequest
	if err := decodeBody(c, &req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	release, err := h.claimKey(c, userID)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, span := startSpan(c, "board.moveTask", projectID)
	defer span.End()
	board, err := h.boards.MoveTask(ctx, projectID, taskID, req.LaneID, req.Position)
	if err != nil {
		release(true)
		return h.fail(c, err)
	}
	release(false)
	h.publish(projectID, taskID, domain.TaskMoved, userID, req)
	return c.JSON(http.StatusOK, board)
}

func (h *handlers) deleteTask(c echo.Context) error {
	userID, err := h.userID(c)
	if err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}
	projectID := c.Param("projectId")
	taskID := c.Param("taskId")
	release, err := h.claimKey(c, userID)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, span := startSpan(c, "board.deleteTask", projectID)
	defer span.End()
	board, err := h.boards.DeleteTask(ctx, projectID, taskID)
	if err != nil {
		release(true)
		return h.fail(c, err)
	}
	release(false)
	h.publish(projectID, taskID, domain.TaskDeleted, userID, nil)
	return c.JSON(http.StatusOK, board)
}
