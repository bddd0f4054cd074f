package api

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	domain "github.com/example/approval-workflow/domain/workflow"
	"github.com/example/approval-workflow/modules/notification"
	"github.com/example/approval-workflow/modules/workflow"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	workflow     workflow.Port
	notification notification.Port
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(workflowPort workflow.Port, notificationPort notification.Port) *Handlers {
	return &Handlers{
		workflow:     workflowPort,
		notification: notificationPort,
	}
}

// CreateTask handles task creation.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var body CreateTaskBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	if body.Title == "" || body.AssigneeID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Title and assignee_id are required",
		})
	}

	task, err := h.workflow.CreateTask(c.UserContext(), &workflow.CreateTaskRequest{
		Title:       body.Title,
		Description: body.Description,
		AssigneeID:  body.AssigneeID,
		ProjectID:   body.ProjectID,
		WorkspaceID: body.WorkspaceID,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

// GetTask returns one task snapshot.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	task, err := h.workflow.GetTask(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(task)
}

// ListTasks returns tasks, optionally filtered by assignee and status.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	resp, err := h.workflow.ListTasks(c.UserContext(), &workflow.ListTasksRequest{
		AssigneeID: c.Query("assignee_id"),
		Status:     domain.TaskStatus(c.Query("status")),
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// GetHistory returns the full approval history of a task.
func (h *Handlers) GetHistory(c *fiber.Ctx) error {
	resp, err := h.workflow.GetHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(resp)
}

// StartTask moves a TODO task to IN_PROGRESS.
func (h *Handlers) StartTask(c *fiber.Ctx) error {
	return h.runTransition(c, h.workflow.Start)
}

// SubmitForApproval moves an IN_PROGRESS task to PENDING_APPROVAL.
func (h *Handlers) SubmitForApproval(c *fiber.Ctx) error {
	return h.runTransition(c, h.workflow.Submit)
}

// ApproveTask completes a pending task.
func (h *Handlers) ApproveTask(c *fiber.Ctx) error {
	return h.runTransition(c, h.workflow.Approve)
}

// RejectTask sends a pending task back to IN_PROGRESS.
func (h *Handlers) RejectTask(c *fiber.Ctx) error {
	return h.runTransition(c, h.workflow.Reject)
}

// BypassApproval forces a task to DONE without approval.
func (h *Handlers) BypassApproval(c *fiber.Ctx) error {
	return h.runTransition(c, h.workflow.Bypass)
}

// ListNotifications returns the caller's notifications, optionally
// filtered by task.
func (h *Handlers) ListNotifications(c *fiber.Ctx) error {
	recipient := c.Query("recipient")
	if recipient == "" {
		recipient = actorFromContext(c)
	}
	resp, err := h.notification.ListNotifications(c.UserContext(), recipient, c.Query("task_id"))
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(resp)
}

type transitionCall func(ctx context.Context, req *workflow.TransitionRequest) (*workflow.TransitionResponse, error)

// runTransition parses the common transition shape, invokes the workflow
// service, and renders either the updated snapshot or the denial.
func (h *Handlers) runTransition(c *fiber.Ctx, call transitionCall) error {
	var body TransitionBody
	// The body is optional; approve and submit need no reason.
	_ = c.BodyParser(&body)

	req := workflow.TransitionRequest{
		TaskID:  c.Params("id"),
		ActorID: actorFromContext(c),
		Reason:  body.Reason,
	}

	resp, err := call(c.UserContext(), &req)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	if resp.Denied {
		return c.Status(denyStatus(resp.DenyReason)).JSON(DeniedResponse{
			Error:   "denied",
			Reason:  string(resp.DenyReason),
			Message: resp.DenyMessage,
		})
	}

	return c.JSON(resp.Task)
}

// denyStatus maps a policy denial to an HTTP status: identity problems are
// 403, state problems are 409, missing input is 400.
func denyStatus(reason domain.DenyReason) int {
	switch reason {
	case domain.DenyNotAssignee, domain.DenyNotApprover:
		return fiber.StatusForbidden
	case domain.DenyWrongState, domain.DenyNotEligible:
		return fiber.StatusConflict
	case domain.DenyMissingReason:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusForbidden
	}
}

// handleServiceError maps service errors to HTTP responses. Errors arrive
// flattened to strings after crossing the service boundary, so matching is
// on known messages.
func (h *Handlers) handleServiceError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "task not found"):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Task not found",
		})
	case strings.Contains(errStr, "task version conflict"):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "The task was modified concurrently; retry the request",
		})
	case strings.Contains(errStr, "membership data unavailable"):
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "service_unavailable",
			Message: "Membership data is unavailable; try again later",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}
