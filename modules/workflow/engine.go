package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/google/uuid"

	domain "github.com/example/approval-workflow/domain/workflow"
	"github.com/example/approval-workflow/events"
	"github.com/example/approval-workflow/modules/membership"
)

// SystemActorID identifies system-triggered transitions such as
// auto-approval in audit records and events.
const SystemActorID = "system"

// maxCommitAttempts bounds the internal retry on version conflicts before
// the conflict surfaces to the caller.
const maxCommitAttempts = 3

// commitTimeout bounds each persistence write; a timed-out write fails the
// whole transition.
const commitTimeout = 5 * time.Second

// Engine is the single authoritative writer of task workflow state. Every
// transition goes through RequestTransition: role resolution, policy
// decision, atomic commit, then best-effort event emission.
type Engine struct {
	repo       *Repository
	membership membership.Port
	policy     *domain.Policy
	eventBus   mono.EventBus
	locker     *taskLocker
	now        func() time.Time
}

// NewEngine creates a workflow engine. The event bus may be nil; events are
// then dropped with a log line, never failing transitions.
func NewEngine(repo *Repository, membershipPort membership.Port, policy *domain.Policy) *Engine {
	return &Engine{
		repo:       repo,
		membership: membershipPort,
		policy:     policy,
		locker:     newTaskLocker(),
		now:        time.Now,
	}
}

// SetEventBus wires the event bus used for transition events.
func (e *Engine) SetEventBus(bus mono.EventBus) {
	e.eventBus = bus
}

// CreateTask registers a new task under workflow governance, starting at
// TODO with no approval history.
func (e *Engine) CreateTask(ctx context.Context, title, description, assigneeID, projectID, workspaceID string) (*domain.Task, error) {
	now := e.now()
	task := &domain.Task{
		ID:             uuid.New().String(),
		Title:          title,
		Description:    description,
		Status:         domain.StatusTodo,
		ApprovalStatus: domain.ApprovalNone,
		AssigneeID:     assigneeID,
		ProjectID:      projectID,
		WorkspaceID:    workspaceID,
	}
	if err := e.repo.CreateTask(ctx, task); err != nil {
		return nil, &domain.PersistenceError{Op: "create task", Err: err}
	}

	if e.eventBus != nil {
		event := events.TaskCreatedEvent{
			TaskID:      task.ID,
			Title:       task.Title,
			AssigneeID:  task.AssigneeID,
			ProjectID:   task.ProjectID,
			WorkspaceID: task.WorkspaceID,
			CreatedAt:   now,
		}
		if err := events.TaskCreatedV1.Publish(e.eventBus, event, nil); err != nil {
			log.Printf("[workflow] Warning: failed to publish TaskCreated event for task %s: %v", task.ID, err)
		}
	}
	return task, nil
}

// GetTask returns the current snapshot of a task.
func (e *Engine) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	return e.repo.FindTaskByID(ctx, taskID)
}

// ListTasks returns task snapshots, optionally filtered.
func (e *Engine) ListTasks(ctx context.Context, assigneeID string, status domain.TaskStatus) ([]*domain.Task, error) {
	return e.repo.ListTasks(ctx, assigneeID, status)
}

// GetHistory returns the ordered approval-request sequence of a task.
func (e *Engine) GetHistory(ctx context.Context, taskID string) ([]*domain.ApprovalRequest, error) {
	return e.repo.ListHistory(ctx, taskID)
}

// RequestTransition applies one workflow action to a task on behalf of an
// actor. On a policy denial a *domain.DenyError is returned and nothing is
// mutated. Version conflicts are retried a bounded number of times before
// surfacing as domain.ErrVersionConflict.
func (e *Engine) RequestTransition(ctx context.Context, taskID, actorID string, action domain.Action, reason string) (*domain.Task, error) {
	unlock := e.locker.Lock(taskID)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		task, err := e.attemptTransition(ctx, taskID, actorID, action, reason)
		if err == nil {
			return task, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
		log.Printf("[workflow] Version conflict on task %s (attempt %d/%d), retrying",
			taskID, attempt+1, maxCommitAttempts)
	}
	return nil, lastErr
}

func (e *Engine) attemptTransition(ctx context.Context, taskID, actorID string, action domain.Action, reason string) (*domain.Task, error) {
	task, err := e.repo.FindTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	role := e.resolveRole(ctx, actorID, action, task)

	now := e.now()
	decision, err := e.policy.Decide(task, role, action, reason, now)
	if err != nil {
		return nil, err
	}

	fromStatus := task.Status
	appended, closed, err := e.applyDecision(ctx, task, decision, action, actorID, reason, now)
	if err != nil {
		return nil, err
	}

	commitCtx, cancel := context.WithTimeout(ctx, commitTimeout)
	defer cancel()

	expectedVersion := task.Version
	if err := e.repo.CommitTransition(commitCtx, task, expectedVersion, appended, closed); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, domain.ErrVersionConflict
		}
		return nil, &domain.PersistenceError{Op: fmt.Sprintf("commit %s", action), Err: err}
	}

	e.emitTransitioned(task, fromStatus, action, actorID, reason, appended, closed, now)
	return task, nil
}

// resolveRole consults the membership port once per transition. System
// actions carry no role; a failed lookup resolves to no capabilities.
func (e *Engine) resolveRole(ctx context.Context, actorID string, action domain.Action, task *domain.Task) domain.Role {
	if action == domain.ActionAutoApprove {
		return domain.Role{}
	}

	role, err := e.membership.ResolveRole(ctx, membership.ResolveRoleRequest{
		UserID:      actorID,
		AssigneeID:  task.AssigneeID,
		ProjectID:   task.ProjectID,
		WorkspaceID: task.WorkspaceID,
	})
	if err != nil {
		log.Printf("[workflow] Role resolution failed for actor %s on task %s, denying capabilities: %v",
			actorID, task.ID, err)
		return domain.Role{}
	}
	return role
}

// applyDecision mutates the in-memory task to the allowed target state and
// prepares the approval-request writes for the commit.
func (e *Engine) applyDecision(ctx context.Context, task *domain.Task, decision domain.Decision, action domain.Action, actorID, reason string, now time.Time) (appended, closed *domain.ApprovalRequest, err error) {
	switch action {
	case domain.ActionStart:
		// No approval bookkeeping on start.

	case domain.ActionSubmitForApproval:
		approvers, err := e.membership.ListApprovers(ctx, task.ProjectID, task.WorkspaceID)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrMembershipUnavailable, err)
		}
		appended = &domain.ApprovalRequest{
			ID:          uuid.New().String(),
			TaskID:      task.ID,
			RequestedAt: now,
			Status:      domain.RequestPending,
			ApproverIDs: approvers,
		}
		task.SubmittedAt = &now

	case domain.ActionApprove:
		closed, err = e.openRequestFor(ctx, task)
		if err != nil {
			return nil, nil, err
		}
		closed.Status = domain.RequestApproved
		closed.ApprovedBy = actorID
		closed.ApprovedAt = &now

	case domain.ActionReject:
		closed, err = e.openRequestFor(ctx, task)
		if err != nil {
			return nil, nil, err
		}
		closed.Status = domain.RequestRejected
		closed.RejectedBy = actorID
		closed.RejectedAt = &now
		closed.Reason = reason
		task.RevisionCount++

	case domain.ActionBypass:
		open, err := e.repo.FindOpenRequest(ctx, task.ID)
		if err != nil && !errors.Is(err, domain.ErrRequestNotFound) {
			return nil, nil, &domain.PersistenceError{Op: "load open request", Err: err}
		}
		if open != nil {
			closed = open
			closed.Status = domain.RequestBypassed
			closed.BypassedBy = actorID
			closed.BypassedAt = &now
			closed.Reason = reason
		} else {
			// No cycle was open; synthesize a closed record so the audit
			// trail still shows who forced completion and why.
			appended = &domain.ApprovalRequest{
				ID:          uuid.New().String(),
				TaskID:      task.ID,
				RequestedAt: now,
				Status:      domain.RequestBypassed,
				BypassedBy:  actorID,
				BypassedAt:  &now,
				Reason:      reason,
			}
		}

	case domain.ActionAutoApprove:
		closed, err = e.openRequestFor(ctx, task)
		if err != nil {
			return nil, nil, err
		}
		closed.Status = domain.RequestAutoApproved
		closed.AutoApprovedAt = &now
	}

	task.Status = decision.NextStatus
	task.ApprovalStatus = decision.NextApprovalStatus
	return appended, closed, nil
}

func (e *Engine) openRequestFor(ctx context.Context, task *domain.Task) (*domain.ApprovalRequest, error) {
	open, err := e.repo.FindOpenRequest(ctx, task.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			// Pending status without an open request means another writer
			// closed it between our read and now; retry resolves it.
			return nil, domain.ErrVersionConflict
		}
		return nil, &domain.PersistenceError{Op: "load open request", Err: err}
	}
	return open, nil
}

// emitTransitioned publishes the transition event. Emission is best-effort:
// the transition is already committed and a publish failure is only logged.
func (e *Engine) emitTransitioned(task *domain.Task, fromStatus domain.TaskStatus, action domain.Action, actorID, reason string, appended, closed *domain.ApprovalRequest, now time.Time) {
	if e.eventBus == nil {
		log.Printf("[workflow] Event bus not set, dropping transition event for task %s", task.ID)
		return
	}

	var approvers []string
	if appended != nil {
		approvers = appended.ApproverIDs
	} else if closed != nil {
		approvers = closed.ApproverIDs
	}

	event := events.TaskTransitionedEvent{
		TaskID:      task.ID,
		FromStatus:  fromStatus,
		ToStatus:    task.Status,
		Action:      action,
		ActorID:     actorID,
		AssigneeID:  task.AssigneeID,
		ApproverIDs: approvers,
		Reason:      reason,
		Approval:    task.ApprovalStatus,
		OccurredAt:  now,
	}
	if err := events.TaskTransitionedV1.Publish(e.eventBus, event, nil); err != nil {
		log.Printf("[workflow] Warning: failed to publish TaskTransitioned event for task %s: %v", task.ID, err)
	}
}

// RunAutoApprovalSweep transitions every pending task whose request has
// waited past the SLA threshold, reusing the ordinary policy path. Returns
// how many tasks were scanned and how many transitioned.
func (e *Engine) RunAutoApprovalSweep(ctx context.Context, now time.Time) (scanned, transitioned int, err error) {
	if now.IsZero() {
		now = e.now()
	}
	cutoff := now.Add(-e.policy.SLAThreshold)

	ids, err := e.repo.ListPendingTaskIDsOlderThan(ctx, cutoff)
	if err != nil {
		return 0, 0, &domain.PersistenceError{Op: "sweep scan", Err: err}
	}

	for _, id := range ids {
		if _, err := e.RequestTransition(ctx, id, SystemActorID, domain.ActionAutoApprove, ""); err != nil {
			// A task decided between scan and transition is expected; any
			// denial or conflict here just means the sweep lost the race.
			log.Printf("[workflow] Sweep skipped task %s: %v", id, err)
			continue
		}
		transitioned++
	}
	return len(ids), transitioned, nil
}
