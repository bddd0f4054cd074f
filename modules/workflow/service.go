package workflow

import (
	"context"

	"github.com/go-monolith/mono"

	domain "github.com/example/approval-workflow/domain/workflow"
)

// Request-reply handlers. Policy denials are encoded as response fields
// because typed errors do not survive the message bus; infrastructure
// errors are returned as errors.

func (m *Module) createTask(ctx context.Context, req *CreateTaskRequest, _ *mono.Msg) (*TaskView, error) {
	task, err := m.engine.CreateTask(ctx, req.Title, req.Description, req.AssigneeID, req.ProjectID, req.WorkspaceID)
	if err != nil {
		return nil, err
	}
	view := toTaskView(task)
	return &view, nil
}

func (m *Module) getTask(ctx context.Context, req *GetTaskRequest, _ *mono.Msg) (*TaskView, error) {
	task, err := m.engine.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	view := toTaskView(task)
	return &view, nil
}

func (m *Module) listTasks(ctx context.Context, req *ListTasksRequest, _ *mono.Msg) (*ListTasksResponse, error) {
	tasks, err := m.engine.ListTasks(ctx, req.AssigneeID, req.Status)
	if err != nil {
		return nil, err
	}
	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, toTaskView(task))
	}
	return &ListTasksResponse{Tasks: views, Total: len(views)}, nil
}

func (m *Module) startTask(ctx context.Context, req *TransitionRequest, _ *mono.Msg) (*TransitionResponse, error) {
	return m.transition(ctx, req, domain.ActionStart)
}

func (m *Module) submitForApproval(ctx context.Context, req *TransitionRequest, _ *mono.Msg) (*TransitionResponse, error) {
	return m.transition(ctx, req, domain.ActionSubmitForApproval)
}

func (m *Module) approveTask(ctx context.Context, req *TransitionRequest, _ *mono.Msg) (*TransitionResponse, error) {
	return m.transition(ctx, req, domain.ActionApprove)
}

func (m *Module) rejectTask(ctx context.Context, req *TransitionRequest, _ *mono.Msg) (*TransitionResponse, error) {
	return m.transition(ctx, req, domain.ActionReject)
}

func (m *Module) bypassApproval(ctx context.Context, req *TransitionRequest, _ *mono.Msg) (*TransitionResponse, error) {
	return m.transition(ctx, req, domain.ActionBypass)
}

func (m *Module) transition(ctx context.Context, req *TransitionRequest, action domain.Action) (*TransitionResponse, error) {
	task, err := m.engine.RequestTransition(ctx, req.TaskID, req.ActorID, action, req.Reason)
	if err != nil {
		if deny, ok := domain.AsDeny(err); ok {
			return &TransitionResponse{
				Denied:      true,
				DenyReason:  deny.Reason,
				DenyMessage: deny.Message(),
			}, nil
		}
		return nil, err
	}
	view := toTaskView(task)
	return &TransitionResponse{Task: &view}, nil
}

func (m *Module) taskHistory(ctx context.Context, req *HistoryRequest, _ *mono.Msg) (*HistoryResponse, error) {
	requests, err := m.engine.GetHistory(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	views := make([]ApprovalRequestView, 0, len(requests))
	for _, request := range requests {
		views = append(views, toRequestView(request))
	}
	return &HistoryResponse{Requests: views, Total: len(views)}, nil
}

func (m *Module) autoApprovalSweep(ctx context.Context, req *SweepRequest, _ *mono.Msg) (*SweepResponse, error) {
	scanned, transitioned, err := m.engine.RunAutoApprovalSweep(ctx, req.Now)
	if err != nil {
		return nil, err
	}
	return &SweepResponse{Scanned: scanned, Transitioned: transitioned}, nil
}
