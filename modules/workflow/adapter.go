package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// workflowAdapter wraps ServiceContainer for type-safe cross-module
// communication. It implements the Port interface.
type workflowAdapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a new adapter for workflow services. container is
// the ServiceContainer from the workflow module received via
// SetDependencyServiceContainer.
func NewAdapter(container mono.ServiceContainer) Port {
	if container == nil {
		panic("workflow adapter requires non-nil ServiceContainer")
	}
	return &workflowAdapter{container: container}
}

func (a *workflowAdapter) CreateTask(ctx context.Context, req *CreateTaskRequest) (*TaskView, error) {
	var resp TaskView
	if err := helper.CallRequestReplyService(
		ctx, a.container, "create-task", json.Marshal, json.Unmarshal, req, &resp,
	); err != nil {
		return nil, fmt.Errorf("create-task service call failed: %w", err)
	}
	return &resp, nil
}

func (a *workflowAdapter) GetTask(ctx context.Context, taskID string) (*TaskView, error) {
	req := GetTaskRequest{TaskID: taskID}
	var resp TaskView
	if err := helper.CallRequestReplyService(
		ctx, a.container, "get-task", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("get-task service call failed: %w", err)
	}
	return &resp, nil
}

func (a *workflowAdapter) ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error) {
	var resp ListTasksResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list-tasks", json.Marshal, json.Unmarshal, req, &resp,
	); err != nil {
		return nil, fmt.Errorf("list-tasks service call failed: %w", err)
	}
	return &resp, nil
}

func (a *workflowAdapter) transition(ctx context.Context, service string, req *TransitionRequest) (*TransitionResponse, error) {
	var resp TransitionResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, service, json.Marshal, json.Unmarshal, req, &resp,
	); err != nil {
		return nil, fmt.Errorf("%s service call failed: %w", service, err)
	}
	return &resp, nil
}

func (a *workflowAdapter) Start(ctx context.Context, req *TransitionRequest) (*TransitionResponse, error) {
	return a.transition(ctx, "start-task", req)
}

func (a *workflowAdapter) Submit(ctx context.Context, req *TransitionRequest) (*TransitionResponse, error) {
	return a.transition(ctx, "submit-for-approval", req)
}

func (a *workflowAdapter) Approve(ctx context.Context, req *TransitionRequest) (*TransitionResponse, error) {
	return a.transition(ctx, "approve-task", req)
}

func (a *workflowAdapter) Reject(ctx context.Context, req *TransitionRequest) (*TransitionResponse, error) {
	return a.transition(ctx, "reject-task", req)
}

func (a *workflowAdapter) Bypass(ctx context.Context, req *TransitionRequest) (*TransitionResponse, error) {
	return a.transition(ctx, "bypass-approval", req)
}

func (a *workflowAdapter) GetHistory(ctx context.Context, taskID string) (*HistoryResponse, error) {
	req := HistoryRequest{TaskID: taskID}
	var resp HistoryResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "task-history", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("task-history service call failed: %w", err)
	}
	return &resp, nil
}

func (a *workflowAdapter) RunSweep(ctx context.Context, now time.Time) (*SweepResponse, error) {
	req := SweepRequest{Now: now}
	var resp SweepResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "auto-approval-sweep", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("auto-approval-sweep service call failed: %w", err)
	}
	return &resp, nil
}
