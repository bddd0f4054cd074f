package membership

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/approval-workflow/domain/workflow"
)

// membershipAdapter wraps ServiceContainer for type-safe cross-module
// communication. It implements the Port interface.
type membershipAdapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a new adapter for membership services. container is
// the ServiceContainer from the membership module received via
// SetDependencyServiceContainer.
func NewAdapter(container mono.ServiceContainer) Port {
	if container == nil {
		panic("membership adapter requires non-nil ServiceContainer")
	}
	return &membershipAdapter{container: container}
}

// ResolveRole resolves the actor's capability set via the resolve-role
// service. A transport failure resolves to no capabilities (fail closed).
func (a *membershipAdapter) ResolveRole(ctx context.Context, req ResolveRoleRequest) (workflow.Role, error) {
	var resp ResolveRoleResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"resolve-role",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return workflow.Role{}, fmt.Errorf("resolve-role service call failed: %w", err)
	}
	return resp.Role, nil
}

// ListApprovers returns the current approver snapshot via the
// list-approvers service.
func (a *membershipAdapter) ListApprovers(ctx context.Context, projectID, workspaceID string) ([]string, error) {
	req := ListApproversRequest{ProjectID: projectID, WorkspaceID: workspaceID}
	var resp ListApproversResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-approvers",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-approvers service call failed: %w", err)
	}
	return resp.ApproverIDs, nil
}
