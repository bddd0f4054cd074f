package membership

import (
	"context"

	"github.com/example/approval-workflow/domain/workflow"
)

// ResolveRoleRequest asks for the effective capability set of a user with
// respect to one task's assignee, project, and workspace.
type ResolveRoleRequest struct {
	UserID      string `json:"user_id"`
	AssigneeID  string `json:"assignee_id"`
	ProjectID   string `json:"project_id"`
	WorkspaceID string `json:"workspace_id"`
}

// ResolveRoleResponse carries the resolved capability set. When membership
// data was unavailable the role is the zero value and Degraded is set.
type ResolveRoleResponse struct {
	Role     workflow.Role `json:"role"`
	Degraded bool          `json:"degraded"`
}

// ListApproversRequest asks for the current approver set of a project and
// workspace pair.
type ListApproversRequest struct {
	ProjectID   string `json:"project_id"`
	WorkspaceID string `json:"workspace_id"`
}

// ListApproversResponse carries the current approver user IDs.
type ListApproversResponse struct {
	ApproverIDs []string `json:"approver_ids"`
}

// GetUserRequest is the request for looking up a directory entry.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse is the response for a directory lookup.
type GetUserResponse struct {
	User  *User `json:"user,omitempty"`
	Found bool  `json:"found"`
}

// Port is the membership interface consumed by the workflow engine
// (hexagonal port). ResolveRole never fails open: any lookup problem
// yields a role with no capabilities.
type Port interface {
	ResolveRole(ctx context.Context, req ResolveRoleRequest) (workflow.Role, error)
	ListApprovers(ctx context.Context, projectID, workspaceID string) ([]string, error)
}
