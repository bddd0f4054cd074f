package membership

import (
	"context"
	"testing"
)

func TestService_ResolveRole(t *testing.T) {
	repo := setupTestRepo(t)
	service := NewService(repo, nil)
	ctx := context.Background()

	tests := []struct {
		name       string
		userID     string
		assigneeID string
		wantRole   func(r ResolveRoleResponse) bool
	}{
		{
			name:       "assignee flag from identity match",
			userID:     "user-alice",
			assigneeID: "user-alice",
			wantRole: func(r ResolveRoleResponse) bool {
				return r.Role.IsAssignee && !r.Role.CanDecide()
			},
		},
		{
			name:       "project lead capability",
			userID:     "user-bob",
			assigneeID: "user-alice",
			wantRole: func(r ResolveRoleResponse) bool {
				return !r.Role.IsAssignee && r.Role.IsProjectLead && r.Role.CanDecide() && !r.Role.CanBypass()
			},
		},
		{
			name:       "workspace admin capability",
			userID:     "user-carol",
			assigneeID: "user-alice",
			wantRole: func(r ResolveRoleResponse) bool {
				return r.Role.IsWorkspaceAdmin && r.Role.CanBypass()
			},
		},
		{
			name:       "system admin capability",
			userID:     "user-dave",
			assigneeID: "user-alice",
			wantRole: func(r ResolveRoleResponse) bool {
				return r.Role.IsSystemAdmin && r.Role.CanDecide() && r.Role.CanBypass()
			},
		},
		{
			name:       "unknown user gets nothing",
			userID:     "user-nobody",
			assigneeID: "user-alice",
			wantRole: func(r ResolveRoleResponse) bool {
				return !r.Role.IsAssignee && !r.Role.CanDecide() && !r.Role.CanBypass()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := service.ResolveRole(ctx, ResolveRoleRequest{
				UserID:      tt.userID,
				AssigneeID:  tt.assigneeID,
				ProjectID:   "project-1",
				WorkspaceID: "workspace-1",
			})
			if resp.Degraded {
				t.Error("Degraded = true with a healthy database")
			}
			if !tt.wantRole(resp) {
				t.Errorf("unexpected role %+v", resp.Role)
			}
		})
	}
}

// A broken membership store must resolve to no capabilities, not an error.
func TestService_ResolveRole_FailsClosed(t *testing.T) {
	repo := setupTestRepo(t)
	service := NewService(repo, nil)

	sqlDB, err := repo.db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("failed to close database: %v", err)
	}

	resp := service.ResolveRole(context.Background(), ResolveRoleRequest{
		UserID:      "user-dave",
		AssigneeID:  "user-alice",
		ProjectID:   "project-1",
		WorkspaceID: "workspace-1",
	})

	if !resp.Degraded {
		t.Error("Degraded = false, want true with a broken store")
	}
	if resp.Role.CanDecide() || resp.Role.CanBypass() {
		t.Errorf("role = %+v, want no capabilities when the store is down", resp.Role)
	}
	// Identity comparison needs no storage and still works.
	resp = service.ResolveRole(context.Background(), ResolveRoleRequest{
		UserID:     "user-alice",
		AssigneeID: "user-alice",
	})
	if !resp.Role.IsAssignee {
		t.Error("IsAssignee = false, want true from pure identity match")
	}
}

func TestService_ListApprovers_PropagatesErrors(t *testing.T) {
	repo := setupTestRepo(t)
	service := NewService(repo, nil)

	resp, err := service.ListApprovers(ListApproversRequest{
		ProjectID:   "project-1",
		WorkspaceID: "workspace-1",
	})
	if err != nil {
		t.Fatalf("ListApprovers() error = %v", err)
	}
	if len(resp.ApproverIDs) != 2 {
		t.Errorf("approvers = %v, want 2", resp.ApproverIDs)
	}

	sqlDB, dbErr := repo.db.DB()
	if dbErr != nil {
		t.Fatalf("failed to get sql.DB: %v", dbErr)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("failed to close database: %v", err)
	}

	if _, err := service.ListApprovers(ListApproversRequest{
		ProjectID:   "project-1",
		WorkspaceID: "workspace-1",
	}); err == nil {
		t.Error("ListApprovers() error = nil with a broken store, want error")
	}
}
