package membership

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
	"golang.org/x/sync/singleflight"

	"github.com/example/approval-workflow/domain/workflow"
	"github.com/example/approval-workflow/modules/cache"
)

// Service resolves roles and approver sets with a Redis cache in front of
// the membership tables.
type Service struct {
	repo    *Repository
	cache   *cache.Cache
	sfGroup singleflight.Group
}

// NewService creates a new membership service. The cache may be nil, in
// which case every lookup goes to the database.
func NewService(repo *Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

// cachedRole is the cacheable part of a role: the capability flags that
// depend only on (user, project, workspace). The assignee flag is computed
// per task and never cached.
type cachedRole struct {
	IsProjectLead    bool `json:"is_project_lead"`
	IsWorkspaceAdmin bool `json:"is_workspace_admin"`
	IsSystemAdmin    bool `json:"is_system_admin"`
}

func roleCacheKey(userID, projectID, workspaceID string) string {
	return "role:" + userID + ":" + projectID + ":" + workspaceID
}

// ResolveRole determines the effective capability set of the user for a
// task. Any storage problem resolves to a role with no capabilities; the
// policy then denies rather than grants.
func (s *Service) ResolveRole(ctx context.Context, req ResolveRoleRequest) ResolveRoleResponse {
	role := workflow.Role{
		IsAssignee: req.UserID != "" && req.UserID == req.AssigneeID,
	}

	cr, degraded := s.lookupCapabilities(ctx, req.UserID, req.ProjectID, req.WorkspaceID)
	role.IsProjectLead = cr.IsProjectLead
	role.IsWorkspaceAdmin = cr.IsWorkspaceAdmin
	role.IsSystemAdmin = cr.IsSystemAdmin

	return ResolveRoleResponse{Role: role, Degraded: degraded}
}

// lookupCapabilities loads the cacheable capability flags, cache-aside with
// singleflight around the database on misses. Returns zero flags and
// degraded=true when the lookup fails.
func (s *Service) lookupCapabilities(ctx context.Context, userID, projectID, workspaceID string) (cachedRole, bool) {
	key := roleCacheKey(userID, projectID, workspaceID)

	if s.cache != nil {
		var cached cachedRole
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("[membership] Cache error for %s: %v", key, err)
		}
		if found {
			return cached, false
		}
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		return s.loadCapabilities(userID, projectID, workspaceID)
	})
	if err != nil {
		// Fail closed: unreadable membership data grants nothing.
		log.Printf("[membership] Lookup failed for %s, resolving to no capabilities: %v", key, err)
		return cachedRole{}, true
	}

	cr := val.(cachedRole)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cr); err != nil {
			log.Printf("[membership] Warning: failed to cache %s: %v", key, err)
		}
	}
	return cr, false
}

func (s *Service) loadCapabilities(userID, projectID, workspaceID string) (cachedRole, error) {
	var cr cachedRole
	var err error

	if cr.IsSystemAdmin, err = s.repo.IsSystemAdmin(userID); err != nil {
		return cachedRole{}, err
	}
	if cr.IsProjectLead, err = s.repo.IsProjectLead(projectID, userID); err != nil {
		return cachedRole{}, err
	}
	if cr.IsWorkspaceAdmin, err = s.repo.IsWorkspaceAdmin(workspaceID, userID); err != nil {
		return cachedRole{}, err
	}
	return cr, nil
}

// ListApprovers returns the current project leads plus workspace admins.
// Unlike ResolveRole this propagates failures: an approvers snapshot taken
// from unreadable data would open an undecidable request.
func (s *Service) ListApprovers(req ListApproversRequest) (ListApproversResponse, error) {
	approvers, err := s.repo.ListApprovers(req.ProjectID, req.WorkspaceID)
	if err != nil {
		return ListApproversResponse{}, err
	}
	return ListApproversResponse{ApproverIDs: approvers}, nil
}

// service handlers wired into the mono container

func (m *Module) resolveRole(ctx context.Context, req ResolveRoleRequest, _ *mono.Msg) (ResolveRoleResponse, error) {
	return m.service.ResolveRole(ctx, req), nil
}

func (m *Module) listApprovers(_ context.Context, req ListApproversRequest, _ *mono.Msg) (ListApproversResponse, error) {
	return m.service.ListApprovers(req)
}

func (m *Module) getUser(_ context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.repo.FindUser(req.UserID)
	if err != nil {
		return GetUserResponse{Found: false}, nil
	}
	return GetUserResponse{User: user, Found: true}, nil
}
