package membership

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrUserNotFound is returned when a user is not in the directory.
var ErrUserNotFound = errors.New("user not found")

// Repository provides access to membership storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new membership repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate runs the schema migrations for the membership tables.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&User{}, &ProjectMember{}, &WorkspaceMember{})
}

// FindUser retrieves a user by ID.
func (r *Repository) FindUser(userID string) (*User, error) {
	var user User
	if err := r.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// IsSystemAdmin reports whether the user is a system administrator.
func (r *Repository) IsSystemAdmin(userID string) (bool, error) {
	var count int64
	err := r.db.Model(&User{}).
		Where("id = ? AND is_system_admin = ?", userID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query system admin: %w", err)
	}
	return count > 0, nil
}

// IsProjectLead reports whether the user holds the LEAD role in the project.
func (r *Repository) IsProjectLead(projectID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&ProjectMember{}).
		Where("project_id = ? AND user_id = ? AND role = ?", projectID, userID, ProjectRoleLead).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query project lead: %w", err)
	}
	return count > 0, nil
}

// IsWorkspaceAdmin reports whether the user holds the ADMIN role in the
// workspace.
func (r *Repository) IsWorkspaceAdmin(workspaceID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ? AND role = ?", workspaceID, userID, WorkspaceRoleAdmin).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query workspace admin: %w", err)
	}
	return count > 0, nil
}

// ListApprovers returns the union of current project leads and workspace
// admins, deduplicated. This is the approvers snapshot taken at submission
// time.
func (r *Repository) ListApprovers(projectID, workspaceID string) ([]string, error) {
	var leadIDs []string
	err := r.db.Model(&ProjectMember{}).
		Where("project_id = ? AND role = ?", projectID, ProjectRoleLead).
		Pluck("user_id", &leadIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list project leads: %w", err)
	}

	var adminIDs []string
	err = r.db.Model(&WorkspaceMember{}).
		Where("workspace_id = ? AND role = ?", workspaceID, WorkspaceRoleAdmin).
		Pluck("user_id", &adminIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace admins: %w", err)
	}

	seen := make(map[string]bool, len(leadIDs)+len(adminIDs))
	approvers := make([]string, 0, len(leadIDs)+len(adminIDs))
	for _, id := range append(leadIDs, adminIDs...) {
		if !seen[id] {
			seen[id] = true
			approvers = append(approvers, id)
		}
	}
	return approvers, nil
}

// SeedDemoData populates the membership tables with demo users and
// memberships when the directory is empty.
func (r *Repository) SeedDemoData() error {
	var count int64
	if err := r.db.Model(&User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	users := []User{
		{ID: "user-alice", Name: "Alice Johnson", Email: "alice@example.com"},
		{ID: "user-bob", Name: "Bob Smith", Email: "bob@example.com"},
		{ID: "user-carol", Name: "Carol White", Email: "carol@example.com"},
		{ID: "user-dave", Name: "Dave Root", Email: "dave@example.com", IsSystemAdmin: true},
	}
	if err := r.db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	projectMembers := []ProjectMember{
		{ProjectID: "project-1", UserID: "user-alice", Role: ProjectRoleMember},
		{ProjectID: "project-1", UserID: "user-bob", Role: ProjectRoleLead},
	}
	if err := r.db.Create(&projectMembers).Error; err != nil {
		return fmt.Errorf("failed to seed project members: %w", err)
	}

	workspaceMembers := []WorkspaceMember{
		{WorkspaceID: "workspace-1", UserID: "user-alice", Role: WorkspaceRoleMember},
		{WorkspaceID: "workspace-1", UserID: "user-bob", Role: WorkspaceRoleMember},
		{WorkspaceID: "workspace-1", UserID: "user-carol", Role: WorkspaceRoleAdmin},
	}
	if err := r.db.Create(&workspaceMembers).Error; err != nil {
		return fmt.Errorf("failed to seed workspace members: %w", err)
	}

	return nil
}
