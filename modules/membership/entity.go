// Package membership resolves actor capabilities against project and
// workspace membership data. The workflow engine consumes it as a port;
// missing or unreadable membership data resolves to no capabilities at all.
package membership

import (
	"time"

	"gorm.io/gorm"
)

// Membership role values as stored in the membership tables.
const (
	ProjectRoleMember = "MEMBER"
	ProjectRoleLead   = "LEAD"

	WorkspaceRoleMember = "MEMBER"
	WorkspaceRoleAdmin  = "ADMIN"
)

// User is the directory entry for an actor. The workflow holds weak
// references to users; this module owns the records.
type User struct {
	ID            string         `gorm:"primarykey;size:36" json:"id"`
	Name          string         `gorm:"size:100;not null" json:"name"`
	Email         string         `gorm:"size:200;not null;uniqueIndex" json:"email"`
	IsSystemAdmin bool           `gorm:"not null;default:false" json:"is_system_admin"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName returns the table name for the User model.
func (User) TableName() string {
	return "users"
}

// ProjectMember links a user to a project with a role.
type ProjectMember struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ProjectID string    `gorm:"size:36;not null;index:idx_project_user" json:"project_id"`
	UserID    string    `gorm:"size:36;not null;index:idx_project_user" json:"user_id"`
	Role      string    `gorm:"size:32;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for the ProjectMember model.
func (ProjectMember) TableName() string {
	return "project_members"
}

// WorkspaceMember links a user to a workspace with a role.
type WorkspaceMember struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	WorkspaceID string    `gorm:"size:36;not null;index:idx_workspace_user" json:"workspace_id"`
	UserID      string    `gorm:"size:36;not null;index:idx_workspace_user" json:"user_id"`
	Role        string    `gorm:"size:32;not null" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the table name for the WorkspaceMember model.
func (WorkspaceMember) TableName() string {
	return "workspace_members"
}
