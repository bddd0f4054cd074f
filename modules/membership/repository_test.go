package membership

import (
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	repo := NewRepository(db)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := repo.SeedDemoData(); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	return repo
}

func TestRepository_FindUser(t *testing.T) {
	repo := setupTestRepo(t)

	user, err := repo.FindUser("user-alice")
	if err != nil {
		t.Fatalf("FindUser() error = %v", err)
	}
	if user.Name != "Alice Johnson" {
		t.Errorf("Name = %v, want Alice Johnson", user.Name)
	}

	_, err = repo.FindUser("user-nobody")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("FindUser() error = %v, want ErrUserNotFound", err)
	}
}

func TestRepository_CapabilityQueries(t *testing.T) {
	repo := setupTestRepo(t)

	tests := []struct {
		name  string
		check func() (bool, error)
		want  bool
	}{
		{"bob leads project-1", func() (bool, error) { return repo.IsProjectLead("project-1", "user-bob") }, true},
		{"alice is a plain project member", func() (bool, error) { return repo.IsProjectLead("project-1", "user-alice") }, false},
		{"carol administers workspace-1", func() (bool, error) { return repo.IsWorkspaceAdmin("workspace-1", "user-carol") }, true},
		{"bob is a plain workspace member", func() (bool, error) { return repo.IsWorkspaceAdmin("workspace-1", "user-bob") }, false},
		{"dave is system admin", func() (bool, error) { return repo.IsSystemAdmin("user-dave") }, true},
		{"alice is not system admin", func() (bool, error) { return repo.IsSystemAdmin("user-alice") }, false},
		{"unknown user has nothing", func() (bool, error) { return repo.IsProjectLead("project-1", "user-nobody") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.check()
			if err != nil {
				t.Fatalf("query error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRepository_ListApprovers(t *testing.T) {
	repo := setupTestRepo(t)

	approvers, err := repo.ListApprovers("project-1", "workspace-1")
	if err != nil {
		t.Fatalf("ListApprovers() error = %v", err)
	}

	want := map[string]bool{"user-bob": true, "user-carol": true}
	if len(approvers) != len(want) {
		t.Fatalf("approvers = %v, want bob and carol", approvers)
	}
	for _, id := range approvers {
		if !want[id] {
			t.Errorf("unexpected approver %v", id)
		}
	}
}

func TestRepository_ListApprovers_Deduplicates(t *testing.T) {
	repo := setupTestRepo(t)

	// Make bob both a project lead and a workspace admin.
	admin := WorkspaceMember{WorkspaceID: "workspace-2", UserID: "user-bob", Role: WorkspaceRoleAdmin}
	if err := repo.db.Create(&admin).Error; err != nil {
		t.Fatalf("failed to insert membership: %v", err)
	}

	approvers, err := repo.ListApprovers("project-1", "workspace-2")
	if err != nil {
		t.Fatalf("ListApprovers() error = %v", err)
	}
	if len(approvers) != 1 || approvers[0] != "user-bob" {
		t.Errorf("approvers = %v, want [user-bob] deduplicated", approvers)
	}
}

func TestRepository_SeedDemoData_Idempotent(t *testing.T) {
	repo := setupTestRepo(t)

	if err := repo.SeedDemoData(); err != nil {
		t.Fatalf("second SeedDemoData() error = %v", err)
	}

	var count int64
	if err := repo.db.Model(&User{}).Count(&count).Error; err != nil {
		t.Fatalf("count error = %v", err)
	}
	if count != 4 {
		t.Errorf("user count = %d after reseed, want 4", count)
	}
}
