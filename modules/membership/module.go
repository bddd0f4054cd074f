package membership

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/approval-workflow/modules/cache"
)

// Module provides membership services via GORM + SQLite with a Redis cache.
type Module struct {
	db      *gorm.DB
	repo    *Repository
	service *Service
	cache   *cache.Cache
	dbPath  string
}

var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new membership module.
func NewModule(dbPath string) *Module {
	if dbPath == "" {
		dbPath = "membership.db"
	}
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "membership"
}

// SetCache sets the cache instance for role lookups. Must be called before
// the application starts serving; a nil cache disables caching.
func (m *Module) SetCache(c *cache.Cache) {
	m.cache = c
	if m.repo != nil {
		m.service = NewService(m.repo, c)
	}
}

// RegisterServices registers request-reply services in the service
// container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "resolve-role", json.Unmarshal, json.Marshal, m.resolveRole,
	); err != nil {
		return fmt.Errorf("failed to register resolve-role service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-approvers", json.Unmarshal, json.Marshal, m.listApprovers,
	); err != nil {
		return fmt.Errorf("failed to register list-approvers service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.getUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	log.Printf("[membership] Registered services: resolve-role, list-approvers, get-user")
	return nil
}

// Start opens the database, runs migrations, and seeds demo data.
func (m *Module) Start(_ context.Context) error {
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db
	m.repo = NewRepository(db)

	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if os.Getenv("SEED_DEMO_DATA") != "false" {
		if err := m.repo.SeedDemoData(); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	m.service = NewService(m.repo, m.cache)

	log.Printf("[membership] Module started (db: %s)", m.dbPath)
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	log.Println("[membership] Module stopped")
	return nil
}

// Health reports the health of the membership database.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"driver": "sqlite", "path": m.dbPath},
	}
}
