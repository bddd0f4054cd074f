package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "github.com/example/approval-workflow/domain/workflow"
	"github.com/example/approval-workflow/events"
	"github.com/example/approval-workflow/modules/membership"
)

// Module hosts the workflow engine and exposes its operations as
// request-reply services. It depends on the membership module for role
// resolution and approver snapshots.
type Module struct {
	db           *gorm.DB
	repo         *Repository
	engine       *Engine
	membership   membership.Port
	eventBus     mono.EventBus
	dbPath       string
	slaThreshold time.Duration
}

var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.EventEmitterModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new workflow module. A non-positive slaThreshold
// falls back to the default auto-approval window.
func NewModule(dbPath string, slaThreshold time.Duration) *Module {
	if dbPath == "" {
		dbPath = "workflow.db"
	}
	return &Module{dbPath: dbPath, slaThreshold: slaThreshold}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "workflow"
}

// Dependencies returns the list of module dependencies.
// The framework will call SetDependencyServiceContainer for each dependency.
func (m *Module) Dependencies() []string {
	return []string{"membership"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "membership":
		m.membership = membership.NewAdapter(container)
	}
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
	if m.engine != nil {
		m.engine.SetEventBus(bus)
	}
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskTransitionedV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service
// container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "start-task", json.Unmarshal, json.Marshal, m.startTask,
	); err != nil {
		return fmt.Errorf("failed to register start-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "submit-for-approval", json.Unmarshal, json.Marshal, m.submitForApproval,
	); err != nil {
		return fmt.Errorf("failed to register submit-for-approval service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "approve-task", json.Unmarshal, json.Marshal, m.approveTask,
	); err != nil {
		return fmt.Errorf("failed to register approve-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "reject-task", json.Unmarshal, json.Marshal, m.rejectTask,
	); err != nil {
		return fmt.Errorf("failed to register reject-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "bypass-approval", json.Unmarshal, json.Marshal, m.bypassApproval,
	); err != nil {
		return fmt.Errorf("failed to register bypass-approval service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "task-history", json.Unmarshal, json.Marshal, m.taskHistory,
	); err != nil {
		return fmt.Errorf("failed to register task-history service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "auto-approval-sweep", json.Unmarshal, json.Marshal, m.autoApprovalSweep,
	); err != nil {
		return fmt.Errorf("failed to register auto-approval-sweep service: %w", err)
	}

	log.Printf("[workflow] Registered services: create-task, get-task, list-tasks, start-task, " +
		"submit-for-approval, approve-task, reject-task, bypass-approval, task-history, auto-approval-sweep")
	return nil
}

// Start opens the database, runs migrations, and builds the engine.
func (m *Module) Start(_ context.Context) error {
	if m.membership == nil {
		return fmt.Errorf("required dependency 'membership' not set")
	}

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

	m.engine = NewEngine(m.repo, m.membership, domain.NewPolicy(m.slaThreshold))
	if m.eventBus != nil {
		m.engine.SetEventBus(m.eventBus)
	}

	log.Printf("[workflow] Module started (db: %s, sla: %s)", m.dbPath, m.engine.policy.SLAThreshold)
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
	log.Println("[workflow] Module stopped")
	return nil
}

// Health reports the health of the workflow database.
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
