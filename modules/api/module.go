// Package api is the HTTP driving adapter: it authenticates callers via
// externally issued JWTs and translates REST calls into workflow and
// notification service requests.
package api

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/approval-workflow/modules/notification"
	"github.com/example/approval-workflow/modules/workflow"
)

// Config holds the API module configuration.
type Config struct {
	Port      int
	JWTSecret string
}

// Module is the HTTP API module.
type Module struct {
	app          *fiber.App
	config       Config
	workflow     workflow.Port
	notification notification.Port
	verifier     *Verifier
}

var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new API module.
func NewModule(config Config) *Module {
	if config.Port == 0 {
		config.Port = 3000
	}
	return &Module{config: config}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"workflow", "notification"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "workflow":
		m.workflow = workflow.NewAdapter(container)
	case "notification":
		m.notification = notification.NewAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.workflow == nil {
		return fmt.Errorf("required dependency 'workflow' not set")
	}
	if m.notification == nil {
		return fmt.Errorf("required dependency 'notification' not set")
	}
	if m.config.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	m.verifier = NewVerifier(m.config.JWTSecret)

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(cors.New())

	m.setupRoutes()

	go func() {
		addr := fmt.Sprintf(":%d", m.config.Port)
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on :%d", m.config.Port)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *Module) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.config.Port,
		},
	}
}

// setupRoutes configures all API routes.
func (m *Module) setupRoutes() {
	handlers := NewHandlers(m.workflow, m.notification)

	m.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	v1 := m.app.Group("/api/v1")
	v1.Use(AuthMiddleware(m.verifier))

	tasks := v1.Group("/tasks")
	tasks.Post("/", handlers.CreateTask)
	tasks.Get("/", handlers.ListTasks)
	tasks.Get("/:id", handlers.GetTask)
	tasks.Get("/:id/history", handlers.GetHistory)
	tasks.Post("/:id/start", handlers.StartTask)
	tasks.Post("/:id/submit", handlers.SubmitForApproval)
	tasks.Post("/:id/approve", handlers.ApproveTask)
	tasks.Post("/:id/reject", handlers.RejectTask)
	tasks.Post("/:id/bypass", handlers.BypassApproval)

	v1.Get("/notifications", handlers.ListNotifications)
}
