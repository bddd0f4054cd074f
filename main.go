package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	apimod "github.com/example/approval-workflow/modules/api"
	cachemod "github.com/example/approval-workflow/modules/cache"
	membershipmod "github.com/example/approval-workflow/modules/membership"
	notificationmod "github.com/example/approval-workflow/modules/notification"
	sweepermod "github.com/example/approval-workflow/modules/sweeper"
	workflowmod "github.com/example/approval-workflow/modules/workflow"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration from environment
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	membershipDBPath := getEnv("MEMBERSHIP_DB_PATH", "./membership.db")
	workflowDBPath := getEnv("WORKFLOW_DB_PATH", "./workflow.db")
	httpPort := getEnvInt("HTTP_PORT", 3000)
	jwtSecret := getEnv("JWT_SECRET", "dev-secret-change-in-production")
	slaThreshold := getEnvDuration("APPROVAL_SLA", 48*time.Hour)
	sweepInterval := getEnvDuration("SWEEP_INTERVAL", 2*time.Minute)
	roleCacheTTL := getEnvDuration("ROLE_CACHE_TTL", 30*time.Second)

	log.Println("=== Approval Workflow Service ===")
	log.Printf("Redis: %s", redisAddr)
	log.Printf("Membership DB: %s", membershipDBPath)
	log.Printf("Workflow DB: %s", workflowDBPath)
	log.Printf("HTTP Port: %d", httpPort)
	log.Printf("Approval SLA: %s", slaThreshold)
	log.Printf("Sweep interval: %s", sweepInterval)

	// Create modules
	cacheModule := cachemod.NewModule(cachemod.Config{
		RedisAddr: redisAddr,
		Prefix:    "membership:",
		TTL:       roleCacheTTL,
	})
	membershipModule := membershipmod.NewModule(membershipDBPath)
	workflowModule := workflowmod.NewModule(workflowDBPath, slaThreshold)
	notificationModule := notificationmod.NewModule()
	sweeperModule := sweepermod.NewModule(sweepInterval)
	apiModule := apimod.NewModule(apimod.Config{
		Port:      httpPort,
		JWTSecret: jwtSecret,
	})

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}

	// Register modules
	app.Register(cacheModule)
	app.Register(membershipModule)
	app.Register(workflowModule)
	app.Register(notificationModule)
	app.Register(sweeperModule)
	app.Register(apiModule)

	// Start modules (this handles Init and Start)
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	// Wire up the role cache after start
	membershipModule.SetCache(cacheModule.GetCache())

	log.Println("=== Application Started ===")
	log.Printf("API available at http://localhost:%d", httpPort)
	log.Println("Endpoints:")
	log.Println("  GET  /health                    - Health check")
	log.Println("  POST /api/v1/tasks              - Create task")
	log.Println("  GET  /api/v1/tasks              - List tasks")
	log.Println("  GET  /api/v1/tasks/:id          - Get task")
	log.Println("  GET  /api/v1/tasks/:id/history  - Approval history")
	log.Println("  POST /api/v1/tasks/:id/start    - Start work")
	log.Println("  POST /api/v1/tasks/:id/submit   - Submit for approval")
	log.Println("  POST /api/v1/tasks/:id/approve  - Approve")
	log.Println("  POST /api/v1/tasks/:id/reject   - Reject (reason required)")
	log.Println("  POST /api/v1/tasks/:id/bypass   - Bypass approval (admin, reason required)")
	log.Println("  GET  /api/v1/notifications      - Notification log")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown")

	// Setup graceful shutdown using gelmium/graceful-shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	// Wait for shutdown signal and exit with appropriate code
	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
