// Package sweeper periodically triggers the auto-approval sweep so that
// approval requests older than the SLA threshold are closed even when no
// approver ever acts.
package sweeper

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"

	"github.com/example/approval-workflow/modules/workflow"
)

// DefaultInterval is how often the sweep runs when no interval is
// configured.
const DefaultInterval = 2 * time.Minute

// Module runs the auto-approval sweep on a fixed interval.
type Module struct {
	workflow workflow.Port
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)

// NewModule creates a new sweeper module. A non-positive interval falls
// back to DefaultInterval.
func NewModule(interval time.Duration) *Module {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Module{interval: interval}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "sweeper"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"workflow"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "workflow":
		m.workflow = workflow.NewAdapter(container)
	}
}

// Start launches the sweep loop.
func (m *Module) Start(_ context.Context) error {
	if m.workflow == nil {
		return fmt.Errorf("required dependency 'workflow' not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx)

	log.Printf("[sweeper] Module started (interval: %s)", m.interval)
	return nil
}

func (m *Module) run(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// sweep runs one sweep pass. Failures are logged and retried on the next
// tick.
func (m *Module) sweep(ctx context.Context) {
	resp, err := m.workflow.RunSweep(ctx, time.Time{})
	if err != nil {
		log.Printf("[sweeper] Sweep failed: %v", err)
		return
	}
	if resp.Scanned > 0 {
		log.Printf("[sweeper] Sweep done: scanned=%d transitioned=%d", resp.Scanned, resp.Transitioned)
	}
}

// Stop cancels the sweep loop and waits for it to exit.
func (m *Module) Stop(ctx context.Context) error {
	if m.cancel == nil {
		return nil
	}
	m.cancel()
	select {
	case <-m.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	log.Println("[sweeper] Module stopped")
	return nil
}
