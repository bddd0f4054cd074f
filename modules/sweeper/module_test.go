package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/approval-workflow/modules/workflow"
)

// fakeWorkflowPort counts sweep calls; the rest of the port is unused by
// the sweeper.
type fakeWorkflowPort struct {
	sweeps   atomic.Int64
	sweepErr error
}

func (f *fakeWorkflowPort) RunSweep(_ context.Context, _ time.Time) (*workflow.SweepResponse, error) {
	f.sweeps.Add(1)
	if f.sweepErr != nil {
		return nil, f.sweepErr
	}
	return &workflow.SweepResponse{Scanned: 1, Transitioned: 1}, nil
}

func (f *fakeWorkflowPort) CreateTask(_ context.Context, _ *workflow.CreateTaskRequest) (*workflow.TaskView, error) {
	return nil, nil
}
func (f *fakeWorkflowPort) GetTask(_ context.Context, _ string) (*workflow.TaskView, error) {
	return nil, nil
}
func (f *fakeWorkflowPort) ListTasks(_ context.Context, _ *workflow.ListTasksRequest) (*workflow.ListTasksResponse, error) {
	return nil, nil
}
func (f *fakeWorkflowPort) Start(_ context.Context, _ *workflow.TransitionRequest) (*workflow.TransitionResponse, error) {
	return nil, nil
}
func (f *fakeWorkflowPort) Submit(_ context.Context, _ *workflow.TransitionRequest) (*workflow.TransitionResponse, error) {
	return nil, nil
}
func (f *fakeWorkflowPort) Approve(_ context.Context, _ *workflow.TransitionRequest) (*workflow.TransitionResponse, error) {
	return nil, nil
}
func (f *fakeWorkflowPort) Reject(_ context.Context, _ *workflow.TransitionRequest) (*workflow.TransitionResponse, error) {
	return nil, nil
}
func (f *fakeWorkflowPort) Bypass(_ context.Context, _ *workflow.TransitionRequest) (*workflow.TransitionResponse, error) {
	return nil, nil
}
func (f *fakeWorkflowPort) GetHistory(_ context.Context, _ string) (*workflow.HistoryResponse, error) {
	return nil, nil
}

func TestModule_SweepsOnInterval(t *testing.T) {
	port := &fakeWorkflowPort{}
	m := NewModule(10 * time.Millisecond)
	m.workflow = port

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for port.sweeps.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("sweep did not run twice within deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	// No further sweeps after stop.
	settled := port.sweeps.Load()
	time.Sleep(50 * time.Millisecond)
	if got := port.sweeps.Load(); got != settled {
		t.Errorf("sweeps continued after Stop: %d -> %d", settled, got)
	}
}

func TestModule_SweepFailureKeepsTicking(t *testing.T) {
	port := &fakeWorkflowPort{sweepErr: errors.New("workflow unavailable")}
	m := NewModule(10 * time.Millisecond)
	m.workflow = port

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Stop(context.Background())

	deadline := time.After(2 * time.Second)
	for port.sweeps.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("sweeper stopped after a failing sweep")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestModule_StartRequiresDependency(t *testing.T) {
	m := NewModule(time.Minute)
	if err := m.Start(context.Background()); err == nil {
		t.Error("Start() error = nil without workflow dependency, want error")
	}
}

func TestNewModule_DefaultInterval(t *testing.T) {
	if m := NewModule(0); m.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", m.interval, DefaultInterval)
	}
}
