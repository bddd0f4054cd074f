// Package notification consumes workflow events and records who should be
// told about each transition. Delivery is a log entry; a real channel
// (email, chat) would hang off the same fan-out.
package notification

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"

	domain "github.com/example/approval-workflow/domain/workflow"
	"github.com/example/approval-workflow/events"
)

// Notification is one recorded delivery to one recipient.
type Notification struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Recipient string    `json:"recipient"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Module handles notifications as a driven adapter. It subscribes to
// workflow events using the EventConsumerModule interface.
type Module struct {
	notifications []Notification
	mu            sync.RWMutex
}

var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)

func NewModule() *Module {
	return &Module{
		notifications: make([]Notification, 0),
	}
}

func (m *Module) Name() string {
	return "notification"
}

func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskTransitionedV1, m.handleTaskTransitioned, m); err != nil {
		return fmt.Errorf("failed to register TaskTransitioned consumer: %w", err)
	}

	log.Printf("[notification] Registered event consumers: TaskCreated, TaskTransitioned")
	return nil
}

func (m *Module) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task created: %s - %s", event.TaskID, event.Title)
	m.record(event.TaskID, event.AssigneeID, "task_created",
		fmt.Sprintf("Task '%s' assigned to you", event.Title))
	return nil
}

// handleTaskTransitioned fans a transition out to the people it concerns:
// a submission notifies the approver snapshot, a decision notifies the
// assignee, and forced or automatic completions notify both sides after
// the fact.
func (m *Module) handleTaskTransitioned(_ context.Context, event events.TaskTransitionedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task %s: %s (%s -> %s) by %s",
		event.TaskID, event.Action, event.FromStatus, event.ToStatus, event.ActorID)

	switch event.Action {
	case domain.ActionSubmitForApproval:
		for _, approverID := range event.ApproverIDs {
			m.record(event.TaskID, approverID, "approval_requested",
				fmt.Sprintf("Task %s awaits your approval", event.TaskID))
		}
	case domain.ActionApprove:
		m.record(event.TaskID, event.AssigneeID, "task_approved",
			fmt.Sprintf("Task %s was approved by %s", event.TaskID, event.ActorID))
	case domain.ActionReject:
		m.record(event.TaskID, event.AssigneeID, "task_rejected",
			fmt.Sprintf("Task %s was rejected by %s: %s", event.TaskID, event.ActorID, event.Reason))
	case domain.ActionBypass:
		m.record(event.TaskID, event.AssigneeID, "approval_bypassed",
			fmt.Sprintf("Task %s was completed by %s, bypassing approval: %s", event.TaskID, event.ActorID, event.Reason))
		for _, approverID := range event.ApproverIDs {
			m.record(event.TaskID, approverID, "approval_bypassed",
				fmt.Sprintf("Approval for task %s was bypassed by %s", event.TaskID, event.ActorID))
		}
	case domain.ActionAutoApprove:
		m.record(event.TaskID, event.AssigneeID, "task_auto_approved",
			fmt.Sprintf("Task %s was auto-approved after the approval window elapsed", event.TaskID))
		for _, approverID := range event.ApproverIDs {
			m.record(event.TaskID, approverID, "task_auto_approved",
				fmt.Sprintf("Task %s auto-approved before you acted on it", event.TaskID))
		}
	}
	return nil
}

func (m *Module) record(taskID, recipient, notificationType, message string) {
	if recipient == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.notifications = append(m.notifications, Notification{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		Recipient: recipient,
		Type:      notificationType,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// GetNotifications returns a copy of the notification log, optionally
// filtered by recipient and task.
func (m *Module) GetNotifications(recipient, taskID string) []Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Notification, 0, len(m.notifications))
	for _, n := range m.notifications {
		if recipient != "" && n.Recipient != recipient {
			continue
		}
		if taskID != "" && n.TaskID != taskID {
			continue
		}
		result = append(result, n)
	}
	return result
}

func (m *Module) Start(_ context.Context) error {
	log.Println("[notification] Module started - listening for workflow events")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	log.Println("[notification] Module stopped")
	return nil
}
