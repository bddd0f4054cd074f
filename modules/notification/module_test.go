package notification

import (
	"context"
	"testing"

	domain "github.com/example/approval-workflow/domain/workflow"
	"github.com/example/approval-workflow/events"
)

func transitioned(action domain.Action) events.TaskTransitionedEvent {
	return events.TaskTransitionedEvent{
		TaskID:      "task-1",
		Action:      action,
		ActorID:     "user-bob",
		AssigneeID:  "user-alice",
		ApproverIDs: []string{"user-bob", "user-carol"},
		Reason:      "because",
	}
}

func TestModule_TaskCreatedNotifiesAssignee(t *testing.T) {
	m := NewModule()

	err := m.handleTaskCreated(context.Background(), events.TaskCreatedEvent{
		TaskID:     "task-1",
		Title:      "write release notes",
		AssigneeID: "user-alice",
	}, nil)
	if err != nil {
		t.Fatalf("handleTaskCreated() error = %v", err)
	}

	got := m.GetNotifications("user-alice", "")
	if len(got) != 1 {
		t.Fatalf("len(notifications) = %d, want 1", len(got))
	}
	if got[0].Type != "task_created" {
		t.Errorf("Type = %v, want task_created", got[0].Type)
	}
}

func TestModule_TransitionFanOut(t *testing.T) {
	tests := []struct {
		name           string
		action         domain.Action
		wantRecipients map[string]int
	}{
		{
			name:           "submit notifies the approver snapshot",
			action:         domain.ActionSubmitForApproval,
			wantRecipients: map[string]int{"user-bob": 1, "user-carol": 1},
		},
		{
			name:           "approve notifies the assignee",
			action:         domain.ActionApprove,
			wantRecipients: map[string]int{"user-alice": 1},
		},
		{
			name:           "reject notifies the assignee",
			action:         domain.ActionReject,
			wantRecipients: map[string]int{"user-alice": 1},
		},
		{
			name:           "bypass notifies assignee and approvers after the fact",
			action:         domain.ActionBypass,
			wantRecipients: map[string]int{"user-alice": 1, "user-bob": 1, "user-carol": 1},
		},
		{
			name:           "auto-approve notifies assignee and approvers after the fact",
			action:         domain.ActionAutoApprove,
			wantRecipients: map[string]int{"user-alice": 1, "user-bob": 1, "user-carol": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModule()

			if err := m.handleTaskTransitioned(context.Background(), transitioned(tt.action), nil); err != nil {
				t.Fatalf("handleTaskTransitioned() error = %v", err)
			}

			all := m.GetNotifications("", "")
			total := 0
			for _, want := range tt.wantRecipients {
				total += want
			}
			if len(all) != total {
				t.Fatalf("len(notifications) = %d, want %d", len(all), total)
			}
			for recipient, want := range tt.wantRecipients {
				if got := len(m.GetNotifications(recipient, "")); got != want {
					t.Errorf("notifications for %s = %d, want %d", recipient, got, want)
				}
			}
		})
	}
}

func TestModule_GetNotifications_Filters(t *testing.T) {
	m := NewModule()
	ctx := context.Background()

	eventA := transitioned(domain.ActionApprove)
	eventA.TaskID = "task-a"
	eventB := transitioned(domain.ActionApprove)
	eventB.TaskID = "task-b"
	if err := m.handleTaskTransitioned(ctx, eventA, nil); err != nil {
		t.Fatalf("handleTaskTransitioned() error = %v", err)
	}
	if err := m.handleTaskTransitioned(ctx, eventB, nil); err != nil {
		t.Fatalf("handleTaskTransitioned() error = %v", err)
	}

	byTask := m.GetNotifications("", "task-a")
	if len(byTask) != 1 || byTask[0].TaskID != "task-a" {
		t.Errorf("task filter returned %v, want one task-a entry", byTask)
	}

	byBoth := m.GetNotifications("user-alice", "task-b")
	if len(byBoth) != 1 || byBoth[0].TaskID != "task-b" {
		t.Errorf("combined filter returned %v, want one task-b entry", byBoth)
	}

	if got := m.GetNotifications("user-nobody", ""); len(got) != 0 {
		t.Errorf("unknown recipient returned %v, want none", got)
	}
}

func TestModule_SkipsEmptyRecipients(t *testing.T) {
	m := NewModule()

	event := transitioned(domain.ActionApprove)
	event.AssigneeID = ""
	if err := m.handleTaskTransitioned(context.Background(), event, nil); err != nil {
		t.Fatalf("handleTaskTransitioned() error = %v", err)
	}

	if got := m.GetNotifications("", ""); len(got) != 0 {
		t.Errorf("notifications = %v, want none for empty recipient", got)
	}
}
