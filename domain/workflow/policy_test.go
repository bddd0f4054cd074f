package workflow

import (
	"errors"
	"testing"
	"time"
)

var (
	memberRole   = Role{}
	assigneeRole = Role{IsAssignee: true}
	leadRole     = Role{IsProjectLead: true}
	adminRole    = Role{IsWorkspaceAdmin: true}
	sysRole      = Role{IsSystemAdmin: true}
)

func pendingTask(submittedAt time.Time) *Task {
	return &Task{
		ID:             "task-1",
		Status:         StatusPendingApproval,
		ApprovalStatus: ApprovalPending,
		AssigneeID:     "user-alice",
		SubmittedAt:    &submittedAt,
	}
}

func TestPolicy_Decide(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	policy := NewPolicy(48 * time.Hour)

	tests := []struct {
		name       string
		status     TaskStatus
		cancelled  bool
		role       Role
		action     Action
		reason     string
		wantStatus TaskStatus
		wantDeny   DenyReason
	}{
		{
			name:       "assignee starts todo task",
			status:     StatusTodo,
			role:       assigneeRole,
			action:     ActionStart,
			wantStatus: StatusInProgress,
		},
		{
			name:     "start requires todo state",
			status:   StatusInProgress,
			role:     assigneeRole,
			action:   ActionStart,
			wantDeny: DenyWrongState,
		},
		{
			name:     "non-assignee cannot start",
			status:   StatusTodo,
			role:     adminRole,
			action:   ActionStart,
			wantDeny: DenyNotAssignee,
		},
		{
			name:       "assignee submits in-progress task",
			status:     StatusInProgress,
			role:       assigneeRole,
			action:     ActionSubmitForApproval,
			wantStatus: StatusPendingApproval,
		},
		{
			name:     "submit requires in-progress state",
			status:   StatusTodo,
			role:     assigneeRole,
			action:   ActionSubmitForApproval,
			wantDeny: DenyWrongState,
		},
		{
			name:     "submit while already pending is a state error",
			status:   StatusPendingApproval,
			role:     assigneeRole,
			action:   ActionSubmitForApproval,
			wantDeny: DenyWrongState,
		},
		{
			name:     "admin cannot submit on behalf of assignee",
			status:   StatusInProgress,
			role:     adminRole,
			action:   ActionSubmitForApproval,
			wantDeny: DenyNotAssignee,
		},
		{
			name:       "project lead approves pending task",
			status:     StatusPendingApproval,
			role:       leadRole,
			action:     ActionApprove,
			wantStatus: StatusDone,
		},
		{
			name:       "workspace admin approves pending task",
			status:     StatusPendingApproval,
			role:       adminRole,
			action:     ActionApprove,
			wantStatus: StatusDone,
		},
		{
			name:       "system admin approves pending task",
			status:     StatusPendingApproval,
			role:       sysRole,
			action:     ActionApprove,
			wantStatus: StatusDone,
		},
		{
			name:     "assignee cannot approve own task",
			status:   StatusPendingApproval,
			role:     assigneeRole,
			action:   ActionApprove,
			wantDeny: DenyNotApprover,
		},
		{
			name:     "plain member cannot approve",
			status:   StatusPendingApproval,
			role:     memberRole,
			action:   ActionApprove,
			wantDeny: DenyNotApprover,
		},
		{
			name:     "approve requires pending state",
			status:   StatusInProgress,
			role:     leadRole,
			action:   ActionApprove,
			wantDeny: DenyWrongState,
		},
		{
			name:       "lead rejects with reason",
			status:     StatusPendingApproval,
			role:       leadRole,
			action:     ActionReject,
			reason:     "needs more detail",
			wantStatus: StatusInProgress,
		},
		{
			name:     "reject without reason is refused before anything else",
			status:   StatusTodo,
			role:     memberRole,
			action:   ActionReject,
			wantDeny: DenyMissingReason,
		},
		{
			name:     "reject with whitespace reason is refused",
			status:   StatusPendingApproval,
			role:     leadRole,
			action:   ActionReject,
			reason:   "   ",
			wantDeny: DenyMissingReason,
		},
		{
			name:     "reject requires pending state",
			status:   StatusDone,
			role:     leadRole,
			action:   ActionReject,
			reason:   "too late",
			wantDeny: DenyWrongState,
		},
		{
			name:     "member cannot reject",
			status:   StatusPendingApproval,
			role:     memberRole,
			action:   ActionReject,
			reason:   "not mine to say",
			wantDeny: DenyNotApprover,
		},
		{
			name:       "workspace admin bypasses pending task",
			status:     StatusPendingApproval,
			role:       adminRole,
			action:     ActionBypass,
			reason:     "release freeze tonight",
			wantStatus: StatusDone,
		},
		{
			name:       "admin bypasses todo task with no cycle open",
			status:     StatusTodo,
			role:       sysRole,
			action:     ActionBypass,
			reason:     "obsolete checklist item",
			wantStatus: StatusDone,
		},
		{
			name:       "admin bypasses in-progress task",
			status:     StatusInProgress,
			role:       adminRole,
			action:     ActionBypass,
			reason:     "hotfix already shipped",
			wantStatus: StatusDone,
		},
		{
			name:     "member can never bypass regardless of state",
			status:   StatusTodo,
			role:     memberRole,
			action:   ActionBypass,
			reason:   "please",
			wantDeny: DenyNotApprover,
		},
		{
			name:     "project lead cannot bypass",
			status:   StatusPendingApproval,
			role:     leadRole,
			action:   ActionBypass,
			reason:   "I said so",
			wantDeny: DenyNotApprover,
		},
		{
			name:     "bypass without reason is refused",
			status:   StatusPendingApproval,
			role:     adminRole,
			action:   ActionBypass,
			wantDeny: DenyMissingReason,
		},
		{
			name:     "bypass of a done task is a state error",
			status:   StatusDone,
			role:     adminRole,
			action:   ActionBypass,
			reason:   "already done",
			wantDeny: DenyWrongState,
		},
		{
			name:      "cancelled task refuses every action",
			status:    StatusInProgress,
			cancelled: true,
			role:      assigneeRole,
			action:    ActionSubmitForApproval,
			wantDeny:  DenyWrongState,
		},
		{
			name:      "cancelled task refuses bypass too",
			status:    StatusPendingApproval,
			cancelled: true,
			role:      adminRole,
			action:    ActionBypass,
			reason:    "cleanup",
			wantDeny:  DenyWrongState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submitted := now.Add(-time.Hour)
			task := &Task{
				ID:          "task-1",
				Status:      tt.status,
				AssigneeID:  "user-alice",
				Cancelled:   tt.cancelled,
				SubmittedAt: &submitted,
			}

			decision, err := policy.Decide(task, tt.role, tt.action, tt.reason, now)

			if tt.wantDeny != "" {
				deny, ok := AsDeny(err)
				if !ok {
					t.Fatalf("Decide() error = %v, want DenyError", err)
				}
				if deny.Reason != tt.wantDeny {
					t.Errorf("deny reason = %v, want %v", deny.Reason, tt.wantDeny)
				}
				return
			}

			if err != nil {
				t.Fatalf("Decide() unexpected error = %v", err)
			}
			if decision.NextStatus != tt.wantStatus {
				t.Errorf("NextStatus = %v, want %v", decision.NextStatus, tt.wantStatus)
			}
		})
	}
}

func TestPolicy_Decide_DecisionPairs(t *testing.T) {
	now := time.Now()
	policy := NewPolicy(0)

	task := pendingTask(now.Add(-time.Hour))
	decision, err := policy.Decide(task, leadRole, ActionApprove, "", now)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decision.NextApprovalStatus != ApprovalApproved {
		t.Errorf("NextApprovalStatus = %v, want %v", decision.NextApprovalStatus, ApprovalApproved)
	}

	decision, err = policy.Decide(task, leadRole, ActionReject, "redo", now)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decision.NextStatus != StatusInProgress || decision.NextApprovalStatus != ApprovalRejected {
		t.Errorf("reject decision = %v/%v, want %v/%v",
			decision.NextStatus, decision.NextApprovalStatus, StatusInProgress, ApprovalRejected)
	}
}

func TestPolicy_AutoApprove(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	policy := NewPolicy(48 * time.Hour)

	t.Run("eligible after threshold", func(t *testing.T) {
		task := pendingTask(now.Add(-49 * time.Hour))
		decision, err := policy.Decide(task, Role{}, ActionAutoApprove, "", now)
		if err != nil {
			t.Fatalf("Decide() error = %v", err)
		}
		if decision.NextStatus != StatusDone || decision.NextApprovalStatus != ApprovalAutoApproved {
			t.Errorf("decision = %v/%v, want DONE/AUTO_APPROVED",
				decision.NextStatus, decision.NextApprovalStatus)
		}
	})

	t.Run("eligible exactly at threshold", func(t *testing.T) {
		task := pendingTask(now.Add(-48 * time.Hour))
		if !policy.IsEligibleForAutoApproval(task, now) {
			t.Error("IsEligibleForAutoApproval() = false at exact threshold, want true")
		}
	})

	t.Run("not eligible before threshold", func(t *testing.T) {
		task := pendingTask(now.Add(-47 * time.Hour))
		_, err := policy.Decide(task, Role{}, ActionAutoApprove, "", now)
		deny, ok := AsDeny(err)
		if !ok || deny.Reason != DenyNotEligible {
			t.Fatalf("Decide() error = %v, want NOT_ELIGIBLE denial", err)
		}
	})

	t.Run("not eligible without pending approval", func(t *testing.T) {
		task := &Task{Status: StatusInProgress}
		_, err := policy.Decide(task, Role{}, ActionAutoApprove, "", now)
		deny, ok := AsDeny(err)
		if !ok || deny.Reason != DenyWrongState {
			t.Fatalf("Decide() error = %v, want WRONG_STATE denial", err)
		}
	})

	t.Run("not eligible without submission timestamp", func(t *testing.T) {
		task := &Task{Status: StatusPendingApproval}
		if policy.IsEligibleForAutoApproval(task, now) {
			t.Error("IsEligibleForAutoApproval() = true without SubmittedAt, want false")
		}
	})
}

func TestNewPolicy_Defaults(t *testing.T) {
	if p := NewPolicy(0); p.SLAThreshold != DefaultSLAThreshold {
		t.Errorf("SLAThreshold = %v, want %v", p.SLAThreshold, DefaultSLAThreshold)
	}
	if p := NewPolicy(-time.Hour); p.SLAThreshold != DefaultSLAThreshold {
		t.Errorf("SLAThreshold = %v, want %v", p.SLAThreshold, DefaultSLAThreshold)
	}
	if p := NewPolicy(time.Hour); p.SLAThreshold != time.Hour {
		t.Errorf("SLAThreshold = %v, want %v", p.SLAThreshold, time.Hour)
	}
}

func TestDenyError(t *testing.T) {
	err := Deny(ActionReject, DenyMissingReason, "")

	var wrapped error = err
	deny, ok := AsDeny(wrapped)
	if !ok {
		t.Fatal("AsDeny() failed to unwrap DenyError")
	}
	if deny.Message() == "" {
		t.Error("Message() returned empty string")
	}
	if errors.Is(wrapped, ErrTaskNotFound) {
		t.Error("DenyError should not match unrelated sentinels")
	}
}

func TestRole_Capabilities(t *testing.T) {
	tests := []struct {
		name      string
		role      Role
		canDecide bool
		canBypass bool
	}{
		{"plain member", Role{}, false, false},
		{"assignee only", Role{IsAssignee: true}, false, false},
		{"project lead", Role{IsProjectLead: true}, true, false},
		{"workspace admin", Role{IsWorkspaceAdmin: true}, true, true},
		{"system admin", Role{IsSystemAdmin: true}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.CanDecide(); got != tt.canDecide {
				t.Errorf("CanDecide() = %v, want %v", got, tt.canDecide)
			}
			if got := tt.role.CanBypass(); got != tt.canBypass {
				t.Errorf("CanBypass() = %v, want %v", got, tt.canBypass)
			}
		})
	}
}
