package workflow

import (
	"strings"
	"time"
)

// Decision is the target state pair produced by an allowed transition.
type Decision struct {
	NextStatus         TaskStatus
	NextApprovalStatus ApprovalStatus
}

// Policy is the pure decision function for approval transitions. It never
// touches storage; the engine applies whatever it allows.
type Policy struct {
	// SLAThreshold is the maximum time a request may wait before it becomes
	// eligible for auto-approval.
	SLAThreshold time.Duration
}

// DefaultSLAThreshold is used when no threshold is configured.
const DefaultSLAThreshold = 48 * time.Hour

// NewPolicy creates a Policy with the given SLA threshold. A non-positive
// threshold falls back to the default.
func NewPolicy(sla time.Duration) *Policy {
	if sla <= 0 {
		sla = DefaultSLAThreshold
	}
	return &Policy{SLAThreshold: sla}
}

// Decide evaluates whether action may be applied to the task by an actor
// with the given role, and returns the resulting state pair. The reason is
// the actor-supplied explanation, required for REJECT and BYPASS.
//
// The engine is the only writer of task status; a direct jump into
// PENDING_APPROVAL is impossible because no action yields it except
// SUBMIT_FOR_APPROVAL, and while a task is PENDING_APPROVAL every action
// except APPROVE/REJECT/BYPASS (and the system AUTO_APPROVE) is denied.
func (p *Policy) Decide(t *Task, role Role, action Action, reason string, now time.Time) (Decision, error) {
	if t.Cancelled {
		return Decision{}, Deny(action, DenyWrongState, "task is cancelled")
	}

	switch action {
	case ActionStart:
		if t.Status != StatusTodo {
			return Decision{}, Deny(action, DenyWrongState, "task must be TODO to start")
		}
		if !role.IsAssignee {
			return Decision{}, Deny(action, DenyNotAssignee, "")
		}
		return Decision{NextStatus: StatusInProgress, NextApprovalStatus: t.ApprovalStatus}, nil

	case ActionSubmitForApproval:
		if t.Status != StatusInProgress {
			return Decision{}, Deny(action, DenyWrongState, "task must be IN_PROGRESS to submit")
		}
		if !role.IsAssignee {
			return Decision{}, Deny(action, DenyNotAssignee, "")
		}
		return Decision{NextStatus: StatusPendingApproval, NextApprovalStatus: ApprovalPending}, nil

	case ActionApprove:
		if t.Status != StatusPendingApproval {
			return Decision{}, Deny(action, DenyWrongState, "no approval is pending")
		}
		if !role.CanDecide() {
			return Decision{}, Deny(action, DenyNotApprover, "")
		}
		return Decision{NextStatus: StatusDone, NextApprovalStatus: ApprovalApproved}, nil

	case ActionReject:
		if strings.TrimSpace(reason) == "" {
			return Decision{}, Deny(action, DenyMissingReason, "")
		}
		if t.Status != StatusPendingApproval {
			return Decision{}, Deny(action, DenyWrongState, "no approval is pending")
		}
		if !role.CanDecide() {
			return Decision{}, Deny(action, DenyNotApprover, "")
		}
		return Decision{NextStatus: StatusInProgress, NextApprovalStatus: ApprovalRejected}, nil

	case ActionBypass:
		if !role.CanBypass() {
			return Decision{}, Deny(action, DenyNotApprover, "bypass requires a workspace or system admin")
		}
		if strings.TrimSpace(reason) == "" {
			return Decision{}, Deny(action, DenyMissingReason, "")
		}
		if t.Status == StatusDone {
			return Decision{}, Deny(action, DenyWrongState, "task is already done")
		}
		return Decision{NextStatus: StatusDone, NextApprovalStatus: ApprovalBypassed}, nil

	case ActionAutoApprove:
		if t.Status != StatusPendingApproval {
			return Decision{}, Deny(action, DenyWrongState, "no approval is pending")
		}
		if !p.IsEligibleForAutoApproval(t, now) {
			return Decision{}, Deny(action, DenyNotEligible, "")
		}
		return Decision{NextStatus: StatusDone, NextApprovalStatus: ApprovalAutoApproved}, nil

	default:
		return Decision{}, Deny(action, DenyWrongState, "unsupported action")
	}
}

// IsEligibleForAutoApproval reports whether the pending request has waited
// past the SLA threshold. SubmittedAt mirrors the latest request's
// RequestedAt.
func (p *Policy) IsEligibleForAutoApproval(t *Task, now time.Time) bool {
	if t.Status != StatusPendingApproval || t.SubmittedAt == nil {
		return false
	}
	return now.Sub(*t.SubmittedAt) >= p.SLAThreshold
}
