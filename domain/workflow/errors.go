package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound indicates the task does not exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrRequestNotFound indicates no open approval request exists for the task.
	ErrRequestNotFound = errors.New("open approval request not found")
	// ErrVersionConflict indicates the task was modified concurrently; the
	// caller should retry the transition.
	ErrVersionConflict = errors.New("task version conflict")
	// ErrMembershipUnavailable indicates the membership data source could not
	// be consulted; submissions fail rather than open undecidable requests.
	ErrMembershipUnavailable = errors.New("membership data unavailable")
)

// DenyReason tags the specific policy rule that refused a transition.
type DenyReason string

const (
	DenyNotAssignee   DenyReason = "NOT_ASSIGNEE"
	DenyNotApprover   DenyReason = "NOT_APPROVER"
	DenyWrongState    DenyReason = "WRONG_STATE"
	DenyMissingReason DenyReason = "MISSING_REASON"
	DenyNotEligible   DenyReason = "NOT_ELIGIBLE"
)

// denyMessages maps each reason to its user-facing message.
var denyMessages = map[DenyReason]string{
	DenyNotAssignee:   "only the task assignee may perform this action",
	DenyNotApprover:   "only a project lead or workspace admin may decide on this task",
	DenyWrongState:    "the task is not in a state that allows this action",
	DenyMissingReason: "a reason is required for this action",
	DenyNotEligible:   "the task is not eligible for auto-approval yet",
}

// DenyError is returned when the approval policy refuses a transition.
// No state is mutated when it is returned.
type DenyError struct {
	Reason DenyReason
	Action Action
	Detail string
}

func (e *DenyError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("policy denied %s: %s (%s)", e.Action, e.Reason, e.Detail)
	}
	return fmt.Sprintf("policy denied %s: %s", e.Action, e.Reason)
}

// Message returns the human-readable explanation for the denial.
func (e *DenyError) Message() string {
	if msg, ok := denyMessages[e.Reason]; ok {
		return msg
	}
	return "the action is not permitted"
}

// Deny builds a DenyError for the given action and reason.
func Deny(action Action, reason DenyReason, detail string) *DenyError {
	return &DenyError{Reason: reason, Action: action, Detail: detail}
}

// AsDeny unwraps err into a DenyError if it is one.
func AsDeny(err error) (*DenyError, bool) {
	var deny *DenyError
	if errors.As(err, &deny) {
		return deny, true
	}
	return nil, false
}

// PersistenceError wraps a storage failure; the transition was not applied.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
