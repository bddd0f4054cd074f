package api

// CreateTaskBody represents a task creation request body.
type CreateTaskBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssigneeID  string `json:"assignee_id"`
	ProjectID   string `json:"project_id"`
	WorkspaceID string `json:"workspace_id"`
}

// TransitionBody represents a transition request body. Reason is required
// for reject and bypass.
type TransitionBody struct {
	Reason string `json:"reason"`
}

// DeniedResponse represents a policy denial. The operation was understood
// and evaluated; the policy said no.
type DeniedResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
