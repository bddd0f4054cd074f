package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Port is the notification query interface used by driving adapters.
type Port interface {
	ListNotifications(ctx context.Context, recipient, taskID string) (*ListNotificationsResponse, error)
}

type notificationAdapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a new adapter for notification services.
func NewAdapter(container mono.ServiceContainer) Port {
	if container == nil {
		panic("notification adapter requires non-nil ServiceContainer")
	}
	return &notificationAdapter{container: container}
}

func (a *notificationAdapter) ListNotifications(ctx context.Context, recipient, taskID string) (*ListNotificationsResponse, error) {
	req := ListNotificationsRequest{Recipient: recipient, TaskID: taskID}
	var resp ListNotificationsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-notifications",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-notifications service call failed: %w", err)
	}
	return &resp, nil
}
