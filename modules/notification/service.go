package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ListNotificationsRequest filters the notification log. Empty fields
// match everything.
type ListNotificationsRequest struct {
	Recipient string `json:"recipient,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
}

// ListNotificationsResponse is the filtered notification log.
type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
}

// RegisterServices registers request-reply services in the service
// container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-notifications", json.Unmarshal, json.Marshal, m.listNotifications,
	); err != nil {
		return fmt.Errorf("failed to register list-notifications service: %w", err)
	}

	log.Printf("[notification] Registered services: list-notifications")
	return nil
}

func (m *Module) listNotifications(_ context.Context, req *ListNotificationsRequest, _ *mono.Msg) (*ListNotificationsResponse, error) {
	notifications := m.GetNotifications(req.Recipient, req.TaskID)
	return &ListNotificationsResponse{Notifications: notifications, Total: len(notifications)}, nil
}
