package api

import (
	"context"
	"fmt"

	"github.com/ImaanAdrees/smartscribe/internal/model"
)

// ListNotifications fetches the persisted notification list for the
// current user. The server returns them newest first.
func (c *Client) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	var resp notificationListResponse
	if err := c.get(ctx, "/api/notifications/user/list", &resp); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return resp.Notifications, nil
}

// MarkRead confirms a single notification as read on the backend.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/notifications/%s/read", id)
	if err := c.put(ctx, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// DeleteNotification removes a notification on the backend.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/notifications/%s", id)
	if err := c.delete(ctx, path); err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return nil
}
