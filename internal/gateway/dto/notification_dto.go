package dto

type ListNotificationsRequest struct {
	Scope      string `form:"scope"`
	EventType  string `form:"event_type"`
	UnreadOnly bool   `form:"unread_only"`
	PageSize   int    `form:"page_size"`
	Cursor     string `form:"cursor"`
}

type ListNotificationsResponse struct {
	Notifications []NotificationDTO `json:"notifications"`
	NextCursor    string            `json:"next_cursor,omitempty"`
}

type NotificationDTO struct {
	ID        string `json:"id"`
	Scope     string `json:"scope"`
	EventType string `json:"event_type"`
	Payload   string `json:"payload"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
