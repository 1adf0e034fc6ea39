package models

import "time"

// Notification tells a user that one of their stock batches expires soon.
// At most one notification exists per stock batch.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Stock     UserStock `json:"user_stock"`
	ReadYet   bool      `json:"read_yet"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationList is the notification inbox of one user.
type NotificationList struct {
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int             `json:"unread_count"`
}
