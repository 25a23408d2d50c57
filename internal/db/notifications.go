package db

import (
	"github.com/tgienger/coreterra/internal/models"
)

// AddNotification stores a new notification and returns it
func (db *DB) AddNotification(n models.Notification) (*models.Notification, error) {
	result, err := db.Exec(`
		INSERT INTO notifications (task_id, kind, message) VALUES (?, ?, ?)
	`, n.TaskID, n.Kind, n.Message)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetNotification(id)
}

// GetNotification retrieves a notification by ID
func (db *DB) GetNotification(id int64) (*models.Notification, error) {
	n := &models.Notification{}
	err := db.Get(n, `
		SELECT id, task_id, kind, message, read, created_at
		FROM notifications WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotifications returns up to limit notifications, newest first.
// A limit of 0 or less returns all of them.
func (db *DB) ListNotifications(limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = -1
	}
	var out []models.Notification
	err := db.Select(&out, `
		SELECT id, task_id, kind, message, read, created_at
		FROM notifications
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	return out, err
}

// UnreadNotifications counts notifications not yet marked read
func (db *DB) UnreadNotifications() (int, error) {
	var n int
	err := db.Get(&n, "SELECT COUNT(*) FROM notifications WHERE read = 0")
	return n, err
}

// MarkNotificationsRead marks every notification read
func (db *DB) MarkNotificationsRead() error {
	_, err := db.Exec("UPDATE notifications SET read = 1 WHERE read = 0")
	return err
}

// ClearNotifications deletes all notifications
func (db *DB) ClearNotifications() error {
	_, err := db.Exec("DELETE FROM notifications")
	return err
}
