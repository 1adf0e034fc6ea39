package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/pantry-engine/pkg/apperrors"
	"github.com/ekaya-inc/pantry-engine/pkg/database"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
)

// NotificationRepository defines the interface for expiry notification data access.
type NotificationRepository interface {
	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID int64) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	GetByID(ctx context.Context, userID, id int64) (*models.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
	// CreateForStock inserts a notification for the batch unless one exists.
	// It reports whether a row was created.
	CreateForStock(ctx context.Context, userID, stockID int64) (bool, error)
}

// notificationRepository implements NotificationRepository using PostgreSQL.
type notificationRepository struct{}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository() NotificationRepository {
	return &notificationRepository{}
}

const notificationSelect = `
	SELECT n.id, n.read_yet, n.created_at,
	       s.id, s.user_id, i.id, i.name, i.unit_of_measure,
	       s.quantity::float8, s.expiration_date, s.disable, s.date_added
	FROM notification n
	JOIN user_stock s ON s.id = n.user_stock_id
	JOIN ingredient i ON i.id = s.ingredient_id`

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	stock, err := scanStockColumns(row, &n.ID, &n.ReadYet, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.Stock = *stock
	n.UserID = stock.UserID
	return &n, nil
}

// ListByUser returns notifications of a user.
func (r *notificationRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Notification, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	rows, err := scope.Conn.Query(ctx, notificationSelect+`
		WHERE n.user_id = $1
		ORDER BY n.created_at DESC, n.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// CountUnread returns how many notifications the user has not read.
func (r *notificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no database scope in context")
	}

	var count int
	err := scope.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM notification WHERE user_id = $1 AND read_yet = FALSE`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// GetByID retrieves one notification owned by userID.
func (r *notificationRepository) GetByID(ctx context.Context, userID, id int64) (*models.Notification, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	n, err := scanNotification(scope.Conn.QueryRow(ctx, notificationSelect+`
		WHERE n.id = $1 AND n.user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("notification %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// MarkRead sets read_yet on one notification owned by userID.
func (r *notificationRepository) MarkRead(ctx context.Context, userID, id int64) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := scope.Conn.Exec(ctx,
		`UPDATE notification SET read_yet = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification %d: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

// CreateForStock inserts a notification for a batch, once.
func (r *notificationRepository) CreateForStock(ctx context.Context, userID, stockID int64) (bool, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return false, fmt.Errorf("no database scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `
		INSERT INTO notification (user_id, user_stock_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, user_stock_id) DO NOTHING`, userID, stockID)
	if err != nil {
		return false, fmt.Errorf("failed to create notification: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// Ensure notificationRepository implements NotificationRepository at compile time.
var _ NotificationRepository = (*notificationRepository)(nil)
