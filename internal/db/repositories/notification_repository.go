// notification_repository.go implements NotificationRepository, providing database
// queries for organization notifications and their state transitions.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docshost/docshost/internal/db/models"
)

// NotificationRepository handles database operations for notifications
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// GetByID retrieves a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	query := `
		SELECT id, organization_id, message_id, state, dismissable, format_values, created_at, updated_at
		FROM notifications
		WHERE id = $1
	`

	n := &models.Notification{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&n.ID,
		&n.OrganizationID,
		&n.MessageID,
		&n.State,
		&n.Dismissable,
		&n.FormatValues,
		&n.CreatedAt,
		&n.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

// ListPendingByOrganization retrieves an organization's unread and read
// notifications, most recent first. Dismissed and cancelled rows are excluded.
func (r *NotificationRepository) ListPendingByOrganization(ctx context.Context, orgID string) ([]*models.Notification, error) {
	query := `
		SELECT id, organization_id, message_id, state, dismissable, format_values, created_at, updated_at
		FROM notifications
		WHERE organization_id = $1 AND state IN ('unread', 'read')
		ORDER BY created_at DESC
	`

	return r.queryList(ctx, query, orgID)
}

// ListByOrganization retrieves all of an organization's notifications with
// pagination, most recent first
func (r *NotificationRepository) ListByOrganization(ctx context.Context, orgID string, limit, offset int) ([]*models.Notification, error) {
	query := `
		SELECT id, organization_id, message_id, state, dismissable, format_values, created_at, updated_at
		FROM notifications
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryList(ctx, query, orgID, limit, offset)
}

// Create creates a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (organization_id, message_id, state, dismissable, format_values)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		n.OrganizationID, n.MessageID, n.State, n.Dismissable, n.FormatValues,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// UpdateState transitions a notification to a new state
func (r *NotificationRepository) UpdateState(ctx context.Context, id, state string) error {
	if !models.ValidNotificationState(state) {
		return fmt.Errorf("invalid notification state: %s", state)
	}

	query := `UPDATE notifications SET state = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, state); err != nil {
		return fmt.Errorf("failed to update notification state: %w", err)
	}

	return nil
}

// CancelOlderThan cancels dismissable pending notifications created more than
// retentionDays ago and returns how many rows were affected. Used by the janitor.
func (r *NotificationRepository) CancelOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	query := `
		UPDATE notifications
		SET state = 'cancelled', updated_at = NOW()
		WHERE dismissable = true
		  AND state IN ('unread', 'read')
		  AND created_at < NOW() - ($1 * INTERVAL '1 day')
	`

	result, err := r.db.ExecContext(ctx, query, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel stale notifications: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected, nil
}

// queryList runs a notification SELECT and scans the result rows
func (r *NotificationRepository) queryList(ctx context.Context, query string, args ...interface{}) ([]*models.Notification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		n := &models.Notification{}
		err := rows.Scan(
			&n.ID,
			&n.OrganizationID,
			&n.MessageID,
			&n.State,
			&n.Dismissable,
			&n.FormatValues,
			&n.CreatedAt,
			&n.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}
