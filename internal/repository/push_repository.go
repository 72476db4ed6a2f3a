package repository

import (
	"context"
	"database/sql"
	"fmt"

	"lenstrack/backend/internal/model"
)

type PushRepository struct {
	db *sql.DB
}

func NewPushRepository(db *sql.DB) *PushRepository {
	return &PushRepository{db: db}
}

// Upsert registers a device endpoint for the user, refreshing the keys if the
// endpoint was already registered.
func (r *PushRepository) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, endpoint)
		 DO UPDATE SET p256dh = excluded.p256dh, auth = excluded.auth`,
		sub.ID,
		sub.UserID,
		sub.Endpoint,
		sub.P256DH,
		sub.Auth,
		formatTime(sub.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert push subscription: %w", err)
	}
	return nil
}

func (r *PushRepository) DeleteByEndpoint(ctx context.Context, userID, endpoint string) error {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM push_subscriptions WHERE user_id = ? AND endpoint = ?`,
		userID,
		endpoint,
	)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete push subscription rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PushRepository) ListByUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, endpoint, p256dh, auth, created_at
		 FROM push_subscriptions
		 WHERE user_id = ?
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		var sub model.PushSubscription
		var createdAt string
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256DH, &sub.Auth, &createdAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		parsedCreatedAt, parseErr := parseTime(createdAt)
		if parseErr != nil {
			return nil, fmt.Errorf("parse push subscription created_at: %w", parseErr)
		}
		sub.CreatedAt = parsedCreatedAt
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate push subscriptions: %w", err)
	}
	return subs, nil
}
