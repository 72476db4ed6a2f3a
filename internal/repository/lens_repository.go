package repository

import (
	"context"
	"database/sql"
	"fmt"

	"lenstrack/backend/internal/model"
)

const lensColumns = `id, user_id, manufacturer, brand, wear_period_title, wear_period_days,
	        usage_period_days, discard_date, status, opened_date, sphere,
	        base_curve_radius, accumulated_usage_ms, last_resumed_at, created_at, updated_at`

type LensRepository struct {
	db *sql.DB
}

func NewLensRepository(db *sql.DB) *LensRepository {
	return &LensRepository{db: db}
}

func (r *LensRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

// ListByUser returns all of the user's lenses, most recently opened first.
func (r *LensRepository) ListByUser(ctx context.Context, userID string) ([]model.Lens, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+lensColumns+`
		 FROM lenses
		 WHERE user_id = ?
		 ORDER BY opened_date DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lenses: %w", err)
	}
	defer rows.Close()

	var lenses []model.Lens
	for rows.Next() {
		lens, scanErr := scanLens(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		lenses = append(lenses, *lens)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lenses: %w", err)
	}
	return lenses, nil
}

func (r *LensRepository) GetTx(ctx context.Context, tx *sql.Tx, userID, id string) (*model.Lens, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT `+lensColumns+`
		 FROM lenses
		 WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	return scanLens(row)
}

// CurrentTx finds the user's lens with status in-use, if any. The current lens
// is always derived from the collection this way, never cached separately.
func (r *LensRepository) CurrentTx(ctx context.Context, tx *sql.Tx, userID string) (*model.Lens, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT `+lensColumns+`
		 FROM lenses
		 WHERE user_id = ? AND status = ?
		 LIMIT 1`,
		userID,
		model.StatusInUse,
	)
	return scanLens(row)
}

func (r *LensRepository) InsertTx(ctx context.Context, tx *sql.Tx, lens *model.Lens) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO lenses (
			id, user_id, manufacturer, brand, wear_period_title, wear_period_days,
			usage_period_days, discard_date, status, opened_date, sphere,
			base_curve_radius, accumulated_usage_ms, last_resumed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lens.ID,
		lens.UserID,
		lens.Manufacturer,
		lens.Brand,
		lens.WearPeriodTitle,
		lens.WearPeriodDays,
		lens.UsagePeriodDays,
		nullable(lens.DiscardDate),
		string(lens.Status),
		nullable(lens.OpenedDate),
		lens.Sphere,
		lens.BaseCurveRadius,
		lens.AccumulatedUsageMs,
		nullable(lens.LastResumedAt),
		formatTime(lens.CreatedAt),
		formatTime(lens.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert lens: %w", err)
	}
	return nil
}

func (r *LensRepository) UpdateTx(ctx context.Context, tx *sql.Tx, lens *model.Lens) error {
	result, err := tx.ExecContext(
		ctx,
		`UPDATE lenses
		 SET manufacturer = ?,
		     brand = ?,
		     wear_period_title = ?,
		     wear_period_days = ?,
		     usage_period_days = ?,
		     discard_date = ?,
		     status = ?,
		     opened_date = ?,
		     sphere = ?,
		     base_curve_radius = ?,
		     accumulated_usage_ms = ?,
		     last_resumed_at = ?,
		     updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		lens.Manufacturer,
		lens.Brand,
		lens.WearPeriodTitle,
		lens.WearPeriodDays,
		lens.UsagePeriodDays,
		nullable(lens.DiscardDate),
		string(lens.Status),
		nullable(lens.OpenedDate),
		lens.Sphere,
		lens.BaseCurveRadius,
		lens.AccumulatedUsageMs,
		nullable(lens.LastResumedAt),
		formatTime(lens.UpdatedAt),
		lens.ID,
		lens.UserID,
	)
	if err != nil {
		return fmt.Errorf("update lens: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lens rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *LensRepository) DeleteTx(ctx context.Context, tx *sql.Tx, userID, id string) error {
	result, err := tx.ExecContext(
		ctx,
		`DELETE FROM lenses WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	if err != nil {
		return fmt.Errorf("delete lens: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete lens rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// nullable maps the model's empty-string-means-absent convention onto SQL NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func scanLens(s scanner) (*model.Lens, error) {
	lens := model.Lens{}
	var status string
	var discardDate sql.NullString
	var openedDate sql.NullString
	var lastResumedAt sql.NullString
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&lens.ID,
		&lens.UserID,
		&lens.Manufacturer,
		&lens.Brand,
		&lens.WearPeriodTitle,
		&lens.WearPeriodDays,
		&lens.UsagePeriodDays,
		&discardDate,
		&status,
		&openedDate,
		&lens.Sphere,
		&lens.BaseCurveRadius,
		&lens.AccumulatedUsageMs,
		&lastResumedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan lens: %w", err)
	}

	// Nullable timestamps stay raw strings; the wear calculators normalize
	// whatever is stored, so a corrupt row never fails the read path.
	lens.Status = model.Status(status)
	lens.DiscardDate = discardDate.String
	lens.OpenedDate = openedDate.String
	lens.LastResumedAt = lastResumedAt.String

	parsedCreatedAt, parseErr := parseTime(createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parse lens created_at: %w", parseErr)
	}
	lens.CreatedAt = parsedCreatedAt

	parsedUpdatedAt, parseErr := parseTime(updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parse lens updated_at: %w", parseErr)
	}
	lens.UpdatedAt = parsedUpdatedAt

	return &lens, nil
}
