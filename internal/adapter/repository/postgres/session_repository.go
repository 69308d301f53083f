package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.ClassSession) error {
	query := `
	INSERT INTO class_sessions (id, title, capacity, booked_count, starts_at, ends_at, base_price,
		early_bird_price, early_bird_deadline, is_cancelled, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	var earlyBird decimal.NullDecimal
	if s.EarlyBirdPrice != nil {
		earlyBird = decimal.NewNullDecimal(*s.EarlyBirdPrice)
	}

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		s.ID, s.Title, s.Capacity, s.BookedCount, s.StartsAt, s.EndsAt, s.BasePrice,
		earlyBird, s.EarlyBirdDeadline, s.IsCancelled, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert class session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (*domain.ClassSession, error) {
	query := `
	SELECT id, title, capacity, booked_count, starts_at, ends_at, base_price,
		early_bird_price, early_bird_deadline, is_cancelled, created_at, updated_at
	FROM class_sessions
	WHERE id = $1
	`

	var s domain.ClassSession
	var earlyBird decimal.NullDecimal
	var deadline sql.NullTime

	err := conn(ctx, r.db).QueryRowContext(ctx, query, sessionID).Scan(
		&s.ID,
		&s.Title,
		&s.Capacity,
		&s.BookedCount,
		&s.StartsAt,
		&s.EndsAt,
		&s.BasePrice,
		&earlyBird,
		&deadline,
		&s.IsCancelled,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	if earlyBird.Valid {
		s.EarlyBirdPrice = &earlyBird.Decimal
	}
	if deadline.Valid {
		s.EarlyBirdDeadline = &deadline.Time
	}

	return &s, nil
}

// ReserveSeat is a single conditional increment; concurrent callers racing
// for the last seat get exactly one winner.
func (r *SessionRepository) ReserveSeat(ctx context.Context, sessionID uuid.UUID) error {
	query := `
	UPDATE class_sessions
	SET booked_count = booked_count + 1,
		updated_at = NOW()
	WHERE id = $1 AND booked_count < capacity AND NOT is_cancelled
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, sessionID)
	if err != nil {
		return err
	}

	n, err := affected(result)
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	s, err := r.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.IsCancelled {
		return domain.ErrSessionCancelled
	}
	return domain.ErrCapacityExceeded
}

func (r *SessionRepository) ReleaseSeat(ctx context.Context, sessionID uuid.UUID) error {
	query := `
	UPDATE class_sessions
	SET booked_count = booked_count - 1,
		updated_at = NOW()
	WHERE id = $1 AND booked_count > 0
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, sessionID)
	if err != nil {
		return err
	}

	n, err := affected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, sessionID); err != nil {
			return err
		}
	}
	return nil
}
