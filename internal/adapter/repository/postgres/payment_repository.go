package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Append(ctx context.Context, rec *domain.PaymentRecord) error {
	query := `
	INSERT INTO payment_records (id, booking_id, package_instance_id, amount, method, recorded_by, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		rec.ID, nullUUID(rec.BookingID), nullUUID(rec.PackageInstanceID), rec.Amount,
		rec.Method, rec.RecordedBy, string(rec.Status), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment record: %w", err)
	}
	return nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.PaymentRecord, error) {
	return r.list(ctx, `booking_id = $1`, bookingID)
}

func (r *PaymentRepository) ListByPackage(ctx context.Context, instanceID uuid.UUID) ([]domain.PaymentRecord, error) {
	return r.list(ctx, `package_instance_id = $1`, instanceID)
}

func (r *PaymentRepository) list(ctx context.Context, where string, id uuid.UUID) ([]domain.PaymentRecord, error) {
	query := `
	SELECT id, booking_id, package_instance_id, amount, method, recorded_by, status, created_at
	FROM payment_records
	WHERE ` + where + `
	ORDER BY created_at ASC
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PaymentRecord
	for rows.Next() {
		var rec domain.PaymentRecord
		var booking, instance uuid.NullUUID
		if err := rows.Scan(&rec.ID, &booking, &instance, &rec.Amount, &rec.Method, &rec.RecordedBy, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.BookingID = nullableUUID(booking)
		rec.PackageInstanceID = nullableUUID(instance)
		records = append(records, rec)
	}

	return records, rows.Err()
}

func nullableUUID(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}
