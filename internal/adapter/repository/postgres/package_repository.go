package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

type PackageRepository struct {
	db *sql.DB
}

func NewPackageRepository(db *sql.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

const instanceColumns = `id, definition_id, member_id, type, credits_remaining, expire_at, status,
	payment_status, amount_due, amount_paid, evidence_ref, paid_at, created_at, updated_at`

func (r *PackageRepository) CreateDefinition(ctx context.Context, def *domain.PackageDefinition) error {
	query := `
	INSERT INTO package_definitions (id, name, type, credits, duration_days, price)
	VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		def.ID, def.Name, string(def.Type), nullInt(def.Credits), def.DurationDays, def.Price,
	)
	if err != nil {
		return fmt.Errorf("failed to insert package definition: %w", err)
	}
	return nil
}

func (r *PackageRepository) GetDefinition(ctx context.Context, definitionID uuid.UUID) (*domain.PackageDefinition, error) {
	query := `
	SELECT id, name, type, credits, duration_days, price
	FROM package_definitions
	WHERE id = $1
	`

	var def domain.PackageDefinition
	var credits sql.NullInt64
	err := conn(ctx, r.db).QueryRowContext(ctx, query, definitionID).Scan(
		&def.ID, &def.Name, &def.Type, &credits, &def.DurationDays, &def.Price,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, err
	}
	def.Credits = intPtr(credits)
	return &def, nil
}

func (r *PackageRepository) CreateInstance(ctx context.Context, inst *domain.PackageInstance) error {
	query := `
	INSERT INTO package_instances (` + instanceColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		inst.ID, inst.DefinitionID, inst.MemberID, string(inst.Type), nullInt(inst.CreditsRemaining),
		inst.ExpireAt, string(inst.Status), string(inst.Payment.Status), inst.Payment.AmountDue,
		inst.Payment.AmountPaid, nullString(inst.Payment.EvidenceRef), inst.Payment.PaidAt,
		inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert package instance: %w", err)
	}
	return nil
}

func (r *PackageRepository) GetInstance(ctx context.Context, instanceID uuid.UUID) (*domain.PackageInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM package_instances WHERE id = $1`
	return r.getInstance(ctx, query, instanceID)
}

func (r *PackageRepository) GetInstanceForUpdate(ctx context.Context, instanceID uuid.UUID) (*domain.PackageInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM package_instances WHERE id = $1 FOR UPDATE`
	return r.getInstance(ctx, query, instanceID)
}

func (r *PackageRepository) getInstance(ctx context.Context, query string, args ...any) (*domain.PackageInstance, error) {
	inst, err := scanInstance(conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, err
	}
	return inst, nil
}

func (r *PackageRepository) FindForBooking(ctx context.Context, memberID uuid.UUID, now time.Time) (*domain.PackageInstance, error) {
	usable := `
	SELECT ` + instanceColumns + `
	FROM package_instances
	WHERE member_id = $1
		AND status = 'active'
		AND expire_at > $2
		AND (type = 'unlimited' OR credits_remaining > 0)
	ORDER BY expire_at ASC
	LIMIT 1
	`

	inst, err := scanInstance(conn(ctx, r.db).QueryRowContext(ctx, usable, memberID, now))
	if err == nil {
		return inst, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	latest := `
	SELECT ` + instanceColumns + `
	FROM package_instances
	WHERE member_id = $1 AND status = 'active'
	ORDER BY created_at DESC
	LIMIT 1
	`

	inst, err = scanInstance(conn(ctx, r.db).QueryRowContext(ctx, latest, memberID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoActivePackage
		}
		return nil, err
	}
	return inst, nil
}

// ConsumeCredit decrements in place under the same predicate that makes an
// instance usable. Unlimited instances are touched but not decremented.
func (r *PackageRepository) ConsumeCredit(ctx context.Context, instanceID uuid.UUID, now time.Time) error {
	query := `
	UPDATE package_instances
	SET credits_remaining = CASE WHEN type = 'credit' THEN credits_remaining - 1 ELSE credits_remaining END,
		updated_at = $2
	WHERE id = $1
		AND status = 'active'
		AND expire_at > $2
		AND (type = 'unlimited' OR credits_remaining > 0)
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, instanceID, now)
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

	inst, err := r.GetInstance(ctx, instanceID)
	if err != nil {
		return err
	}
	if reason := inst.Unusable(now); reason != nil {
		return reason
	}
	return domain.ErrConcurrencyConflict
}

func (r *PackageRepository) RefundCredit(ctx context.Context, instanceID uuid.UUID) error {
	query := `
	UPDATE package_instances
	SET credits_remaining = credits_remaining + 1,
		updated_at = NOW()
	WHERE id = $1 AND type = 'credit'
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, instanceID)
	if err != nil {
		return err
	}

	n, err := affected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetInstance(ctx, instanceID); err != nil {
			return err
		}
	}
	return nil
}

func (r *PackageRepository) UpdatePayment(ctx context.Context, inst *domain.PackageInstance) error {
	query := `
	UPDATE package_instances
	SET payment_status = $2,
		amount_due = $3,
		amount_paid = $4,
		evidence_ref = $5,
		paid_at = $6,
		updated_at = $7
	WHERE id = $1
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		inst.ID, string(inst.Payment.Status), inst.Payment.AmountDue, inst.Payment.AmountPaid,
		nullString(inst.Payment.EvidenceRef), inst.Payment.PaidAt, inst.UpdatedAt,
	)
	if err != nil {
		return err
	}

	n, err := affected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}

func (r *PackageRepository) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	query := `
	UPDATE package_instances
	SET status = 'expired',
		updated_at = $1
	WHERE status = 'active' AND expire_at <= $1
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}

	n, err := affected(result)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func scanInstance(row scanner) (*domain.PackageInstance, error) {
	var inst domain.PackageInstance
	var credits sql.NullInt64
	var evidence sql.NullString
	var paidAt sql.NullTime

	err := row.Scan(
		&inst.ID,
		&inst.DefinitionID,
		&inst.MemberID,
		&inst.Type,
		&credits,
		&inst.ExpireAt,
		&inst.Status,
		&inst.Payment.Status,
		&inst.Payment.AmountDue,
		&inst.Payment.AmountPaid,
		&evidence,
		&paidAt,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inst.CreditsRemaining = intPtr(credits)
	inst.Payment.EvidenceRef = evidence.String
	inst.Payment.PaidAt = timePtr(paidAt)
	return &inst, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
