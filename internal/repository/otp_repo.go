package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gradnet/internal/domain"
)

// OTPRepository persiste codigos de un solo uso por correo.
type OTPRepository interface {
	// CreateForEmail borra los codigos previos del correo e inserta uno nuevo
	// en la misma transaccion.
	CreateForEmail(ctx context.Context, email, code, purpose string, ttl time.Duration) (domain.OTP, error)
	FindValid(ctx context.Context, email string, now time.Time) (domain.OTP, bool, error)
	MarkUsed(ctx context.Context, id string) error
	// MarkUsedIfValid consume el codigo solo si sigue sin usar y vigente.
	MarkUsedIfValid(ctx context.Context, id string, now time.Time) (bool, error)
	DeleteByEmail(ctx context.Context, email string) error
	PurgeStale(ctx context.Context, now time.Time) (int64, error)
}

type PgOTPRepository struct {
	pool *pgxpool.Pool
}

func NewPgOTPRepository(pool *pgxpool.Pool) *PgOTPRepository {
	return &PgOTPRepository{pool: pool}
}

func (r *PgOTPRepository) CreateForEmail(ctx context.Context, email, code, purpose string, ttl time.Duration) (domain.OTP, error) {
	now := time.Now().UTC()
	otp := domain.OTP{
		ID:        uuid.NewString(),
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	err := withTx(ctx, r.pool, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.Exec(ctx, `DELETE FROM otps WHERE email = $1`, email); err != nil {
			return err
		}
		const insert = `
			INSERT INTO otps (id, email, otp_code, expires_at, is_used, purpose, created_at)
			VALUES ($1, $2, $3, $4, FALSE, $5, $6)
		`
		_, err := tx.Exec(ctx, insert,
			otp.ID,
			otp.Email,
			otp.Code,
			otp.ExpiresAt,
			otp.Purpose,
			otp.CreatedAt,
		)
		return err
	})
	if err != nil {
		return domain.OTP{}, err
	}
	return otp, nil
}

func (r *PgOTPRepository) FindValid(ctx context.Context, email string, now time.Time) (domain.OTP, bool, error) {
	const query = `
		SELECT id, email, otp_code, expires_at, is_used, purpose, created_at
		FROM otps
		WHERE email = $1 AND is_used = FALSE AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var otp domain.OTP
	err := conn(ctx, r.pool).QueryRow(ctx, query, email, now).Scan(
		&otp.ID,
		&otp.Email,
		&otp.Code,
		&otp.ExpiresAt,
		&otp.Used,
		&otp.Purpose,
		&otp.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.OTP{}, false, nil
	}
	if err != nil {
		return domain.OTP{}, false, err
	}
	return otp, true, nil
}

func (r *PgOTPRepository) MarkUsed(ctx context.Context, id string) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `UPDATE otps SET is_used = TRUE WHERE id = $1 AND is_used = FALSE`, id)
	return err
}

func (r *PgOTPRepository) MarkUsedIfValid(ctx context.Context, id string, now time.Time) (bool, error) {
	const query = `
		UPDATE otps SET is_used = TRUE
		WHERE id = $1 AND is_used = FALSE AND expires_at > $2
	`
	tag, err := conn(ctx, r.pool).Exec(ctx, query, id, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgOTPRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM otps WHERE email = $1`, email)
	return err
}

func (r *PgOTPRepository) PurgeStale(ctx context.Context, now time.Time) (int64, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM otps WHERE is_used = TRUE OR expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
