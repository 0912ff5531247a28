package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gradnet/internal/domain"
)

// ErrDuplicate indica que ya existe un registro con la misma clave unica.
var ErrDuplicate = errors.New("duplicate key")

const uniqueViolation = "23505"

// UserRepository define el contrato de persistencia para usuarios.
// Las lecturas devuelven found=false cuando el usuario no existe.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, bool, error)
	GetByUSN(ctx context.Context, usn string) (domain.User, bool, error)
	GetByEmail(ctx context.Context, email string) (domain.User, bool, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate, at time.Time) (domain.User, bool, error)
	Search(ctx context.Context, filter domain.UserFilter, page domain.Page) ([]domain.User, int, error)
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, usn, name, email, password_hash, role, bio, department, graduation_year,
	phone, social_link, picture_key, banner_key, last_login, created_at, updated_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, usn, name, email, password_hash, role, bio, department, graduation_year,
			phone, social_link, picture_key, banner_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := conn(ctx, r.pool).Exec(ctx, query,
		user.ID,
		user.USN,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.Bio,
		user.Department,
		user.GraduationYear,
		user.Phone,
		user.SocialLink,
		user.PictureKey,
		user.BannerKey,
		user.CreatedAt,
		user.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, bool, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PgUserRepository) GetByUSN(ctx context.Context, usn string) (domain.User, bool, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE usn = $1`, usn)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PgUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET last_login = $2 WHERE id = $1`
	_, err := conn(ctx, r.pool).Exec(ctx, query, id, at)
	return err
}

func (r *PgUserRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate, at time.Time) (domain.User, bool, error) {
	query := `
		UPDATE users SET
			name = COALESCE($2, name),
			bio = COALESCE($3, bio),
			department = COALESCE($4, department),
			graduation_year = COALESCE($5, graduation_year),
			phone = COALESCE($6, phone),
			social_link = COALESCE($7, social_link),
			picture_key = COALESCE($8, picture_key),
			banner_key = COALESCE($9, banner_key),
			updated_at = $10
		WHERE id = $1
		RETURNING ` + userColumns
	return r.getOne(ctx, query,
		id,
		update.Name,
		update.Bio,
		update.Department,
		update.GraduationYear,
		update.Phone,
		update.SocialLink,
		update.PictureKey,
		update.BannerKey,
		at,
	)
}

func (r *PgUserRepository) Search(ctx context.Context, filter domain.UserFilter, page domain.Page) ([]domain.User, int, error) {
	query := `
		SELECT ` + userColumns + `, COUNT(*) OVER() AS total
		FROM users
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR usn ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR role = $2)
		  AND ($3 = '' OR department ILIKE $3)
		ORDER BY name ASC
		LIMIT $4 OFFSET $5
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query,
		filter.Query,
		string(filter.Role),
		filter.Department,
		page.Limit,
		page.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		users []domain.User
		total int
	)
	for rows.Next() {
		var u domain.User
		dest := append(userDest(&u), &total)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	total, err = totalPastEnd(ctx, conn(ctx, r.pool), total, len(users), page, `
		SELECT COUNT(*) FROM users
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR usn ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR role = $2)
		  AND ($3 = '' OR department ILIKE $3)
	`, filter.Query, string(filter.Role), filter.Department)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *PgUserRepository) getOne(ctx context.Context, query string, args ...any) (domain.User, bool, error) {
	var u domain.User
	err := conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(userDest(&u)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return u, true, nil
}

func userDest(u *domain.User) []any {
	return []any{
		&u.ID,
		&u.USN,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Bio,
		&u.Department,
		&u.GraduationYear,
		&u.Phone,
		&u.SocialLink,
		&u.PictureKey,
		&u.BannerKey,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	}
}
