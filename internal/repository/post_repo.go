package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gradnet/internal/domain"
)

type PostRepository interface {
	Create(ctx context.Context, post domain.Post) error
	GetByID(ctx context.Context, id string) (domain.Post, bool, error)
	ListRecent(ctx context.Context, authorID string, page domain.Page) ([]domain.Post, int, error)
	Delete(ctx context.Context, id, authorID string) (bool, error)
}

type PgPostRepository struct {
	pool *pgxpool.Pool
}

func NewPgPostRepository(pool *pgxpool.Pool) *PgPostRepository {
	return &PgPostRepository{pool: pool}
}

func (r *PgPostRepository) Create(ctx context.Context, post domain.Post) error {
	const query = `
		INSERT INTO posts (id, author_id, content, image_key, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := conn(ctx, r.pool).Exec(ctx, query,
		post.ID,
		post.AuthorID,
		post.Content,
		post.ImageKey,
		post.CreatedAt,
	)
	return err
}

func (r *PgPostRepository) GetByID(ctx context.Context, id string) (domain.Post, bool, error) {
	const query = `
		SELECT p.id, p.author_id, u.name, p.content, p.image_key, p.created_at
		FROM posts p JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`
	var p domain.Post
	err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.AuthorID,
		&p.AuthorName,
		&p.Content,
		&p.ImageKey,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Post{}, false, nil
	}
	if err != nil {
		return domain.Post{}, false, err
	}
	return p, true, nil
}

// ListRecent devuelve el feed mas reciente; authorID vacio lista todos.
func (r *PgPostRepository) ListRecent(ctx context.Context, authorID string, page domain.Page) ([]domain.Post, int, error) {
	const query = `
		SELECT p.id, p.author_id, u.name, p.content, p.image_key, p.created_at, COUNT(*) OVER() AS total
		FROM posts p JOIN users u ON u.id = p.author_id
		WHERE ($1 = '' OR p.author_id::text = $1)
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, authorID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		posts []domain.Post
		total int
	)
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.Content, &p.ImageKey, &p.CreatedAt, &total); err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	total, err = totalPastEnd(ctx, conn(ctx, r.pool), total, len(posts), page,
		`SELECT COUNT(*) FROM posts WHERE ($1 = '' OR author_id::text = $1)`, authorID)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Delete borra el post solo si pertenece a authorID.
func (r *PgPostRepository) Delete(ctx context.Context, id, authorID string) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM posts WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
