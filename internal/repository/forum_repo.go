package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gradnet/internal/domain"
)

type ForumRepository interface {
	CreateTopic(ctx context.Context, topic domain.ForumTopic) error
	GetTopic(ctx context.Context, id string) (domain.ForumTopic, bool, error)
	ListTopics(ctx context.Context, search, category string, page domain.Page) ([]domain.ForumTopic, int, error)
	CreateReply(ctx context.Context, reply domain.ForumReply) error
	ListReplies(ctx context.Context, topicID string, page domain.Page) ([]domain.ForumReply, int, error)
}

type PgForumRepository struct {
	pool *pgxpool.Pool
}

func NewPgForumRepository(pool *pgxpool.Pool) *PgForumRepository {
	return &PgForumRepository{pool: pool}
}

func (r *PgForumRepository) CreateTopic(ctx context.Context, topic domain.ForumTopic) error {
	const query = `
		INSERT INTO forum_topics (id, author_id, title, body, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := conn(ctx, r.pool).Exec(ctx, query,
		topic.ID,
		topic.AuthorID,
		topic.Title,
		topic.Body,
		topic.Category,
		topic.CreatedAt,
	)
	return err
}

const topicSelect = `
	SELECT t.id, t.author_id, u.name, t.title, t.body, t.category, t.created_at,
		(SELECT COUNT(*) FROM forum_replies fr WHERE fr.topic_id = t.id) AS reply_count
	FROM forum_topics t JOIN users u ON u.id = t.author_id
`

func (r *PgForumRepository) GetTopic(ctx context.Context, id string) (domain.ForumTopic, bool, error) {
	var t domain.ForumTopic
	err := conn(ctx, r.pool).QueryRow(ctx, topicSelect+` WHERE t.id = $1`, id).Scan(
		&t.ID,
		&t.AuthorID,
		&t.AuthorName,
		&t.Title,
		&t.Body,
		&t.Category,
		&t.CreatedAt,
		&t.ReplyCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ForumTopic{}, false, nil
	}
	if err != nil {
		return domain.ForumTopic{}, false, err
	}
	return t, true, nil
}

func (r *PgForumRepository) ListTopics(ctx context.Context, search, category string, page domain.Page) ([]domain.ForumTopic, int, error) {
	query := `
		SELECT id, author_id, author_name, title, body, category, created_at, reply_count, COUNT(*) OVER() AS total
		FROM (` + topicSelect + `
			WHERE ($1 = '' OR t.title ILIKE '%' || $1 || '%' OR t.body ILIKE '%' || $1 || '%')
			  AND ($2 = '' OR t.category = $2)
		) AS topics
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, search, category, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		topics []domain.ForumTopic
		total  int
	)
	for rows.Next() {
		var t domain.ForumTopic
		err := rows.Scan(
			&t.ID,
			&t.AuthorID,
			&t.AuthorName,
			&t.Title,
			&t.Body,
			&t.Category,
			&t.CreatedAt,
			&t.ReplyCount,
			&total,
		)
		if err != nil {
			return nil, 0, err
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	total, err = totalPastEnd(ctx, conn(ctx, r.pool), total, len(topics), page, `
		SELECT COUNT(*) FROM forum_topics t
		WHERE ($1 = '' OR t.title ILIKE '%' || $1 || '%' OR t.body ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR t.category = $2)
	`, search, category)
	if err != nil {
		return nil, 0, err
	}
	return topics, total, nil
}

func (r *PgForumRepository) CreateReply(ctx context.Context, reply domain.ForumReply) error {
	const query = `
		INSERT INTO forum_replies (id, topic_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := conn(ctx, r.pool).Exec(ctx, query,
		reply.ID,
		reply.TopicID,
		reply.AuthorID,
		reply.Body,
		reply.CreatedAt,
	)
	return err
}

func (r *PgForumRepository) ListReplies(ctx context.Context, topicID string, page domain.Page) ([]domain.ForumReply, int, error) {
	const query = `
		SELECT r.id, r.topic_id, r.author_id, u.name, r.body, r.created_at, COUNT(*) OVER() AS total
		FROM forum_replies r JOIN users u ON u.id = r.author_id
		WHERE r.topic_id = $1
		ORDER BY r.created_at ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, topicID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		replies []domain.ForumReply
		total   int
	)
	for rows.Next() {
		var reply domain.ForumReply
		if err := rows.Scan(&reply.ID, &reply.TopicID, &reply.AuthorID, &reply.AuthorName, &reply.Body, &reply.CreatedAt, &total); err != nil {
			return nil, 0, err
		}
		replies = append(replies, reply)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	total, err = totalPastEnd(ctx, conn(ctx, r.pool), total, len(replies), page,
		`SELECT COUNT(*) FROM forum_replies WHERE topic_id = $1`, topicID)
	if err != nil {
		return nil, 0, err
	}
	return replies, total, nil
}
