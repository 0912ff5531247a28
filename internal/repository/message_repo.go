package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gradnet/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message domain.DirectMessage) error
	ListConversation(ctx context.Context, userID, peerID string, page domain.Page) ([]domain.DirectMessage, int, error)
	ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error)
	MarkRead(ctx context.Context, userID, peerID string, at time.Time) error
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Create(ctx context.Context, message domain.DirectMessage) error {
	const query = `
		INSERT INTO direct_messages (id, sender_id, recipient_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := conn(ctx, r.pool).Exec(ctx, query,
		message.ID,
		message.SenderID,
		message.RecipientID,
		message.Body,
		message.CreatedAt,
	)
	return err
}

// ListConversation devuelve los mensajes entre dos usuarios, del mas nuevo al mas viejo.
func (r *PgMessageRepository) ListConversation(ctx context.Context, userID, peerID string, page domain.Page) ([]domain.DirectMessage, int, error) {
	const query = `
		SELECT id, sender_id, recipient_id, body, read_at, created_at, COUNT(*) OVER() AS total
		FROM direct_messages
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, userID, peerID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		messages []domain.DirectMessage
		total    int
	)
	for rows.Next() {
		var msg domain.DirectMessage
		err = rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.RecipientID,
			&msg.Body,
			&msg.ReadAt,
			&msg.CreatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	total, err = totalPastEnd(ctx, conn(ctx, r.pool), total, len(messages), page, `
		SELECT COUNT(*) FROM direct_messages
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
	`, userID, peerID)
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *PgMessageRepository) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	const query = `
		WITH pairs AS (
			SELECT CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END AS peer_id,
				body, created_at, recipient_id, read_at
			FROM direct_messages
			WHERE sender_id = $1 OR recipient_id = $1
		), last AS (
			SELECT DISTINCT ON (peer_id) peer_id, body, created_at
			FROM pairs
			ORDER BY peer_id, created_at DESC
		)
		SELECT l.peer_id, u.name, l.body, l.created_at,
			(SELECT COUNT(*) FROM pairs p WHERE p.peer_id = l.peer_id AND p.recipient_id = $1 AND p.read_at IS NULL)
		FROM last l JOIN users u ON u.id = l.peer_id
		ORDER BY l.created_at DESC
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.PeerID, &c.PeerName, &c.LastBody, &c.LastAt, &c.Unread); err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return conversations, nil
}

// MarkRead marca como leidos los mensajes que peerID envio a userID.
func (r *PgMessageRepository) MarkRead(ctx context.Context, userID, peerID string, at time.Time) error {
	const query = `
		UPDATE direct_messages SET read_at = $3
		WHERE recipient_id = $1 AND sender_id = $2 AND read_at IS NULL
	`
	_, err := conn(ctx, r.pool).Exec(ctx, query, userID, peerID, at)
	return err
}
