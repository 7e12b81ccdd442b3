package message

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pediacare/api/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const messageCols = `id, appointment_id, sender_id, receiver_id, content, message_type,
	file_url, sticker_url, read_at, created_at`

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(
		&m.ID, &m.AppointmentID, &m.SenderID, &m.ReceiverID, &m.Content, &m.MessageType,
		&m.FileURL, &m.StickerURL, &m.ReadAt, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *repoPG) Create(ctx context.Context, m *Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO messages (
			id, appointment_id, sender_id, receiver_id, content, message_type, file_url, sticker_url
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		m.ID, m.AppointmentID, m.SenderID, m.ReceiverID, m.Content, m.MessageType, m.FileURL, m.StickerURL,
	).Scan(&m.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	return scanMessage(r.conn(ctx).QueryRow(ctx,
		`SELECT `+messageCols+` FROM messages WHERE id = $1`, id))
}

func (r *repoPG) ListBetween(ctx context.Context, userA, userB uuid.UUID, limit, offset int) ([]*Message, int, error) {
	const pair = `(sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE `+pair, userA, userB).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+messageCols+` FROM messages WHERE `+pair+`
		 ORDER BY created_at, id LIMIT $3 OFFSET $4`, userA, userB, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, m)
	}
	return messages, total, rows.Err()
}

func (r *repoPG) Conversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT DISTINCT ON (partner_id) partner_id, `+messageCols+` FROM (
			SELECT *, CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS partner_id
			FROM messages
			WHERE sender_id = $1 OR receiver_id = $1
		) exchange
		ORDER BY partner_id, created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		var partnerID uuid.UUID
		var m Message
		if err := rows.Scan(
			&partnerID,
			&m.ID, &m.AppointmentID, &m.SenderID, &m.ReceiverID, &m.Content, &m.MessageType,
			&m.FileURL, &m.StickerURL, &m.ReadAt, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		conversations = append(conversations, &Conversation{PartnerID: partnerID, LastMessage: &m})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	unread, err := r.unreadByPartner(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range conversations {
		c.UnreadCount = unread[c.PartnerID]
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastMessage.CreatedAt.After(conversations[j].LastMessage.CreatedAt)
	})
	return conversations, nil
}

func (r *repoPG) unreadByPartner(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT sender_id, COUNT(*) FROM messages
		WHERE receiver_id = $1 AND read_at IS NULL
		GROUP BY sender_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	unread := make(map[uuid.UUID]int)
	for rows.Next() {
		var senderID uuid.UUID
		var count int
		if err := rows.Scan(&senderID, &count); err != nil {
			return nil, err
		}
		unread[senderID] = count
	}
	return unread, rows.Err()
}

func (r *repoPG) MarkRead(ctx context.Context, readerID, partnerID uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE messages SET read_at = NOW()
		WHERE receiver_id = $1 AND sender_id = $2 AND read_at IS NULL`, readerID, partnerID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *repoPG) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND read_at IS NULL`, userID).Scan(&count)
	return count, err
}
