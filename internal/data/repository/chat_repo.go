package repository

import (
	"context"
	"fmt"

	"salon-booking/internal/data/entity"
	"salon-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatSummary is a chat row joined with its counterpart and unread count.
type ChatSummary struct {
	entity.Chat
	SalonName    string
	CustomerName string
	LastMessage  *string
	UnreadCount  int64
}

type ChatRepository interface {
	// GetOrCreate returns the single chat between customer and salon.
	GetOrCreate(ctx context.Context, customerID, salonID uuid.UUID) (*entity.Chat, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Chat, error)
	Find(ctx context.Context, customerID, salonID uuid.UUID) (*entity.Chat, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*ChatSummary, error)
	ListBySalon(ctx context.Context, salonID uuid.UUID) ([]*ChatSummary, error)

	AddMessage(ctx context.Context, msg *entity.Message) error
	FindMessage(ctx context.Context, id uuid.UUID) (*entity.Message, error)
	ListMessages(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]*entity.Message, error)
	// MarkRead marks messages in the chat not sent by reader as read.
	MarkRead(ctx context.Context, chatID uuid.UUID, reader entity.SenderType) (int64, error)
	MarkMessageRead(ctx context.Context, id uuid.UUID) error
}

type chatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewChatRepository(db database.PgxIface, log *zap.Logger) ChatRepository {
	return &chatRepository{
		db:  db,
		log: log.With(zap.String("repository", "chat")),
	}
}

const chatColumns = `id, customer_id, salon_id, last_message_at, created_at, updated_at`

func scanChat(row rowScanner) (*entity.Chat, error) {
	var c entity.Chat
	if err := row.Scan(&c.ID, &c.CustomerID, &c.SalonID, &c.LastMessageAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *chatRepository) GetOrCreate(ctx context.Context, customerID, salonID uuid.UUID) (*entity.Chat, error) {
	query := `
		INSERT INTO chats (id, customer_id, salon_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (customer_id, salon_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
		RETURNING ` + chatColumns

	chat, err := scanChat(r.db.QueryRow(ctx, query, uuid.New(), customerID, salonID))
	if err != nil {
		r.log.Error("Failed to get or create chat",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
			zap.String("salon_id", salonID.String()),
		)
		return nil, fmt.Errorf("get or create chat: %w", err)
	}

	return chat, nil
}

func (r *chatRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Chat, error) {
	chat, err := scanChat(r.db.QueryRow(ctx, `SELECT `+chatColumns+` FROM chats WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find chat", zap.Error(err), zap.String("chat_id", id.String()))
		return nil, fmt.Errorf("find chat %s: %w", id.String(), err)
	}
	return chat, nil
}

func (r *chatRepository) Find(ctx context.Context, customerID, salonID uuid.UUID) (*entity.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE customer_id = $1 AND salon_id = $2`

	chat, err := scanChat(r.db.QueryRow(ctx, query, customerID, salonID))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find chat", zap.Error(err))
		return nil, fmt.Errorf("find chat of customer %s and salon %s: %w", customerID.String(), salonID.String(), err)
	}
	return chat, nil
}

func (r *chatRepository) listSummaries(ctx context.Context, where string, unreadFrom entity.SenderType, id uuid.UUID) ([]*ChatSummary, error) {
	query := `
		SELECT c.id, c.customer_id, c.salon_id, c.last_message_at, c.created_at, c.updated_at,
		       s.name, COALESCE(NULLIF(u.full_name, ''), u.username),
		       (SELECT m.content FROM messages m WHERE m.chat_id = c.id ORDER BY m.created_at DESC LIMIT 1),
		       (SELECT COUNT(*) FROM messages m WHERE m.chat_id = c.id AND m.is_read = false AND m.sender_type = $2)
		FROM chats c
		JOIN salons s ON s.id = c.salon_id
		JOIN users u ON u.id = c.customer_id
		WHERE ` + where + `
		ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, id, unreadFrom)
	if err != nil {
		r.log.Error("Failed to list chats", zap.Error(err), zap.String("owner_id", id.String()))
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []*ChatSummary
	for rows.Next() {
		var c ChatSummary
		err := rows.Scan(
			&c.ID,
			&c.CustomerID,
			&c.SalonID,
			&c.LastMessageAt,
			&c.CreatedAt,
			&c.UpdatedAt,
			&c.SalonName,
			&c.CustomerName,
			&c.LastMessage,
			&c.UnreadCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chat row: %w", err)
		}
		chats = append(chats, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat rows: %w", err)
	}

	return chats, nil
}

func (r *chatRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*ChatSummary, error) {
	return r.listSummaries(ctx, "c.customer_id = $1", entity.SenderSalon, customerID)
}

func (r *chatRepository) ListBySalon(ctx context.Context, salonID uuid.UUID) ([]*ChatSummary, error) {
	return r.listSummaries(ctx, "c.salon_id = $1", entity.SenderCustomer, salonID)
}

func (r *chatRepository) AddMessage(ctx context.Context, msg *entity.Message) error {
	query := `
		WITH inserted AS (
			INSERT INTO messages (id, chat_id, sender_id, sender_type, message_type, content, is_read, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, false, $7)
			RETURNING chat_id, created_at
		)
		UPDATE chats SET last_message_at = inserted.created_at, updated_at = NOW()
		FROM inserted
		WHERE chats.id = inserted.chat_id
	`

	_, err := r.db.Exec(ctx, query,
		msg.ID,
		msg.ChatID,
		msg.SenderID,
		msg.SenderType,
		msg.MessageType,
		msg.Content,
		msg.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to add message", zap.Error(err), zap.String("chat_id", msg.ChatID.String()))
		return fmt.Errorf("add message to chat %s: %w", msg.ChatID.String(), err)
	}

	return nil
}

const messageColumns = `id, chat_id, sender_id, sender_type, message_type, content, is_read, read_at, created_at`

func scanMessage(row rowScanner) (*entity.Message, error) {
	var m entity.Message
	err := row.Scan(
		&m.ID,
		&m.ChatID,
		&m.SenderID,
		&m.SenderType,
		&m.MessageType,
		&m.Content,
		&m.IsRead,
		&m.ReadAt,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *chatRepository) FindMessage(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	msg, err := scanMessage(r.db.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find message", zap.Error(err), zap.String("message_id", id.String()))
		return nil, fmt.Errorf("find message %s: %w", id.String(), err)
	}
	return msg, nil
}

func (r *chatRepository) ListMessages(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]*entity.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, chatID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list messages", zap.Error(err), zap.String("chat_id", chatID.String()))
		return nil, fmt.Errorf("list messages of chat %s: %w", chatID.String(), err)
	}
	defer rows.Close()

	var messages []*entity.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	return messages, nil
}

func (r *chatRepository) MarkRead(ctx context.Context, chatID uuid.UUID, reader entity.SenderType) (int64, error) {
	query := `
		UPDATE messages
		SET is_read = true, read_at = NOW()
		WHERE chat_id = $1 AND sender_type <> $2 AND is_read = false
	`

	result, err := r.db.Exec(ctx, query, chatID, reader)
	if err != nil {
		r.log.Error("Failed to mark chat read", zap.Error(err), zap.String("chat_id", chatID.String()))
		return 0, fmt.Errorf("mark chat %s read: %w", chatID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *chatRepository) MarkMessageRead(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE messages SET is_read = true, read_at = COALESCE(read_at, NOW()) WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		r.log.Error("Failed to mark message read", zap.Error(err), zap.String("message_id", id.String()))
		return fmt.Errorf("mark message %s read: %w", id.String(), err)
	}

	return nil
}
