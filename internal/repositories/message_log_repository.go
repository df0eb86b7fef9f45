package repositories

import (
	"context"

	"krishi-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageLogRepository struct {
	DB *pgxpool.Pool
}

func NewMessageLogRepository(db *pgxpool.Pool) *MessageLogRepository {
	return &MessageLogRepository{DB: db}
}

func (r *MessageLogRepository) Create(ctx context.Context, m *models.MessageLog) error {
	var userID any
	if m.UserID != 0 {
		userID = m.UserID
	}
	return r.DB.QueryRow(ctx,
		`INSERT INTO message_logs(user_id, phone, message_type, message, status, error_message)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING id, created_at`,
		userID, m.Phone, m.MessageType, m.Message, m.Status, m.ErrorMessage,
	).Scan(&m.ID, &m.CreatedAt)
}

// List returns recent outbound messages for the admin dashboard
func (r *MessageLogRepository) List(ctx context.Context, limit int) ([]*models.MessageLog, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, COALESCE(user_id, 0), phone, message_type, message, status, COALESCE(error_message, ''), created_at
         FROM message_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.MessageLog
	for rows.Next() {
		var m models.MessageLog
		if err := rows.Scan(&m.ID, &m.UserID, &m.Phone, &m.MessageType, &m.Message,
			&m.Status, &m.ErrorMessage, &m.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &m)
	}
	return logs, rows.Err()
}
