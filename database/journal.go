package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"earnquest-bot/models"
)

// Journal is the local copy of every audit event the bot reported.
type Journal struct {
	db *sql.DB
}

func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Append stores one entry. CreatedAt defaults to now.
func (j *Journal) Append(ctx context.Context, entry models.JournalEntry) error {
	payload, err := json.Marshal(entry.Event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", entry.ID, err)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
    INSERT OR REPLACE INTO journal (id, event_type, payload, telegram_user_id, chat_id, delivered, created_at)
    VALUES (?, ?, ?, ?, ?, ?, ?);`
	_, err = j.db.ExecContext(ctx, query,
		entry.ID,
		entry.Event.Type,
		string(payload),
		nullInt(entry.Event.UserID),
		nullInt(entry.Event.ChatID),
		entry.Delivered,
		entry.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry %s: %w", entry.ID, err)
	}
	return nil
}

// MarkDelivered flags an entry as accepted by the backend.
func (j *Journal) MarkDelivered(ctx context.Context, id string) error {
	if _, err := j.db.ExecContext(ctx, `UPDATE journal SET delivered = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to mark journal entry %s delivered: %w", id, err)
	}
	return nil
}

// Query returns entries inside r, newest first. An empty eventType matches every type.
func (j *Journal) Query(ctx context.Context, r TimeRange, eventType string) ([]models.JournalEntry, error) {
	query := `SELECT id, payload, delivered, created_at FROM journal WHERE created_at >= ? AND created_at <= ?`
	args := []any{r.StartTime, r.EndTime}
	if eventType != "" {
		query += ` AND event_type = ?`
		args = append(args, eventType)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var out []models.JournalEntry
	for rows.Next() {
		var (
			e       models.JournalEntry
			payload string
			created int64
		)
		if err := rows.Scan(&e.ID, &payload, &e.Delivered, &created); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &e.Event); err != nil {
			return nil, fmt.Errorf("failed to decode journal entry %s: %w", e.ID, err)
		}
		e.CreatedAt = time.Unix(created, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountByType summarises entries inside r per event type.
func (j *Journal) CountByType(ctx context.Context, r TimeRange) (map[string]int, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT event_type, COUNT(*) FROM journal WHERE created_at >= ? AND created_at <= ? GROUP BY event_type`,
		r.StartTime, r.EndTime)
	if err != nil {
		return nil, fmt.Errorf("failed to count journal entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
