package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/suspectuso/mc-currency/internal/domain/models"
)

// Journal records processed inbound events and the history of finished orders
type Journal struct {
	db *sql.DB
}

// OpenJournal opens the sqlite database at dbPath and creates the schema
func OpenJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	j := &Journal{db: db}
	if err := j.init(); err != nil {
		db.Close()
		return nil, err
	}

	return j, nil
}

// NewJournal wraps an already opened database without touching the schema
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS processed_events (
			event_id TEXT PRIMARY KEY,
			received_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS order_history (
			order_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			amount INTEGER NOT NULL,
			username TEXT,
			lot_title TEXT,
			price REAL,
			buyer_id INTEGER,
			chat_id TEXT,
			created_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			finished_by TEXT,
			auto_completed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_history_finished_at ON order_history(finished_at)`,
	}

	for _, q := range queries {
		if _, err := j.db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

// --- Processed Events ---

// MarkEventProcessed marks an event as processed, returns true if it was new
func (j *Journal) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	result, err := j.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO processed_events (event_id, received_at) VALUES (?, ?)",
		eventID, time.Now().Unix(),
	)
	if err != nil {
		return false, err
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ForgetEvent removes an event mark so a redelivery of the event is accepted again
func (j *Journal) ForgetEvent(ctx context.Context, eventID string) error {
	_, err := j.db.ExecContext(ctx, "DELETE FROM processed_events WHERE event_id = ?", eventID)
	return err
}

// --- Order History ---

// RecordFinished archives an order that reached a terminal state
func (j *Journal) RecordFinished(ctx context.Context, o models.PendingOrder, rec models.OrderRecord) error {
	if !o.Status.Terminal() {
		return fmt.Errorf("order %s is not finished: %s", o.OrderID, o.Status)
	}

	h := historyFromOrder(o, rec)
	_, err := j.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO order_history
			(order_id, status, amount, username, lot_title, price, buyer_id, chat_id,
			 created_at, finished_at, finished_by, auto_completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.OrderID, string(h.Status), h.Amount, h.Username, h.LotTitle, h.Price, h.BuyerID, h.ChatID,
		h.CreatedAt.Unix(), h.FinishedAt.Unix(), h.FinishedBy, h.AutoCompleted,
	)
	return err
}

// IsFinished reports whether the order was archived
func (j *Journal) IsFinished(ctx context.Context, orderID string) (bool, error) {
	var one int
	err := j.db.QueryRowContext(ctx,
		"SELECT 1 FROM order_history WHERE order_id = ?",
		orderID,
	).Scan(&one)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListHistory returns the most recently finished orders
func (j *Journal) ListHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT order_id, status, amount, username, lot_title, price, buyer_id, chat_id,
		        created_at, finished_at, finished_by, auto_completed
		 FROM order_history ORDER BY finished_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		var status string
		var username, lotTitle, chatID, finishedBy sql.NullString
		var price sql.NullFloat64
		var buyerID sql.NullInt64
		var createdAt, finishedAt int64

		err := rows.Scan(&h.OrderID, &status, &h.Amount, &username, &lotTitle, &price, &buyerID, &chatID,
			&createdAt, &finishedAt, &finishedBy, &h.AutoCompleted)
		if err != nil {
			return nil, err
		}

		h.Status = models.Status(status)
		h.Username = username.String
		h.LotTitle = lotTitle.String
		h.Price = price.Float64
		h.BuyerID = buyerID.Int64
		h.ChatID = chatID.String
		h.FinishedBy = finishedBy.String
		h.CreatedAt = time.Unix(createdAt, 0)
		h.FinishedAt = time.Unix(finishedAt, 0)
		entries = append(entries, h)
	}

	return entries, rows.Err()
}
