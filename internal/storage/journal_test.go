package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suspectuso/mc-currency/internal/domain/models"
)

func newMockJournal(t *testing.T) (*Journal, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewJournal(db), mock
}

func TestJournal_MarkEventProcessed(t *testing.T) {
	j, mock := newMockJournal(t)
	ctx := context.Background()
	query := regexp.QuoteMeta("INSERT OR IGNORE INTO processed_events (event_id, received_at) VALUES (?, ?)")

	mock.ExpectExec(query).WithArgs("evt-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(query).WithArgs("evt-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))

	isNew, err := j.MarkEventProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = j.MarkEventProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, isNew)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_MarkEventProcessedError(t *testing.T) {
	j, mock := newMockJournal(t)
	mock.ExpectExec("INSERT OR IGNORE INTO processed_events").WillReturnError(sql.ErrConnDone)

	_, err := j.MarkEventProcessed(context.Background(), "evt-1")
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestJournal_ForgetEvent(t *testing.T) {
	j, mock := newMockJournal(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM processed_events WHERE event_id = ?")).
		WithArgs("evt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, j.ForgetEvent(context.Background(), "evt-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_RecordFinished(t *testing.T) {
	j, mock := newMockJournal(t)
	created := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	finished := created.Add(time.Hour)

	o := models.PendingOrder{
		OrderID:           "A100",
		Amount:            1_000_000,
		LotTitle:          "Монеты",
		Price:             99.5,
		Date:              created,
		MinecraftUsername: "Steve",
	}
	o.MarkCompleted(finished, "auto_bot", true)
	rec := models.OrderRecord{OrderID: "A100", BuyerID: 7, ChatID: "chat-7"}

	mock.ExpectExec("INSERT OR REPLACE INTO order_history").
		WithArgs("A100", "completed", int64(1_000_000), "Steve", "Монеты", 99.5, int64(7), "chat-7",
			created.Unix(), finished.Unix(), "auto_bot", true).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, j.RecordFinished(context.Background(), o, rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_RecordFinishedRejectsOpenOrders(t *testing.T) {
	j, mock := newMockJournal(t)

	err := j.RecordFinished(context.Background(), models.PendingOrder{OrderID: "A1", Status: models.StatusReadyForAdmin}, models.OrderRecord{})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_IsFinished(t *testing.T) {
	j, mock := newMockJournal(t)
	query := regexp.QuoteMeta("SELECT 1 FROM order_history WHERE order_id = ?")

	mock.ExpectQuery(query).WithArgs("A1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(query).WithArgs("B2").WillReturnError(sql.ErrNoRows)

	ok, err := j.IsFinished(context.Background(), "A1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = j.IsFinished(context.Background(), "B2")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_ListHistory(t *testing.T) {
	j, mock := newMockJournal(t)
	created := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"order_id", "status", "amount", "username", "lot_title", "price", "buyer_id", "chat_id",
		"created_at", "finished_at", "finished_by", "auto_completed",
	}).
		AddRow("A2", "cancelled", 5, nil, nil, nil, nil, nil, created.Unix(), created.Add(2*time.Hour).Unix(), "@admin", false).
		AddRow("A1", "completed", 1000, "Steve", "Монеты", 10.0, 7, "chat-7", created.Unix(), created.Add(time.Hour).Unix(), "auto_bot", true)

	mock.ExpectQuery("SELECT order_id, status").WithArgs(10).WillReturnRows(rows)

	entries, err := j.ListHistory(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "A2", entries[0].OrderID)
	assert.Equal(t, models.StatusCancelled, entries[0].Status)
	assert.Empty(t, entries[0].Username)
	assert.Equal(t, "@admin", entries[0].FinishedBy)

	assert.Equal(t, "Steve", entries[1].Username)
	assert.Equal(t, int64(7), entries[1].BuyerID)
	assert.True(t, entries[1].AutoCompleted)
	assert.Equal(t, created.Add(time.Hour).Unix(), entries[1].FinishedAt.Unix())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournal_SQLite(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer j.Close()
	ctx := context.Background()

	isNew, err := j.MarkEventProcessed(ctx, "order:A1")
	require.NoError(t, err)
	assert.True(t, isNew)
	isNew, err = j.MarkEventProcessed(ctx, "order:A1")
	require.NoError(t, err)
	assert.False(t, isNew)

	require.NoError(t, j.ForgetEvent(ctx, "order:A1"))
	isNew, err = j.MarkEventProcessed(ctx, "order:A1")
	require.NoError(t, err)
	assert.True(t, isNew)

	o := models.PendingOrder{OrderID: "A1", Amount: 10, Date: time.Now()}
	o.MarkCancelled(time.Now(), "@admin")
	require.NoError(t, j.RecordFinished(ctx, o, models.OrderRecord{OrderID: "A1"}))

	done, err := j.IsFinished(ctx, "A1")
	require.NoError(t, err)
	assert.True(t, done)

	entries, err := j.ListHistory(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "@admin", entries[0].FinishedBy)
}
