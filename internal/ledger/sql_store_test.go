package ledger

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffle-5050/internal/models"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewSQLStore(conn), mock
}

var registrationColumns = []string{
	"id", "name", "email", "phone", "ticket_count", "first_ticket", "last_ticket", "total_paid", "payment_method", "created_at",
}

func TestSQLStore_AllocateCommitsBlock(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT total_funds, tickets_sold, last_ticket_number FROM pool").
		WillReturnRows(sqlmock.NewRows([]string{"total_funds", "tickets_sold", "last_ticket_number"}).AddRow(84, 100, 100))
	mock.ExpectExec("INSERT INTO registrations").
		WithArgs("reg-1", "Jane", "j@x.com", "555-1212", 7, int64(101), int64(107), int64(6), "cash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE pool").
		WithArgs(int64(6), 7, int64(107), int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	record, pool, err := store.Allocate(context.Background(), "reg-1", models.Registration{
		Name: "Jane", Email: "j@x.com", Phone: "555-1212",
		TicketCount: 7, TotalPaid: 6, PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{101, 102, 103, 104, 105, 106, 107}, record.TicketNumbers())
	assert.Equal(t, models.Pool{TotalFunds: 90, TicketsSold: 107, LastTicketNumber: 107}, pool)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_AllocateRollsBackWhenPoolMoved(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT total_funds, tickets_sold, last_ticket_number FROM pool").
		WillReturnRows(sqlmock.NewRows([]string{"total_funds", "tickets_sold", "last_ticket_number"}).AddRow(0, 0, 0))
	mock.ExpectExec("INSERT INTO registrations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE pool").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, _, err := store.Allocate(context.Background(), "reg-2", registration("x", 1))
	assert.ErrorIs(t, err, ErrConcurrentAllocation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_AllocateRollsBackOnInsertError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT total_funds, tickets_sold, last_ticket_number FROM pool").
		WillReturnRows(sqlmock.NewRows([]string{"total_funds", "tickets_sold", "last_ticket_number"}).AddRow(0, 0, 0))
	mock.ExpectExec("INSERT INTO registrations").WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	_, _, err := store.Allocate(context.Background(), "reg-3", registration("x", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert registration")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_AllocateRefusesExhaustedRange(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT total_funds, tickets_sold, last_ticket_number FROM pool").
		WillReturnRows(sqlmock.NewRows([]string{"total_funds", "tickets_sold", "last_ticket_number"}).AddRow(10, 3, int64(math.MaxInt64-2)))
	mock.ExpectRollback()

	_, _, err := store.Allocate(context.Background(), "reg-4", registration("x", 5))
	assert.ErrorIs(t, err, ErrTicketRangeExhausted)
	assert.NoError(t, mock.ExpectationsWereMet(), "nothing is written once the range is exhausted")
}

func TestSQLStore_Pool(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT total_funds, tickets_sold, last_ticket_number FROM pool").
		WillReturnRows(sqlmock.NewRows([]string{"total_funds", "tickets_sold", "last_ticket_number"}).AddRow(15, 17, 17))

	pool, err := store.Pool(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Pool{TotalFunds: 15, TicketsSold: 17, LastTicketNumber: 17}, pool)
}

func TestSQLStore_OwnerByRange(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM registrations").
		WithArgs(int64(104), int64(104)).
		WillReturnRows(sqlmock.NewRows(registrationColumns).
			AddRow("reg-1", "Jane", "j@x.com", "555-1212", 7, 101, 107, 6, "venmo", "2026-10-14T03:00:00Z"))

	owner, err := store.Owner(context.Background(), 104)
	require.NoError(t, err)
	assert.Equal(t, "Jane", owner.Name)
	assert.Equal(t, models.PaymentVenmo, owner.PaymentMethod)
	assert.True(t, owner.Owns(104))
	assert.Equal(t, 2026, owner.CreatedAt.Year())
}

func TestSQLStore_OwnerMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM registrations").
		WithArgs(int64(9), int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := store.Owner(context.Background(), 9)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSQLStore_RecordDraw(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO draws").
		WithArgs(int64(5), "reg-1", int64(90)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.RecordDraw(context.Background(), 5, "reg-1", 90))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_ListRegistrations(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM registrations").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(registrationColumns).
			AddRow("reg-2", "Bob", "b@x.com", "555-2", 1, 8, 8, 1, "cash", "2026-10-14 03:05:00").
			AddRow("reg-1", "Ann", "a@x.com", "555-1", 7, 1, 7, 6, "venmo", "2026-10-14T03:00:00Z"))

	list, err := store.ListRegistrations(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bob", list[0].Name)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7}, list[1].TicketNumbers())
	assert.False(t, list[0].CreatedAt.IsZero())
}
