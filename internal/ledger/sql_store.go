package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"raffle-5050/internal/logger"
	"raffle-5050/internal/models"

	"go.uber.org/zap"
)

// ErrConcurrentAllocation means the pool moved between the read and the
// conditional update inside Allocate. The transaction is rolled back.
var ErrConcurrentAllocation = errors.New("ticket block already allocated")

// SQLStore persists the ledger in the pool, registrations and draws tables.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Pool(ctx context.Context) (models.Pool, error) {
	var p models.Pool
	err := s.db.QueryRowContext(ctx,
		"SELECT total_funds, tickets_sold, last_ticket_number FROM pool WHERE id = 1",
	).Scan(&p.TotalFunds, &p.TicketsSold, &p.LastTicketNumber)
	if err != nil {
		return models.Pool{}, fmt.Errorf("read pool: %w", err)
	}
	return p, nil
}

func (s *SQLStore) Allocate(ctx context.Context, id string, reg models.Registration) (models.RegistrationRecord, models.Pool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.RegistrationRecord{}, models.Pool{}, fmt.Errorf("begin allocation: %w", err)
	}

	record, pool, err := allocate(ctx, tx, id, reg)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Warn("allocation rollback failed", zap.Error(rbErr))
		}
		return models.RegistrationRecord{}, models.Pool{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.RegistrationRecord{}, models.Pool{}, fmt.Errorf("commit allocation: %w", err)
	}
	return record, pool, nil
}

func allocate(ctx context.Context, tx *sql.Tx, id string, reg models.Registration) (models.RegistrationRecord, models.Pool, error) {
	var prev models.Pool
	err := tx.QueryRowContext(ctx,
		"SELECT total_funds, tickets_sold, last_ticket_number FROM pool WHERE id = 1",
	).Scan(&prev.TotalFunds, &prev.TicketsSold, &prev.LastTicketNumber)
	if err != nil {
		return models.RegistrationRecord{}, models.Pool{}, fmt.Errorf("read pool: %w", err)
	}
	first, last, next, err := nextBlock(prev, reg)
	if err != nil {
		return models.RegistrationRecord{}, models.Pool{}, err
	}

	record := models.RegistrationRecord{
		ID:            id,
		Name:          reg.Name,
		Email:         reg.Email,
		Phone:         reg.Phone,
		TicketCount:   reg.TicketCount,
		FirstTicket:   first,
		LastTicket:    last,
		TotalPaid:     reg.TotalPaid,
		PaymentMethod: reg.PaymentMethod,
		CreatedAt:     time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO registrations
			(id, name, email, phone, ticket_count, first_ticket, last_ticket, total_paid, payment_method, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Name, record.Email, record.Phone, record.TicketCount,
		record.FirstTicket, record.LastTicket, record.TotalPaid, string(record.PaymentMethod), record.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return models.RegistrationRecord{}, models.Pool{}, fmt.Errorf("insert registration: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE pool
		SET total_funds = total_funds + ?,
			tickets_sold = tickets_sold + ?,
			last_ticket_number = ?
		WHERE id = 1 AND last_ticket_number = ?`,
		record.TotalPaid, record.TicketCount, record.LastTicket, prev.LastTicketNumber,
	)
	if err != nil {
		return models.RegistrationRecord{}, models.Pool{}, fmt.Errorf("update pool: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.RegistrationRecord{}, models.Pool{}, fmt.Errorf("update pool: %w", err)
	} else if n != 1 {
		return models.RegistrationRecord{}, models.Pool{}, ErrConcurrentAllocation
	}
	return record, next, nil
}

func (s *SQLStore) Owner(ctx context.Context, ticket int64) (models.RegistrationRecord, error) {
	var r models.RegistrationRecord
	var method, created string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, ticket_count, first_ticket, last_ticket, total_paid, payment_method, created_at
		FROM registrations
		WHERE first_ticket <= ? AND last_ticket >= ?`, ticket, ticket,
	).Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.TicketCount, &r.FirstTicket, &r.LastTicket, &r.TotalPaid, &method, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RegistrationRecord{}, models.ErrNotFound
	}
	if err != nil {
		return models.RegistrationRecord{}, fmt.Errorf("resolve ticket %d: %w", ticket, err)
	}
	r.PaymentMethod = models.PaymentMethod(method)
	r.CreatedAt = parseTime(created)
	return r, nil
}

func (s *SQLStore) RecordDraw(ctx context.Context, ticket int64, registrationID string, totalFunds int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO draws (ticket_number, registration_id, total_funds) VALUES (?, ?, ?)",
		ticket, registrationID, totalFunds,
	)
	if err != nil {
		return fmt.Errorf("record draw: %w", err)
	}
	return nil
}

func (s *SQLStore) ListRegistrations(ctx context.Context, limit int) ([]models.RegistrationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, ticket_count, first_ticket, last_ticket, total_paid, payment_method, created_at
		FROM registrations
		ORDER BY first_ticket DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	out := []models.RegistrationRecord{}
	for rows.Next() {
		var r models.RegistrationRecord
		var method, created string
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.TicketCount, &r.FirstTicket, &r.LastTicket, &r.TotalPaid, &method, &created); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		r.PaymentMethod = models.PaymentMethod(method)
		r.CreatedAt = parseTime(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// parseTime accepts what sqlite3 and libsql hand back for created_at.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
