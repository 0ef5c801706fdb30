// Package ledger is the authoritative record of registrations, ticket
// numbers and pool totals.
package ledger

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"raffle-5050/internal/logger"
	"raffle-5050/internal/metrics"
	"raffle-5050/internal/models"
	"raffle-5050/internal/pricing"
)

// Notifier receives human-readable ledger events.
type Notifier interface {
	NotifyAdmin(text string)
}

// Picker returns an integer uniformly distributed in [1, max].
type Picker func(max int64) (int64, error)

// CryptoPicker draws from crypto/rand.
func CryptoPicker(max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, err
	}
	return n.Int64() + 1, nil
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500

	maxAllocateAttempts = 3
)

// Service implements stats, register and draw over a Store.
type Service struct {
	store    Store
	notifier Notifier
	pick     Picker
	newID    func() string
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithPicker(p Picker) Option {
	return func(s *Service) { s.pick = p }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		pick:  CryptoPicker,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns the pool totals with the ledger-computed split.
func (s *Service) Stats(ctx context.Context) (models.AggregateStats, error) {
	pool, err := s.store.Pool(ctx)
	if err != nil {
		return models.AggregateStats{}, err
	}
	return pool.Stats(), nil
}

// Register validates reg, recomputes its price and allocates its tickets.
// The declared total is never trusted: a mismatch is rejected.
func (s *Service) Register(ctx context.Context, reg models.Registration) (models.RegistrationResult, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Phone = strings.TrimSpace(reg.Phone)

	if err := validateRegistration(reg); err != nil {
		logger.Warn("registration rejected", zap.Error(err), zap.Int("ticketCount", reg.TicketCount), zap.Int64("totalPaid", reg.TotalPaid))
		return models.RegistrationResult{}, err
	}

	record, pool, err := s.allocate(ctx, reg)
	if errors.Is(err, ErrTicketRangeExhausted) {
		logger.Error("ticket number range exhausted", zap.Int("ticketCount", reg.TicketCount))
		return models.RegistrationResult{}, &models.RegistrationError{Reason: "no ticket numbers left to issue", Err: err}
	}
	if err != nil {
		return models.RegistrationResult{}, fmt.Errorf("allocate tickets: %w", err)
	}

	metrics.RecordRegistration(record.PaymentMethod, record.TicketCount, pool)
	logger.Info("registration committed",
		zap.String("id", record.ID),
		zap.Int64("firstTicket", record.FirstTicket),
		zap.Int64("lastTicket", record.LastTicket),
		zap.Int64("totalPaid", record.TotalPaid),
		zap.String("paymentMethod", string(record.PaymentMethod)),
		zap.Int64("totalFunds", pool.TotalFunds),
	)
	s.notify(fmt.Sprintf("🎟️ New registration: %s\nTickets #%d-#%d (%d)\n💰 $%d via %s\nPool: $%d",
		record.Name, record.FirstTicket, record.LastTicket, record.TicketCount,
		record.TotalPaid, record.PaymentMethod.Label(), pool.TotalFunds))

	return models.RegistrationResult{
		TicketNumbers: record.TicketNumbers(),
		Stats:         pool.Stats(),
	}, nil
}

// allocate retries when another writer took the block between read and
// update. Each attempt is its own transaction.
func (s *Service) allocate(ctx context.Context, reg models.Registration) (models.RegistrationRecord, models.Pool, error) {
	var err error
	for attempt := 0; attempt < maxAllocateAttempts; attempt++ {
		var record models.RegistrationRecord
		var pool models.Pool
		record, pool, err = s.store.Allocate(ctx, s.newID(), reg)
		if !errors.Is(err, ErrConcurrentAllocation) {
			return record, pool, err
		}
		logger.Debug("allocation raced, retrying", zap.Int("attempt", attempt+1))
	}
	return models.RegistrationRecord{}, models.Pool{}, err
}

func validateRegistration(reg models.Registration) error {
	var missing []string
	if reg.Name == "" {
		missing = append(missing, "name")
	}
	if reg.Email == "" {
		missing = append(missing, "email")
	}
	if reg.Phone == "" {
		missing = append(missing, "phone")
	}
	if reg.TicketCount < 1 {
		missing = append(missing, "ticketCount")
	}
	if len(missing) > 0 {
		return &models.RegistrationError{Reason: "missing or invalid fields: " + strings.Join(missing, ", ")}
	}
	if reg.TicketCount > pricing.MaxTicketsPerRegistration {
		return &models.RegistrationError{
			Reason: fmt.Sprintf("ticketCount %d exceeds the limit of %d per registration", reg.TicketCount, pricing.MaxTicketsPerRegistration),
		}
	}
	if !reg.PaymentMethod.Valid() {
		return &models.RegistrationError{Reason: fmt.Sprintf("unknown payment method %q", reg.PaymentMethod)}
	}
	if want := pricing.Price(reg.TicketCount); reg.TotalPaid != want {
		return &models.RegistrationError{
			Reason: fmt.Sprintf("total %d does not match price %d for %d tickets", reg.TotalPaid, want, reg.TicketCount),
			Err:    models.ErrPriceMismatch,
		}
	}
	return nil
}

// Draw picks a ticket uniformly from [1, lastTicketNumber] and resolves its
// owner. It refuses only when nothing has been sold. Draws do not change
// ticket data; each one is appended to the audit log.
func (s *Service) Draw(ctx context.Context) (models.WinnerRecord, error) {
	pool, err := s.store.Pool(ctx)
	if err != nil {
		metrics.RecordDraw("error")
		return models.WinnerRecord{}, err
	}
	if pool.LastTicketNumber <= 0 {
		metrics.RecordDraw("refused")
		return models.WinnerRecord{}, &models.DrawError{Reason: "no tickets have been sold", Err: models.ErrNoTicketsSold}
	}

	ticket, err := s.pick(pool.LastTicketNumber)
	if err != nil {
		metrics.RecordDraw("error")
		return models.WinnerRecord{}, fmt.Errorf("pick ticket: %w", err)
	}

	owner, err := s.store.Owner(ctx, ticket)
	if err != nil {
		metrics.RecordDraw("error")
		if errors.Is(err, models.ErrNotFound) {
			logger.Error("drawn ticket has no owner", zap.Int64("ticket", ticket), zap.Int64("lastTicket", pool.LastTicketNumber))
		}
		return models.WinnerRecord{}, fmt.Errorf("resolve ticket %d: %w", ticket, err)
	}

	if err := s.store.RecordDraw(ctx, ticket, owner.ID, pool.TotalFunds); err != nil {
		metrics.RecordDraw("error")
		return models.WinnerRecord{}, err
	}

	winner := models.WinnerRecord{
		TicketNumber: ticket,
		Name:         owner.Name,
		Email:        owner.Email,
		Phone:        owner.Phone,
		TotalFunds:   pool.TotalFunds,
		Split:        models.SplitOf(pool.TotalFunds),
	}

	metrics.RecordDraw("winner")
	logger.Info("winner drawn", zap.Int64("ticket", ticket), zap.String("registration", owner.ID), zap.Int64("totalFunds", pool.TotalFunds))
	s.notify(fmt.Sprintf("🏆 Winning ticket #%d: %s (%s, %s)\nPool $%d, split $%s",
		ticket, winner.Name, winner.Email, winner.Phone, winner.TotalFunds, winner.Split.StringFixed(2)))

	return winner, nil
}

// ListRegistrations returns the most recent registrations first.
func (s *Service) ListRegistrations(ctx context.Context, limit int) ([]models.RegistrationRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.store.ListRegistrations(ctx, limit)
}

func (s *Service) notify(text string) {
	if s.notifier != nil {
		s.notifier.NotifyAdmin(text)
	}
}
