package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"raffle-5050/internal/models"
)

// DrawEntry is one audited draw.
type DrawEntry struct {
	TicketNumber   int64
	RegistrationID string
	TotalFunds     int64
	DrawnAt        time.Time
}

// MemoryStore keeps the ledger in process memory. It backs DATABASE_URL=memory
// and the tests.
type MemoryStore struct {
	mu            sync.Mutex
	pool          models.Pool
	registrations []models.RegistrationRecord
	draws         []DrawEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Pool(ctx context.Context) (models.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pool, nil
}

func (s *MemoryStore) Allocate(ctx context.Context, id string, reg models.Registration) (models.RegistrationRecord, models.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	first, last, next, err := nextBlock(s.pool, reg)
	if err != nil {
		return models.RegistrationRecord{}, s.pool, err
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
	s.registrations = append(s.registrations, record)
	s.pool = next

	return record, s.pool, nil
}

func (s *MemoryStore) Owner(ctx context.Context, ticket int64) (models.RegistrationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Blocks are appended in ticket order.
	i := sort.Search(len(s.registrations), func(i int) bool {
		return s.registrations[i].LastTicket >= ticket
	})
	if i < len(s.registrations) && s.registrations[i].Owns(ticket) {
		return s.registrations[i], nil
	}
	return models.RegistrationRecord{}, models.ErrNotFound
}

func (s *MemoryStore) RecordDraw(ctx context.Context, ticket int64, registrationID string, totalFunds int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draws = append(s.draws, DrawEntry{
		TicketNumber:   ticket,
		RegistrationID: registrationID,
		TotalFunds:     totalFunds,
		DrawnAt:        time.Now().UTC(),
	})
	return nil
}

func (s *MemoryStore) ListRegistrations(ctx context.Context, limit int) ([]models.RegistrationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.RegistrationRecord, 0, min(limit, len(s.registrations)))
	for i := len(s.registrations) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.registrations[i])
	}
	return out, nil
}

// Draws returns a copy of the draw audit log.
func (s *MemoryStore) Draws() []DrawEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]DrawEntry(nil), s.draws...)
}
