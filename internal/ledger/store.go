package ledger

import (
	"context"
	"errors"
	"math"

	"raffle-5050/internal/models"
)

// ErrTicketRangeExhausted is returned by Allocate when the next block would
// not fit in the int64 ticket space or the pool totals would overflow.
var ErrTicketRangeExhausted = errors.New("ticket number range exhausted")

// Store is the authoritative persistence of the raffle.
type Store interface {
	// Pool returns the current totals.
	Pool(ctx context.Context) (models.Pool, error)

	// Allocate assigns the next contiguous block of reg.TicketCount ticket
	// numbers and adds the purchase to the pool totals as one atomic step.
	Allocate(ctx context.Context, id string, reg models.Registration) (models.RegistrationRecord, models.Pool, error)

	// Owner resolves the registration whose block contains ticket.
	Owner(ctx context.Context, ticket int64) (models.RegistrationRecord, error)

	// RecordDraw appends a draw to the audit log.
	RecordDraw(ctx context.Context, ticket int64, registrationID string, totalFunds int64) error

	// ListRegistrations returns the most recent registrations first.
	ListRegistrations(ctx context.Context, limit int) ([]models.RegistrationRecord, error)
}

// nextBlock computes the block reg takes after prev and the resulting pool.
// prev is never modified.
func nextBlock(prev models.Pool, reg models.Registration) (first, last int64, next models.Pool, err error) {
	n := int64(reg.TicketCount)
	if n < 1 || reg.TotalPaid < 0 {
		return 0, 0, prev, ErrTicketRangeExhausted
	}
	if prev.LastTicketNumber > math.MaxInt64-n ||
		prev.TicketsSold > math.MaxInt64-n ||
		prev.TotalFunds > math.MaxInt64-reg.TotalPaid {
		return 0, 0, prev, ErrTicketRangeExhausted
	}

	next = models.Pool{
		TotalFunds:       prev.TotalFunds + reg.TotalPaid,
		TicketsSold:      prev.TicketsSold + n,
		LastTicketNumber: prev.LastTicketNumber + n,
	}
	return prev.LastTicketNumber + 1, next.LastTicketNumber, next, nil
}
