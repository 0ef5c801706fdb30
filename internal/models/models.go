package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The ledger contract carries split as a JSON number, not a string.
	decimal.MarshalJSONWithoutQuotes = true
}

// PaymentMethod is the payment channel declared by the buyer. Money is
// collected out-of-band; the ledger only records which channel was used.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentVenmo PaymentMethod = "venmo"
)

// ParsePaymentMethod normalizes user input to a known method.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentCash:
		return PaymentCash, true
	case PaymentVenmo:
		return PaymentVenmo, true
	}
	return "", false
}

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentVenmo
}

// Label is the uppercased form printed on receipts.
func (m PaymentMethod) Label() string {
	return strings.ToUpper(string(m))
}

// RegistrationDraft is the editable form state. TicketCount is kept as the
// raw text the operator typed.
type RegistrationDraft struct {
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	TicketCount   string        `json:"ticket_count"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// PendingPayment is a submitted draft waiting for the operator to confirm
// that money was collected.
type PendingPayment struct {
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	TicketCount   int           `json:"ticket_count"`
	TotalPaid     int64         `json:"total_paid"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// Registration converts the pending payment into a ledger register request.
func (p PendingPayment) Registration() Registration {
	return Registration{
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		TicketCount:   p.TicketCount,
		TotalPaid:     p.TotalPaid,
		PaymentMethod: p.PaymentMethod,
	}
}

// Registration is the payload of a ledger register call. TotalPaid is the
// client's computed price; the ledger recomputes and compares it.
type Registration struct {
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	TicketCount   int           `json:"ticket_count"`
	TotalPaid     int64         `json:"total_paid"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// AggregateStats mirrors the ledger pool totals.
type AggregateStats struct {
	TotalFunds       int64           `json:"total_funds"`
	Split            decimal.Decimal `json:"split"`
	TicketsSold      int64           `json:"tickets_sold"`
	LastTicketNumber int64           `json:"last_ticket_number"`
}

// Pool is the raw persisted pool row. Split is derived from it by the ledger.
type Pool struct {
	TotalFunds       int64
	TicketsSold      int64
	LastTicketNumber int64
}

// SplitOf is the winner's share: half the pool.
func SplitOf(totalFunds int64) decimal.Decimal {
	return decimal.NewFromInt(totalFunds).Div(decimal.NewFromInt(2))
}

// Stats derives the public aggregate view of a pool.
func (p Pool) Stats() AggregateStats {
	return AggregateStats{
		TotalFunds:       p.TotalFunds,
		Split:            SplitOf(p.TotalFunds),
		TicketsSold:      p.TicketsSold,
		LastTicketNumber: p.LastTicketNumber,
	}
}

// RegistrationRecord is a committed purchase as stored by the ledger. Its
// tickets are the contiguous block [FirstTicket, LastTicket].
type RegistrationRecord struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	TicketCount   int           `json:"ticket_count"`
	FirstTicket   int64         `json:"first_ticket"`
	LastTicket    int64         `json:"last_ticket"`
	TotalPaid     int64         `json:"total_paid"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	CreatedAt     time.Time     `json:"created_at"`
}

// TicketNumbers expands the block into its ordered ticket numbers.
func (r RegistrationRecord) TicketNumbers() []int64 {
	if r.LastTicket < r.FirstTicket {
		return []int64{}
	}
	numbers := make([]int64, 0, r.LastTicket-r.FirstTicket+1)
	for n := r.FirstTicket; n <= r.LastTicket; n++ {
		numbers = append(numbers, n)
	}
	return numbers
}

// Owns reports whether ticket falls inside this registration's block.
func (r RegistrationRecord) Owns(ticket int64) bool {
	return ticket >= r.FirstTicket && ticket <= r.LastTicket
}

// RegistrationResult is what a successful register call returns.
type RegistrationResult struct {
	TicketNumbers []int64        `json:"ticket_numbers"`
	Stats         AggregateStats `json:"stats"`
}

// Receipt is the immutable record of a committed registration.
type Receipt struct {
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	TicketCount   int           `json:"ticket_count"`
	TicketNumbers []int64       `json:"ticket_numbers"`
	TotalPaid     int64         `json:"total_paid"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// WinnerRecord is the immutable result of a draw.
type WinnerRecord struct {
	TicketNumber int64           `json:"ticket_number"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	TotalFunds   int64           `json:"total_funds"`
	Split        decimal.Decimal `json:"split"`
}
