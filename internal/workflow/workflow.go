// Package workflow drives a single registration from form entry through
// payment confirmation to a committed receipt.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"raffle-5050/internal/logger"
	"raffle-5050/internal/models"
	"raffle-5050/internal/pricing"
)

type State int

const (
	Idle State = iota
	AwaitingPayment
	Committed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingPayment:
		return "awaiting-payment"
	case Committed:
		return "committed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Event int

const (
	Submit Event = iota
	Cancel
	Confirm
)

func (e Event) String() string {
	switch e {
	case Submit:
		return "submit"
	case Cancel:
		return "cancel"
	case Confirm:
		return "confirm"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

type transition struct {
	from  State
	event Event
}

var transitions = map[transition]State{
	{Idle, Submit}:             AwaitingPayment,
	{Idle, Cancel}:             Idle,
	{AwaitingPayment, Cancel}:  Idle,
	{AwaitingPayment, Confirm}: Committed,
}

// Next returns the state reached from s on e.
func Next(s State, e Event) (State, error) {
	to, ok := transitions[transition{s, e}]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", models.ErrIllegalTransition, e, s)
	}
	return to, nil
}

// Registrar is the ledger call a confirmation makes.
type Registrar interface {
	Register(ctx context.Context, reg models.Registration) (models.RegistrationResult, error)
}

// Workflow is one registration. A committed workflow is finished; start a
// new one for the next buyer.
type Workflow struct {
	ledger Registrar

	mu      sync.Mutex
	state   State
	draft   models.RegistrationDraft
	pending *models.PendingPayment
	receipt *models.Receipt
}

func New(ledger Registrar) *Workflow {
	return &Workflow{ledger: ledger, state: Idle}
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) Draft() models.RegistrationDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// SetDraft replaces the form contents. Only allowed while idle.
func (w *Workflow) SetDraft(d models.RegistrationDraft) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Idle {
		return fmt.Errorf("%w: edit draft in %s", models.ErrIllegalTransition, w.state)
	}
	w.draft = d
	return nil
}

func (w *Workflow) Pending() (models.PendingPayment, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return models.PendingPayment{}, false
	}
	return *w.pending, true
}

func (w *Workflow) Receipt() (models.Receipt, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.receipt == nil {
		return models.Receipt{}, false
	}
	return *w.receipt, true
}

// Submit validates the draft and locks in its price.
func (w *Workflow) Submit() (models.PendingPayment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	to, err := Next(w.state, Submit)
	if err != nil {
		return models.PendingPayment{}, err
	}

	pending, err := validate(w.draft)
	if err != nil {
		return models.PendingPayment{}, err
	}

	w.pending = &pending
	w.state = to
	logger.Debug("registration awaiting payment",
		zap.Int("tickets", pending.TicketCount), zap.Int64("total", pending.TotalPaid))
	return pending, nil
}

// Cancel abandons the pending payment. The draft is kept for editing.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	to, err := Next(w.state, Cancel)
	if err != nil {
		return err
	}
	w.pending = nil
	w.state = to
	return nil
}

// Confirm records the pending payment with the ledger. On failure the
// workflow stays awaiting payment so the operator can retry or cancel.
func (w *Workflow) Confirm(ctx context.Context) (models.Receipt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	to, err := Next(w.state, Confirm)
	if err != nil {
		return models.Receipt{}, err
	}
	pending := *w.pending

	res, err := w.ledger.Register(ctx, pending.Registration())
	if err != nil {
		logger.Warn("registration not recorded", zap.Error(err))
		return models.Receipt{}, err
	}
	if len(res.TicketNumbers) != pending.TicketCount {
		return models.Receipt{}, &models.RegistrationError{
			Reason: fmt.Sprintf("ledger issued %d ticket numbers for %d tickets", len(res.TicketNumbers), pending.TicketCount),
		}
	}

	receipt := models.Receipt{
		Name:          pending.Name,
		Email:         pending.Email,
		Phone:         pending.Phone,
		TicketCount:   pending.TicketCount,
		TicketNumbers: append([]int64(nil), res.TicketNumbers...),
		TotalPaid:     pending.TotalPaid,
		PaymentMethod: pending.PaymentMethod,
	}
	w.receipt = &receipt
	w.pending = nil
	w.draft = models.RegistrationDraft{}
	w.state = to
	return receipt, nil
}

func validate(d models.RegistrationDraft) (models.PendingPayment, error) {
	name := strings.TrimSpace(d.Name)
	email := strings.TrimSpace(d.Email)
	phone := strings.TrimSpace(d.Phone)
	count := pricing.ParseTicketCount(d.TicketCount)

	method := d.PaymentMethod
	if strings.TrimSpace(string(method)) == "" {
		method = models.PaymentCash
	}
	method, methodOK := models.ParsePaymentMethod(string(method))

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if phone == "" {
		missing = append(missing, "phone")
	}
	if count < 1 {
		missing = append(missing, "ticket count")
	} else if count > pricing.MaxTicketsPerRegistration {
		missing = append(missing, fmt.Sprintf("ticket count (at most %d)", pricing.MaxTicketsPerRegistration))
	}
	if !methodOK {
		missing = append(missing, "payment method")
	}
	if len(missing) > 0 {
		return models.PendingPayment{}, &models.ValidationError{Fields: missing}
	}

	return models.PendingPayment{
		Name:          name,
		Email:         email,
		Phone:         phone,
		TicketCount:   count,
		TotalPaid:     pricing.Price(count),
		PaymentMethod: method,
	}, nil
}
