package kiosk

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffle-5050/internal/ledger"
	"raffle-5050/internal/models"
	"raffle-5050/internal/receipt"
)

func script(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestRegisterAndCopyReceipt(t *testing.T) {
	svc := ledger.New(ledger.NewMemoryStore())
	var out, clipboard bytes.Buffer

	app := New(svc, script(
		"1",
		"Jane", "jane@example.com", "555-0100", "7", "",
		"s",
		"c",
		"c",
		"n",
		"q",
	), &out, Config{Clipboard: &clipboard})
	require.NoError(t, app.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "1 six-pack (6 tickets) = $5")
	assert.Contains(t, text, "1 single ticket = $1")
	assert.Contains(t, text, "Total: $6")
	assert.Contains(t, text, "Collect $6 by CASH from Jane for 7 ticket(s).")
	assert.Contains(t, text, "Ticket Numbers: 1, 2, 3, 4, 5, 6, 7")
	assert.Contains(t, text, "Copied!")
	assert.Contains(t, text, "Total Funds: $6\nWinner's Split: $3.00\nTickets Sold: 7")

	want, err := receipt.NewFormatter("").Format(models.Receipt{
		Name: "Jane", Email: "jane@example.com", Phone: "555-0100",
		TicketCount: 7, TicketNumbers: []int64{1, 2, 3, 4, 5, 6, 7},
		TotalPaid: 6, PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, want, clipboard.String())
}

func TestValidationAndCancel(t *testing.T) {
	svc := ledger.New(ledger.NewMemoryStore())
	var out bytes.Buffer

	app := New(svc, script(
		"1",
		"", "", "", "0", "",
		"s",
		"Sam", "sam@example.com", "555-0101", "2", "venmo",
		"s",
		"x",
		"", "", "", "", "",
		"b",
		"q",
	), &out, Config{})
	require.NoError(t, app.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Please fill in all fields (name, email, phone, ticket count)")
	assert.Contains(t, text, "Collect $2 by VENMO from Sam")
	assert.Contains(t, text, "Name [Sam]: ", "draft survives cancel")
	assert.Contains(t, text, "Payment method (cash/venmo) [venmo]: ")

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.LastTicketNumber)
}

type flakyLedger struct {
	*ledger.Service
	failures int
}

func (f *flakyLedger) Register(ctx context.Context, reg models.Registration) (models.RegistrationResult, error) {
	if f.failures > 0 {
		f.failures--
		return models.RegistrationResult{}, &models.TransportError{Op: "register", Err: errors.New("timeout")}
	}
	return f.Service.Register(ctx, reg)
}

func TestConfirmRetryAndEmail(t *testing.T) {
	l := &flakyLedger{Service: ledger.New(ledger.NewMemoryStore()), failures: 1}
	var out bytes.Buffer
	var opened []string

	app := New(l, script(
		"1",
		"Jane", "jane@example.com", "555-0100", "6", "cash",
		"s",
		"c",
		"c",
		"e",
		"t",
		"n",
	), &out, Config{Open: func(uri string) error {
		opened = append(opened, uri)
		return nil
	}})
	require.NoError(t, app.Run(context.Background()), "input ends at the home view")

	assert.Contains(t, out.String(), "Error submitting registration. Please try again.")
	require.Len(t, opened, 2)
	assert.True(t, strings.HasPrefix(opened[0], "mailto:jane@example.com?subject=Miamisburg%20Rotary%2050%2F50%20Raffle%20Receipt&body="))
	assert.True(t, strings.HasPrefix(opened[1], "sms:555-0100?body=Miamisburg%20Rotary%20Club"))

	stats, err := l.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.TicketsSold)
}

func TestDrawViews(t *testing.T) {
	pick := func(max int64) (int64, error) { return 3, nil }
	svc := ledger.New(ledger.NewMemoryStore(), ledger.WithPicker(pick))
	var out bytes.Buffer

	app := New(svc, script("2", "y", ""), &out, Config{})
	require.NoError(t, app.Run(context.Background()))
	assert.Contains(t, out.String(), "draw failed: no tickets have been sold")
	assert.NotContains(t, out.String(), "*** WINNER ***")

	_, err := svc.Register(context.Background(), models.Registration{
		Name: "Jane", Email: "jane@example.com", Phone: "555-0100",
		TicketCount: 7, TotalPaid: 6, PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	out.Reset()
	app = New(svc, script("2", "y", "", "q"), &out, Config{})
	require.NoError(t, app.Run(context.Background()))
	text := out.String()
	assert.Contains(t, text, "Draw a winner from 7 ticket(s)?")
	assert.Contains(t, text, "*** WINNER ***\nTicket #3\nName: Jane")
	assert.Contains(t, text, "Prize: $3.00 of $6")
}
