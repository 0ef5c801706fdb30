// Package receipt renders committed registrations as plain text and hands
// that text to the delivery channels.
package receipt

import (
	"bytes"
	"strconv"
	"strings"
	"text/template"

	"raffle-5050/internal/models"
)

const DefaultOrganization = "Miamisburg Rotary Club"

const layout = `{{.Organization}}
===========================
*** 50/50 Raffle Receipt ***
---------------------------
Name: {{.Name}}
Tickets: {{.TicketCount}}
Ticket Numbers: {{.TicketNumbers}}
Total Paid: ${{.TotalPaid}}
Payment Method: {{.PaymentMethod}}
===========================
Thank you for supporting our cause!`

var receiptTemplate = template.Must(template.New("receipt").Parse(layout))

type view struct {
	Organization  string
	Name          string
	TicketCount   int
	TicketNumbers string
	TotalPaid     int64
	PaymentMethod string
}

// Formatter renders receipts. The output depends only on the receipt and
// the organization name.
type Formatter struct {
	Organization string
}

func NewFormatter(organization string) *Formatter {
	if strings.TrimSpace(organization) == "" {
		organization = DefaultOrganization
	}
	return &Formatter{Organization: organization}
}

func (f *Formatter) Format(r models.Receipt) (string, error) {
	numbers := make([]string, len(r.TicketNumbers))
	for i, n := range r.TicketNumbers {
		numbers[i] = strconv.FormatInt(n, 10)
	}

	var buf bytes.Buffer
	err := receiptTemplate.Execute(&buf, view{
		Organization:  f.Organization,
		Name:          r.Name,
		TicketCount:   r.TicketCount,
		TicketNumbers: strings.Join(numbers, ", "),
		TotalPaid:     r.TotalPaid,
		PaymentMethod: r.PaymentMethod.Label(),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Subject is the email subject line, e.g. "Miamisburg Rotary 50/50 Raffle Receipt".
func (f *Formatter) Subject() string {
	return strings.TrimSuffix(f.Organization, " Club") + " 50/50 Raffle Receipt"
}
