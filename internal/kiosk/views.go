package kiosk

import (
	"strings"

	"raffle-5050/internal/models"
	"raffle-5050/internal/pricing"
	"raffle-5050/internal/workflow"
)

func (a *App) homeView() {
	stats := a.cache.Snapshot()
	a.printf("\n%s\n50/50 Raffle\n", a.formatter.Organization)
	a.printf("Total Funds: $%d\n", stats.TotalFunds)
	a.printf("Winner's Split: $%s\n", stats.Split.StringFixed(2))
	a.printf("Tickets Sold: %d\n", stats.TicketsSold)
	a.printf("[1] Register  [2] Draw winner  [3] Refresh  [q] Quit\n")
}

// formView collects the draft field by field. An empty answer keeps the
// current value.
func (a *App) formView(wf *workflow.Workflow) error {
	d := wf.Draft()
	if d.PaymentMethod == "" {
		d.PaymentMethod = models.PaymentCash
	}

	a.printf("\nRegister Tickets\n")
	a.printf("Pricing: 1 ticket = $%d, %d tickets = $%d\n", pricing.SinglePrice, pricing.PackSize, pricing.PackPrice)

	fields := []struct {
		label string
		value *string
	}{
		{"Name", &d.Name},
		{"Email", &d.Email},
		{"Phone", &d.Phone},
		{"Number of tickets", &d.TicketCount},
	}
	for _, f := range fields {
		v, err := a.prompt(withDefault(f.label, *f.value))
		if err != nil {
			return err
		}
		if v != "" {
			*f.value = v
		}
	}

	method, err := a.prompt(withDefault("Payment method (cash/venmo)", string(d.PaymentMethod)))
	if err != nil {
		return err
	}
	if method != "" {
		d.PaymentMethod = models.PaymentMethod(strings.ToLower(method))
	}

	if err := wf.SetDraft(d); err != nil {
		return err
	}

	count := pricing.ParseTicketCount(d.TicketCount)
	if count > 0 {
		a.printf("\nPrice Breakdown:\n")
		for _, item := range pricing.Breakdown(count) {
			a.printf("  %s\n", item)
		}
		a.printf("Total: $%d\n", pricing.Price(count))
	}
	return nil
}

func withDefault(label, current string) string {
	if current == "" {
		return label
	}
	return label + " [" + current + "]"
}
