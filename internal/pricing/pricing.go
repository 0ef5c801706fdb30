// Package pricing computes ticket prices. Tickets sell for 1 unit each or 5
// units per six-pack; a count is always split into as many six-packs as
// possible.
package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	SinglePrice = 1
	PackSize    = 6
	PackPrice   = 5

	// MaxTicketsPerRegistration bounds a single purchase.
	MaxTicketsPerRegistration = 5000
)

// LineItem is one row of a price breakdown.
type LineItem struct {
	Kind     string // "six-pack" or "single"
	Quantity int    // bundles for six-packs, tickets for singles
	Tickets  int
	Cost     int64
}

func (li LineItem) String() string {
	if li.Kind == "six-pack" {
		return fmt.Sprintf("%d %s (%d tickets) = $%d", li.Quantity, plural("six-pack", li.Quantity), li.Tickets, li.Cost)
	}
	return fmt.Sprintf("%d %s = $%d", li.Quantity, plural("single ticket", li.Quantity), li.Cost)
}

// Price returns the total cost of n tickets. Negative counts cost nothing.
func Price(n int) int64 {
	if n <= 0 {
		return 0
	}
	bundles, singles := n/PackSize, n%PackSize
	return int64(bundles)*PackPrice + int64(singles)*SinglePrice
}

// Breakdown itemizes Price(n). The result is empty for n <= 0.
func Breakdown(n int) []LineItem {
	items := []LineItem{}
	if n <= 0 {
		return items
	}
	bundles, singles := n/PackSize, n%PackSize
	if bundles > 0 {
		items = append(items, LineItem{
			Kind:     "six-pack",
			Quantity: bundles,
			Tickets:  bundles * PackSize,
			Cost:     int64(bundles) * PackPrice,
		})
	}
	if singles > 0 {
		items = append(items, LineItem{
			Kind:     "single",
			Quantity: singles,
			Tickets:  singles,
			Cost:     int64(singles) * SinglePrice,
		})
	}
	return items
}

// ParseTicketCount sanitizes operator input. Anything that is not a positive
// integer is treated as 0. A leading integer prefix is honoured ("7 tickets"
// reads as 7).
func ParseTicketCount(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func plural(word string, n int) string {
	if n > 1 {
		return word + "s"
	}
	return word
}
