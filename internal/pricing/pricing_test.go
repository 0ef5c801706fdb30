package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceKnownValues(t *testing.T) {
	cases := map[int]int64{
		0:  0,
		1:  1,
		5:  5,
		6:  5,
		7:  6,
		12: 10,
		17: 15,
		18: 15,
	}
	for n, want := range cases {
		assert.Equal(t, want, Price(n), "Price(%d)", n)
	}
}

func TestPriceAtTicketCap(t *testing.T) {
	n := MaxTicketsPerRegistration
	assert.Equal(t, int64(5*(n/6)+n%6), Price(n))
	assert.Equal(t, MaxTicketsPerRegistration, ParseTicketCount("5000"))
}

func TestPriceFormula(t *testing.T) {
	var prev int64
	for n := 0; n <= 500; n++ {
		got := Price(n)
		assert.Equal(t, int64(5*(n/6)+n%6), got, "Price(%d)", n)
		assert.GreaterOrEqual(t, got, prev, "Price must be non-decreasing at %d", n)
		prev = got
	}
}

// cheapest finds the minimum cost over every way of buying n tickets as any
// mix of singles and six-packs.
func cheapest(n int) int64 {
	dp := make([]int64, n+1)
	for i := 1; i <= n; i++ {
		dp[i] = dp[i-1] + SinglePrice
		if i >= PackSize && dp[i-PackSize]+PackPrice < dp[i] {
			dp[i] = dp[i-PackSize] + PackPrice
		}
	}
	return dp[n]
}

func TestPriceIsOptimalOverAllPartitions(t *testing.T) {
	for n := 0; n <= 120; n++ {
		assert.Equal(t, cheapest(n), Price(n), "n=%d", n)
	}
}

func TestBreakdownSumsToPrice(t *testing.T) {
	for n := 0; n <= 200; n++ {
		var total int64
		tickets := 0
		for _, item := range Breakdown(n) {
			total += item.Cost
			tickets += item.Tickets
		}
		assert.Equal(t, Price(n), total, "n=%d", n)
		assert.Equal(t, n, tickets, "n=%d", n)
	}
}

func TestBreakdownEmptyForZero(t *testing.T) {
	assert.Empty(t, Breakdown(0))
	assert.Empty(t, Breakdown(-4))
	assert.Equal(t, int64(0), Price(-4))
}

func TestBreakdownLines(t *testing.T) {
	items := Breakdown(13)
	require.Len(t, items, 2)
	assert.Equal(t, "2 six-packs (12 tickets) = $10", items[0].String())
	assert.Equal(t, "1 single ticket = $1", items[1].String())

	items = Breakdown(6)
	require.Len(t, items, 1)
	assert.Equal(t, "1 six-pack (6 tickets) = $5", items[0].String())

	items = Breakdown(3)
	require.Len(t, items, 1)
	assert.Equal(t, "3 single tickets = $3", items[0].String())
}

func TestParseTicketCount(t *testing.T) {
	cases := map[string]int{
		"7":          7,
		" 12 ":       12,
		"":           0,
		"abc":        0,
		"-3":         0,
		"4 tickets":  4,
		"0":          0,
		"9999999999999999999999": 0,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseTicketCount(in), "ParseTicketCount(%q)", in)
	}
}
