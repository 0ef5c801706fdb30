package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffle-5050/internal/ledger"
	"raffle-5050/internal/middleware"
	"raffle-5050/internal/models"
	"raffle-5050/internal/pricing"
)

func newTestServer(t *testing.T, opts RouterOptions, ledgerOpts ...ledger.Option) *httptest.Server {
	t.Helper()
	svc := ledger.New(ledger.NewMemoryStore(), ledgerOpts...)
	srv := httptest.NewServer(NewRouter(New(svc), opts))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, rawURL string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func registerQuery(name string, tickets, total string, method string) string {
	return url.Values{
		"name":          {name},
		"email":         {name + "@x.com"},
		"phone":         {"555-1212"},
		"ticketCount":   {tickets},
		"totalPaid":     {total},
		"paymentMethod": {method},
	}.Encode()
}

func TestStatsEmptyLedger(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	var body map[string]interface{}
	status := get(t, srv.URL+"/stats", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(0), body["totalFunds"])
	assert.Equal(t, float64(0), body["split"])
	assert.Equal(t, float64(0), body["ticketsSold"])
	assert.Equal(t, float64(0), body["lastTicketNumber"])
}

func TestRegisterThenStats(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	var reg models.RegisterResponse
	status := get(t, srv.URL+"/register?"+registerQuery("Jane", "7", "6", "cash"), &reg)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, reg.Success)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7}, reg.TicketNumbers)
	assert.Equal(t, int64(6), reg.TotalFunds)
	assert.Equal(t, "3", reg.Split.String())

	var stats models.StatsResponse
	get(t, srv.URL+"/?action=stats", &stats)
	assert.Equal(t, int64(7), stats.LastTicketNumber)
	assert.Equal(t, int64(7), stats.TicketsSold)
}

func TestRegisterSplitIsExactHalf(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	var body map[string]interface{}
	get(t, srv.URL+"/register?"+registerQuery("Odd", "1", "1", "venmo"), &body)
	assert.Equal(t, 0.5, body["split"])
}

func TestRegisterRejectsMismatchedTotal(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	var body models.ErrorResponse
	status := get(t, srv.URL+"/register?"+registerQuery("Jane", "6", "6", "cash"), &body)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.False(t, body.Success)
	assert.Contains(t, body.Error, "does not match price")

	var stats models.StatsResponse
	get(t, srv.URL+"/stats", &stats)
	assert.Equal(t, int64(0), stats.LastTicketNumber)
}

func TestRegisterRejectsMalformedPayload(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	var body models.ErrorResponse
	status := get(t, srv.URL+"/register?"+registerQuery("Jane", "seven", "6", "cash"), &body)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body.Error, "ticketCount")

	status = get(t, srv.URL+"/register?"+registerQuery("Jane", "1", "1", "bitcoin"), &body)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body.Error, "payment method")
}

func TestRegisterRejectsOversizedCount(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	over := pricing.MaxTicketsPerRegistration + 1
	queries := []string{
		registerQuery("Jane", strconv.Itoa(over), strconv.FormatInt(pricing.Price(over), 10), "cash"),
		registerQuery("Jane", "9223372036854775807", "9223372036854775807", "cash"),
		registerQuery("Jane", "99999999999999999999", "1", "cash"),
	}
	for _, q := range queries {
		var body models.ErrorResponse
		status := get(t, srv.URL+"/register?"+q, &body)
		assert.Equal(t, http.StatusUnprocessableEntity, status, q)
		assert.False(t, body.Success)
	}

	var stats models.StatsResponse
	get(t, srv.URL+"/stats", &stats)
	assert.Equal(t, int64(0), stats.LastTicketNumber)
	assert.Equal(t, int64(0), stats.TotalFunds)

	var ok models.RegisterResponse
	limit := pricing.MaxTicketsPerRegistration
	status := get(t, srv.URL+"/register?"+registerQuery("Jane", strconv.Itoa(limit), strconv.FormatInt(pricing.Price(limit), 10), "cash"), &ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(limit), ok.LastTicketNumber)
}

func TestRegisterAcceptsPostForm(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	form, err := url.ParseQuery(registerQuery("Post", "12", "10", "venmo"))
	require.NoError(t, err)
	resp, err := http.PostForm(srv.URL+"/register", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	var reg models.RegisterResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))
	assert.Len(t, reg.TicketNumbers, 12)
	assert.Equal(t, int64(10), reg.TotalFunds)
}

func TestDrawEmptyLedger(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	var body models.ErrorResponse
	status := get(t, srv.URL+"/draw", &body)
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, body.Success)
	assert.Contains(t, body.Error, "no tickets")
}

func TestDrawReturnsWinner(t *testing.T) {
	pick := func(max int64) (int64, error) { return 3, nil }
	srv := newTestServer(t, RouterOptions{}, ledger.WithPicker(pick))

	var reg models.RegisterResponse
	get(t, srv.URL+"/register?"+registerQuery("Jane", "7", "6", "cash"), &reg)

	var draw models.DrawResponse
	status := get(t, srv.URL+"/?action=draw", &draw)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, draw.Success)
	assert.Equal(t, int64(3), draw.TicketNumber)
	assert.Equal(t, "Jane", draw.Name)
	assert.Equal(t, "Jane@x.com", draw.Email)
	assert.Equal(t, "555-1212", draw.Phone)
	assert.Equal(t, int64(6), draw.TotalFunds)
}

func TestUnknownAction(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	var body models.ErrorResponse
	status := get(t, srv.URL+"/?action=refund", &body)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStaffRoutesRequireAuth(t *testing.T) {
	auth := middleware.StaffAuth(middleware.StaffAuthConfig{User: "admin", Password: "pw"})
	srv := newTestServer(t, RouterOptions{StaffAuth: auth})

	var body models.ErrorResponse
	assert.Equal(t, http.StatusUnauthorized, get(t, srv.URL+"/draw", &body))
	assert.Equal(t, http.StatusUnauthorized, get(t, srv.URL+"/?action=register&"+registerQuery("x", "1", "1", "cash"), &body))
	assert.Equal(t, http.StatusUnauthorized, get(t, srv.URL+"/admin/registrations", &body))

	var stats models.StatsResponse
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/stats", &stats), "stats stays public")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/register?"+registerQuery("Ann", "2", "2", "cash"), nil)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "pw")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/admin/registrations?limit=5", nil)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "pw")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var admin AdminData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&admin))
	require.Len(t, admin.Registrations, 1)
	assert.Equal(t, "Ann", admin.Registrations[0].Name)
	assert.Equal(t, int64(2), admin.Stats.TicketsSold)
}

type failingLedger struct{ Ledger }

func (failingLedger) Stats(ctx context.Context) (models.AggregateStats, error) {
	return models.AggregateStats{}, errors.New("database is locked")
}

func TestInternalErrorsAreEnveloped(t *testing.T) {
	srv := httptest.NewServer(NewRouter(New(failingLedger{}), RouterOptions{}))
	defer srv.Close()

	var body models.ErrorResponse
	status := get(t, srv.URL+"/stats", &body)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.False(t, body.Success)
	assert.Equal(t, "internal ledger error", body.Error)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	var stats models.StatsResponse
	get(t, srv.URL+"/stats", &stats)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
