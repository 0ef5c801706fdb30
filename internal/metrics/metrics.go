package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"raffle-5050/internal/models"
)

var (
	// Registry holds the raffle collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "raffle",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "raffle",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "raffle",
			Name:      "registrations_total",
			Help:      "Committed registrations by declared payment method.",
		},
		[]string{"payment_method"},
	)

	ticketsSold = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "raffle",
			Name:      "tickets_sold_total",
			Help:      "Tickets issued since process start.",
		},
	)

	draws = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "raffle",
			Name:      "draws_total",
			Help:      "Draw attempts by result.",
		},
		[]string{"result"},
	)

	poolFunds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "raffle",
			Subsystem: "pool",
			Name:      "total_funds",
			Help:      "Total funds collected in the pool.",
		},
	)

	poolLastTicket = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "raffle",
			Subsystem: "pool",
			Name:      "last_ticket_number",
			Help:      "Highest ticket number issued.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		registrations,
		ticketsSold,
		draws,
		poolFunds,
		poolLastTicket,
	)
}

// Handler exposes Registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Instrument records request counts and latency by chi route pattern.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordRegistration counts a committed registration and updates pool gauges.
func RecordRegistration(method models.PaymentMethod, tickets int, pool models.Pool) {
	registrations.WithLabelValues(string(method)).Inc()
	ticketsSold.Add(float64(tickets))
	RecordPool(pool)
}

// RecordDraw counts a draw attempt; result is "winner", "refused" or "error".
func RecordDraw(result string) {
	draws.WithLabelValues(result).Inc()
}

func RecordPool(pool models.Pool) {
	poolFunds.Set(float64(pool.TotalFunds))
	poolLastTicket.Set(float64(pool.LastTicketNumber))
}
