package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"raffle-5050/internal/logger"
	"raffle-5050/internal/models"
)

// Ledger is the service the HTTP surface exposes.
type Ledger interface {
	Stats(ctx context.Context) (models.AggregateStats, error)
	Register(ctx context.Context, reg models.Registration) (models.RegistrationResult, error)
	Draw(ctx context.Context) (models.WinnerRecord, error)
	ListRegistrations(ctx context.Context, limit int) ([]models.RegistrationRecord, error)
}

type Handler struct {
	ledger Ledger
}

func New(ledger Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// Stats returns the pool totals.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledger.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewStatsResponse(stats))
}

// Register records a confirmed purchase. Parameters come from the query
// string or a form body: name, email, phone, ticketCount, totalPaid,
// paymentMethod.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	reg, err := parseRegistration(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.ledger.Register(r.Context(), reg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewRegisterResponse(res))
}

// Draw selects the winning ticket.
func (h *Handler) Draw(w http.ResponseWriter, r *http.Request) {
	winner, err := h.ledger.Draw(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewDrawResponse(winner))
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func parseRegistration(r *http.Request) (models.Registration, error) {
	if err := r.ParseForm(); err != nil {
		return models.Registration{}, &models.RegistrationError{Reason: "malformed request", Err: err}
	}

	ticketCount, err := strconv.Atoi(strings.TrimSpace(r.FormValue("ticketCount")))
	if err != nil {
		return models.Registration{}, &models.RegistrationError{Reason: "ticketCount must be an integer"}
	}
	totalPaid, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("totalPaid")), 10, 64)
	if err != nil {
		return models.Registration{}, &models.RegistrationError{Reason: "totalPaid must be an integer"}
	}

	method, ok := models.ParsePaymentMethod(r.FormValue("paymentMethod"))
	if !ok {
		method = models.PaymentMethod(r.FormValue("paymentMethod"))
	}

	return models.Registration{
		Name:          r.FormValue("name"),
		Email:         r.FormValue("email"),
		Phone:         r.FormValue("phone"),
		TicketCount:   ticketCount,
		TotalPaid:     totalPaid,
		PaymentMethod: method,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("error encoding response", zap.Error(err))
	}
}

// writeError maps the error taxonomy onto the {success:false} envelope.
func writeError(w http.ResponseWriter, err error) {
	var regErr *models.RegistrationError
	var drawErr *models.DrawError

	switch {
	case errors.As(err, &regErr):
		writeJSON(w, http.StatusUnprocessableEntity, models.ErrorResponse{Error: regErr.Error()})
	case errors.As(err, &drawErr):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: drawErr.Error()})
	default:
		logger.Error("ledger request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "internal ledger error"})
	}
}
