package handlers

import (
	"net/http"
	"strconv"

	"raffle-5050/internal/models"
)

// AdminData is the staff dashboard payload.
type AdminData struct {
	Stats         models.AggregateStats       `json:"stats"`
	Registrations []models.RegistrationRecord `json:"registrations"`
}

// AdminRegistrations lists the most recent registrations with current totals.
func (h *Handler) AdminRegistrations(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	stats, err := h.ledger.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	registrations, err := h.ledger.ListRegistrations(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AdminData{Stats: stats, Registrations: registrations})
}
