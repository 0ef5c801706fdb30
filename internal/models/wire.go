package models

import "github.com/shopspring/decimal"

// Wire shapes of the ledger request/response contract. Every response
// carries "success"; failures carry only "error".

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type StatsResponse struct {
	Success          bool            `json:"success"`
	TotalFunds       int64           `json:"totalFunds"`
	Split            decimal.Decimal `json:"split"`
	TicketsSold      int64           `json:"ticketsSold"`
	LastTicketNumber int64           `json:"lastTicketNumber"`
	Error            string          `json:"error,omitempty"`
}

func NewStatsResponse(s AggregateStats) StatsResponse {
	return StatsResponse{
		Success:          true,
		TotalFunds:       s.TotalFunds,
		Split:            s.Split,
		TicketsSold:      s.TicketsSold,
		LastTicketNumber: s.LastTicketNumber,
	}
}

func (r StatsResponse) Stats() AggregateStats {
	return AggregateStats{
		TotalFunds:       r.TotalFunds,
		Split:            r.Split,
		TicketsSold:      r.TicketsSold,
		LastTicketNumber: r.LastTicketNumber,
	}
}

type RegisterResponse struct {
	Success          bool            `json:"success"`
	TotalFunds       int64           `json:"totalFunds"`
	TicketsSold      int64           `json:"ticketsSold"`
	LastTicketNumber int64           `json:"lastTicketNumber"`
	Split            decimal.Decimal `json:"split"`
	TicketNumbers    []int64         `json:"ticketNumbers"`
	Error            string          `json:"error,omitempty"`
}

func NewRegisterResponse(res RegistrationResult) RegisterResponse {
	return RegisterResponse{
		Success:          true,
		TotalFunds:       res.Stats.TotalFunds,
		TicketsSold:      res.Stats.TicketsSold,
		LastTicketNumber: res.Stats.LastTicketNumber,
		Split:            res.Stats.Split,
		TicketNumbers:    res.TicketNumbers,
	}
}

func (r RegisterResponse) Result() RegistrationResult {
	return RegistrationResult{
		TicketNumbers: r.TicketNumbers,
		Stats: AggregateStats{
			TotalFunds:       r.TotalFunds,
			Split:            r.Split,
			TicketsSold:      r.TicketsSold,
			LastTicketNumber: r.LastTicketNumber,
		},
	}
}

type DrawResponse struct {
	Success      bool            `json:"success"`
	TicketNumber int64           `json:"ticketNumber"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	TotalFunds   int64           `json:"totalFunds"`
	Split        decimal.Decimal `json:"split"`
	Error        string          `json:"error,omitempty"`
}

func NewDrawResponse(w WinnerRecord) DrawResponse {
	return DrawResponse{
		Success:      true,
		TicketNumber: w.TicketNumber,
		Name:         w.Name,
		Email:        w.Email,
		Phone:        w.Phone,
		TotalFunds:   w.TotalFunds,
		Split:        w.Split,
	}
}

func (r DrawResponse) Winner() WinnerRecord {
	return WinnerRecord{
		TicketNumber: r.TicketNumber,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		TotalFunds:   r.TotalFunds,
		Split:        r.Split,
	}
}
