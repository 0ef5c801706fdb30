// Package draw runs the winner drawing on behalf of the operator.
package draw

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"raffle-5050/internal/logger"
	"raffle-5050/internal/models"
)

// Drawer is the ledger draw call.
type Drawer interface {
	Draw(ctx context.Context) (models.WinnerRecord, error)
}

// Refresher reloads the client's stats snapshot.
type Refresher interface {
	Refresh(ctx context.Context) (models.AggregateStats, error)
}

// Presenter shows the winner to the operator.
type Presenter interface {
	ShowWinner(w models.WinnerRecord)
}

type Coordinator struct {
	ledger    Drawer
	stats     Refresher
	presenter Presenter
}

// NewCoordinator wires a coordinator. stats may be nil when no cache is kept.
func NewCoordinator(ledger Drawer, stats Refresher, presenter Presenter) *Coordinator {
	return &Coordinator{ledger: ledger, stats: stats, presenter: presenter}
}

// Draw asks the ledger for a winner. Every failure comes back as a
// *models.DrawError and leaves the presenter untouched.
func (c *Coordinator) Draw(ctx context.Context) (models.WinnerRecord, error) {
	winner, err := c.ledger.Draw(ctx)
	if err != nil {
		var drawErr *models.DrawError
		if !errors.As(err, &drawErr) {
			err = &models.DrawError{Err: err}
		}
		logger.Warn("draw failed", zap.Error(err))
		return models.WinnerRecord{}, err
	}

	logger.Info("winner drawn", zap.Int64("ticket", winner.TicketNumber))
	if c.presenter != nil {
		c.presenter.ShowWinner(winner)
	}
	if c.stats != nil {
		if _, err := c.stats.Refresh(ctx); err != nil {
			logger.Debug("stats refresh after draw failed", zap.Error(err))
		}
	}
	return winner, nil
}
