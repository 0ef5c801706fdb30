// Package kiosk is the staff-facing terminal for selling tickets and
// drawing the winner.
package kiosk

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"raffle-5050/internal/draw"
	"raffle-5050/internal/ledgerclient"
	"raffle-5050/internal/logger"
	"raffle-5050/internal/models"
	"raffle-5050/internal/receipt"
	"raffle-5050/internal/workflow"
)

type Config struct {
	Organization string
	// Open receives mailto: and sms: links. Defaults to printing them.
	Open receipt.Opener
	// Clipboard receives copied receipts. Defaults to the terminal.
	Clipboard io.Writer
}

// App is one kiosk session. It is driven by line input and is not safe for
// concurrent use.
type App struct {
	in  *bufio.Reader
	out io.Writer

	cfg         Config
	cache       *ledgerclient.Cache
	coordinator *draw.Coordinator
	formatter   *receipt.Formatter
	dispatcher  *receipt.Dispatcher
}

func New(l ledgerclient.Ledger, in io.Reader, out io.Writer, cfg Config) *App {
	a := &App{
		in:        bufio.NewReader(in),
		out:       out,
		cfg:       cfg,
		cache:     ledgerclient.NewCache(l),
		formatter: receipt.NewFormatter(cfg.Organization),
	}
	if a.cfg.Open == nil {
		a.cfg.Open = a.printLink
	}
	if a.cfg.Clipboard == nil {
		a.cfg.Clipboard = out
	}
	a.coordinator = draw.NewCoordinator(l, a.cache, a)
	a.dispatcher = receipt.NewDispatcher(a.formatter, map[receipt.Kind]receipt.Channel{
		receipt.Email: receipt.EmailChannel{Open: a.cfg.Open},
		receipt.SMS:   receipt.SMSChannel{Open: a.cfg.Open},
		receipt.Copy:  receipt.CopyChannel{W: a.cfg.Clipboard},
	})
	return a
}

// Run shows the home view until the operator quits, input ends or ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.cache.Refresh(ctx); err != nil {
		a.printf("Could not load stats: %v\n", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.homeView()
		choice, err := a.prompt("Choose")
		if err != nil {
			return quitOK(err)
		}

		switch strings.ToLower(choice) {
		case "1", "r":
			err = a.registration(ctx)
		case "2", "d":
			err = a.drawing(ctx)
		case "3", "s":
			if _, rerr := a.cache.Refresh(ctx); rerr != nil {
				a.printf("Could not load stats: %v\n", rerr)
			}
		case "q":
			return nil
		default:
			a.printf("Unknown option %q\n", choice)
		}
		if err != nil {
			return quitOK(err)
		}
	}
}

// ShowWinner renders the winner view.
func (a *App) ShowWinner(w models.WinnerRecord) {
	a.printf("\n*** WINNER ***\n")
	a.printf("Ticket #%d\n", w.TicketNumber)
	a.printf("Name: %s\nEmail: %s\nPhone: %s\n", w.Name, w.Email, w.Phone)
	a.printf("Prize: $%s of $%d\n", w.Split.StringFixed(2), w.TotalFunds)
}

// registration runs one workflow from form entry to receipt.
func (a *App) registration(ctx context.Context) error {
	wf := workflow.New(a.cache)

	for {
		if err := a.formView(wf); err != nil {
			return err
		}
		choice, err := a.prompt("[s] Submit  [b] Back")
		if err != nil {
			return err
		}
		if strings.ToLower(choice) == "b" {
			return nil
		}
		if strings.ToLower(choice) != "s" {
			continue
		}

		pending, err := wf.Submit()
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			a.printf("Please fill in all fields (%s)\n", strings.Join(verr.Fields, ", "))
			continue
		}
		if err != nil {
			return err
		}

		done, err := a.awaitingView(ctx, wf, pending)
		if err != nil {
			return err
		}
		if done {
			return a.receiptView(wf)
		}
	}
}

// awaitingView returns true once the registration is committed and false
// when the operator cancels back to the form.
func (a *App) awaitingView(ctx context.Context, wf *workflow.Workflow, p models.PendingPayment) (bool, error) {
	for {
		a.printf("\nCollect $%d by %s from %s for %d ticket(s).\n", p.TotalPaid, p.PaymentMethod.Label(), p.Name, p.TicketCount)
		choice, err := a.prompt("[c] Confirm payment received  [x] Cancel")
		if err != nil {
			return false, err
		}

		switch strings.ToLower(choice) {
		case "c":
			if _, err := wf.Confirm(ctx); err != nil {
				logger.Warn("confirm failed", zap.Error(err))
				a.printf("Error submitting registration. Please try again. (%v)\n", err)
				continue
			}
			return true, nil
		case "x":
			return false, wf.Cancel()
		}
	}
}

func (a *App) receiptView(wf *workflow.Workflow) error {
	r, ok := wf.Receipt()
	if !ok {
		return fmt.Errorf("committed workflow without receipt")
	}
	outbox, err := a.dispatcher.Prepare(r)
	if err != nil {
		return err
	}

	a.printf("\n%s\n", outbox.Text())
	for {
		choice, err := a.prompt("[e] Email  [t] Text  [c] Copy  [n] Done")
		if err != nil {
			return err
		}

		var kind receipt.Kind
		switch strings.ToLower(choice) {
		case "e":
			kind = receipt.Email
		case "t":
			kind = receipt.SMS
		case "c":
			kind = receipt.Copy
		case "n", "":
			return nil
		default:
			continue
		}
		if err := outbox.Send(kind); err != nil {
			a.printf("Could not send receipt: %v\n", err)
			continue
		}
		if kind == receipt.Copy {
			a.printf("\nCopied!\n")
		}
	}
}

func (a *App) drawing(ctx context.Context) error {
	stats := a.cache.Snapshot()
	a.printf("\nDraw a winner from %d ticket(s)?\n", stats.TicketsSold)
	choice, err := a.prompt("[y] Draw  [n] Back")
	if err != nil {
		return err
	}
	if strings.ToLower(choice) != "y" {
		return nil
	}

	if _, err := a.coordinator.Draw(ctx); err != nil {
		a.printf("%v\n", err)
	}
	_, err = a.prompt("Press Enter to return")
	return err
}

func (a *App) printLink(uri string) error {
	a.printf("Open: %s\n", uri)
	return nil
}

func (a *App) prompt(label string) (string, error) {
	a.printf("%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

func quitOK(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
