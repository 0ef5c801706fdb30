package receipt

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"raffle-5050/internal/logger"
	"raffle-5050/internal/models"
)

type Kind string

const (
	Email Kind = "email"
	SMS   Kind = "sms"
	Copy  Kind = "copy"
)

// Channel delivers already-rendered receipt text.
type Channel interface {
	Deliver(r models.Receipt, subject, text string) error
}

// Opener hands a URI to whatever can act on it (mail client, messaging app,
// or just the operator's screen).
type Opener func(uri string) error

// EmailChannel opens a mailto: link addressed to the buyer.
type EmailChannel struct {
	Open Opener
}

func (c EmailChannel) Deliver(r models.Receipt, subject, text string) error {
	return c.Open(MailtoURI(r.Email, subject, text))
}

// SMSChannel opens an sms: link addressed to the buyer.
type SMSChannel struct {
	Open Opener
}

func (c SMSChannel) Deliver(r models.Receipt, subject, text string) error {
	return c.Open(SMSURI(r.Phone, text))
}

// CopyChannel writes the text verbatim, standing in for the clipboard.
type CopyChannel struct {
	W io.Writer
}

func (c CopyChannel) Deliver(r models.Receipt, subject, text string) error {
	_, err := io.WriteString(c.W, text)
	return err
}

// MailtoURI and SMSURI escape the address as well, so a '?' or '#' typed
// into it cannot start the query or cut off the body.
func MailtoURI(to, subject, body string) string {
	return "mailto:" + url.PathEscape(to) + "?subject=" + escape(subject) + "&body=" + escape(body)
}

func SMSURI(phone, body string) string {
	return "sms:" + url.PathEscape(phone) + "?body=" + escape(body)
}

// escape percent-encodes like a URI component, spaces as %20.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Dispatcher renders a receipt once and sends that same text to any of its
// channels.
type Dispatcher struct {
	formatter *Formatter
	channels  map[Kind]Channel
}

func NewDispatcher(f *Formatter, channels map[Kind]Channel) *Dispatcher {
	return &Dispatcher{formatter: f, channels: channels}
}

// Prepare renders r for delivery.
func (d *Dispatcher) Prepare(r models.Receipt) (*Outbox, error) {
	text, err := d.formatter.Format(r)
	if err != nil {
		return nil, fmt.Errorf("format receipt: %w", err)
	}
	return &Outbox{dispatcher: d, receipt: r, text: text}, nil
}

// Outbox is one rendered receipt awaiting delivery.
type Outbox struct {
	dispatcher *Dispatcher
	receipt    models.Receipt
	text       string
}

func (o *Outbox) Text() string { return o.text }

func (o *Outbox) Send(kind Kind) error {
	ch, ok := o.dispatcher.channels[kind]
	if !ok {
		return fmt.Errorf("receipt channel %q not configured", kind)
	}
	if err := ch.Deliver(o.receipt, o.dispatcher.formatter.Subject(), o.text); err != nil {
		logger.Warn("receipt delivery failed", zap.String("channel", string(kind)), zap.Error(err))
		return fmt.Errorf("send receipt by %s: %w", kind, err)
	}
	logger.Debug("receipt delivered", zap.String("channel", string(kind)))
	return nil
}
