package mailer

import (
	"context"
	"fmt"
	"time"

	tpl "github.com/oksasatya/rbac-dashboard/pkg/mailer/templates"
)

// Config carries the branding used by every template. It is passed in at
// construction; the dispatcher never reads process state.
type Config struct {
	AppName     string
	CompanyName string
	SupportURL  string
	// Lifetimes shown in the emails
	VerifyTTL time.Duration
	ResetTTL  time.Duration
}

// Dispatcher renders transactional emails and hands them to a Transport.
type Dispatcher struct {
	cfg       Config
	transport Transport
}

func NewDispatcher(cfg Config, transport Transport) *Dispatcher {
	if cfg.VerifyTTL == 0 {
		cfg.VerifyTTL = 24 * time.Hour
	}
	if cfg.ResetTTL == 0 {
		cfg.ResetTTL = time.Hour
	}
	return &Dispatcher{cfg: cfg, transport: transport}
}

func (d *Dispatcher) SendVerification(ctx context.Context, email, name, actionURL string) error {
	return d.send(ctx, tpl.VerifyEmail, email, tpl.EmailData{Name: name, ActionURL: actionURL, ExpiresIn: humanDuration(d.cfg.VerifyTTL)})
}

func (d *Dispatcher) SendReset(ctx context.Context, email, name, actionURL string) error {
	return d.send(ctx, tpl.ResetPassword, email, tpl.EmailData{Name: name, ActionURL: actionURL, ExpiresIn: humanDuration(d.cfg.ResetTTL)})
}

func (d *Dispatcher) SendResetConfirmation(ctx context.Context, email, name string) error {
	return d.send(ctx, tpl.ResetSuccess, email, tpl.EmailData{Name: name})
}

func (d *Dispatcher) send(ctx context.Context, typ, to string, data tpl.EmailData) error {
	data.AppName = d.cfg.AppName
	data.CompanyName = d.cfg.CompanyName
	data.SupportURL = d.cfg.SupportURL

	subject, text, html, err := tpl.Render(typ, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", typ, err)
	}
	msg := Message{Type: typ, To: to, Subject: subject, Text: text, HTML: html}
	if err := d.transport.Send(ctx, msg); err != nil {
		return &DeliveryError{Type: typ, To: to, Err: err}
	}
	return nil
}

func humanDuration(d time.Duration) string {
	h := int(d.Hours())
	switch {
	case h == 1:
		return "1 hour"
	case h > 1:
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}
