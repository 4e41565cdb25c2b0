// Package mailer turns account tokens into links and mails them.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"text/template"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/accountkit/pkg/email"
	"github.com/dmitrymomot/accountkit/pkg/email/templates"
	"github.com/dmitrymomot/accountkit/pkg/logger"
)

//go:embed templates/*.txt
var textFS embed.FS

var ErrInvalidBaseURL = errors.New("invalid base url")

type message struct {
	name    string
	subject string
	path    string
	tag     string
	html    func(view) templ.Component
}

var (
	confirmMessage     = message{name: "confirm", subject: "Confirm your %s account", path: "/confirm", tag: "confirm", html: confirmView}
	resetMessage       = message{name: "reset_password", subject: "Reset your %s password", path: "/password/reset", tag: "reset_password", html: resetPasswordView}
	changeEmailMessage = message{name: "change_email", subject: "Confirm your new %s email address", path: "/email/confirm", tag: "change_email", html: changeEmailView}
)

// Mailer renders account mail and hands it to an email.EmailSender.
type Mailer struct {
	sender  email.EmailSender
	baseURL *url.URL
	appName string
	text    *template.Template
	logger  *slog.Logger
}

// New parses the embedded plain-text templates. baseURL is the public origin links
// point at, e.g. https://app.example.com.
func New(sender email.EmailSender, baseURL, appName string, log *slog.Logger) (*Mailer, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	if log == nil {
		log = logger.Discard()
	}

	text, err := template.ParseFS(textFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text templates: %w", err)
	}

	return &Mailer{
		sender:  sender,
		baseURL: u,
		appName: appName,
		text:    text,
		logger:  log,
	}, nil
}

// SendConfirmation mails the account confirmation link.
func (m *Mailer) SendConfirmation(ctx context.Context, to, tok string) error {
	return m.send(ctx, confirmMessage, to, tok)
}

// SendPasswordReset mails the password reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, tok string) error {
	return m.send(ctx, resetMessage, to, tok)
}

// SendEmailChange mails the confirmation link to the new address.
func (m *Mailer) SendEmailChange(ctx context.Context, newEmail, tok string) error {
	return m.send(ctx, changeEmailMessage, newEmail, tok)
}

// Link builds the URL a token is redeemed at.
func (m *Mailer) Link(path, tok string) string {
	u := *m.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = url.Values{"token": {tok}}.Encode()
	return u.String()
}

func (m *Mailer) send(ctx context.Context, msg message, to, tok string) error {
	data := view{
		AppName: m.appName,
		Link:    m.Link(msg.path, tok),
		Email:   to,
	}

	html, err := templates.Render(ctx, msg.html(data))
	if err != nil {
		return fmt.Errorf("failed to render %s html: %w", msg.name, err)
	}
	var text bytes.Buffer
	if err := m.text.ExecuteTemplate(&text, msg.name+".txt", data); err != nil {
		return fmt.Errorf("failed to render %s text: %w", msg.name, err)
	}

	if err := m.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  fmt.Sprintf(msg.subject, m.appName),
		BodyHTML: html,
		BodyText: text.String(),
		Tag:      msg.tag,
	}); err != nil {
		return err
	}

	m.logger.DebugContext(ctx, "account email sent",
		logger.Component("mailer"),
		slog.String("tag", msg.tag),
	)
	return nil
}
