package distribute

import (
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
)

const mailSubject = "Code Review Meeting Summary"

var mailBodyTemplate = template.Must(template.New("summary").Parse(
	`<h2>Meeting Summary</h2><p>{{.Summary}}</p><h3>Action Items</h3><ul>{{range .ActionItems}}<li>{{.Task}} (Assignee: {{if .Assignee}}{{.Assignee}}{{else}}N/A{{end}})</li>{{end}}</ul>`))

// MailConfig configures the email destination.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// sender abstracts SMTP delivery so the adapter is testable without a server.
type sender func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// MailAdapter sends the summary as an HTML email over SMTP with STARTTLS.
type MailAdapter struct {
	cfg  MailConfig
	send sender
}

// NewMailAdapter creates a MailAdapter.
func NewMailAdapter(cfg MailConfig) *MailAdapter {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	m := &MailAdapter{cfg: cfg}
	m.send = m.sendSTARTTLS
	return m
}

func (m *MailAdapter) Name() string { return "mail" }

// Distribute renders and sends the summary email.
func (m *MailAdapter) Distribute(ctx context.Context, rec *analyze.Record) (*Result, error) {
	if m.cfg.Host == "" || m.cfg.From == "" || len(m.cfg.To) == 0 {
		return nil, fmt.Errorf("%w: smtp host, sender, and recipients are required", rcerrors.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg, err := m.buildMessage(rec)
	if err != nil {
		return nil, fmt.Errorf("rendering summary email: %w", err)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, m.cfg.To, msg); err != nil {
		return nil, fmt.Errorf("sending summary email: %w", err)
	}

	return &Result{Created: 1, Detail: strings.Join(m.cfg.To, ", ")}, nil
}

func (m *MailAdapter) buildMessage(rec *analyze.Record) ([]byte, error) {
	var body strings.Builder
	if err := mailBodyTemplate.Execute(&body, rec); err != nil {
		return nil, err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(m.cfg.To, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mailSubject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body.String())

	return []byte(msg.String()), nil
}

// sendSTARTTLS dials the server, upgrades the connection, authenticates, and
// submits the message.
func (m *MailAdapter) sendSTARTTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return err
		}
	}
	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("%w: smtp auth rejected: %v", rcerrors.ErrUnauthorized, err)
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
