package smtp

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/hotel-console/internal/lib/sl"
)

// ErrNoRecipients письмо без адресатов.
var ErrNoRecipients = errors.New("no recipients")

// Mailer собирает MIME-сообщение и отправляет его через транспорт.
type Mailer struct {
	transport TransportInterface
	log       *slog.Logger
}

// NewMailer создает Mailer.
func NewMailer(transport TransportInterface, log *slog.Logger) *Mailer {
	return &Mailer{transport: transport, log: log}
}

// BuildMessage формирует текстовое письмо в UTF-8.
func BuildMessage(from string, to []string, subject, body string) string {
	return strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")
}

// Send отправляет письмо всем адресатам.
func (m *Mailer) Send(to []string, subject, body string) error {
	const op = "smtp.Send"
	if len(to) == 0 {
		return fmt.Errorf("%s: %w", op, ErrNoRecipients)
	}
	from := m.transport.GetSMTPUser()

	client, err := m.transport.Connect()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		m.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return fmt.Errorf("%s: mail: %w", op, err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			m.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return fmt.Errorf("%s: rcpt: %w", op, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: data: %w", op, err)
	}
	if _, err := wc.Write([]byte(BuildMessage(from, to, subject, body))); err != nil {
		_ = wc.Close()
		return fmt.Errorf("%s: write: %w", op, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("%s: close data: %w", op, err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("%s: quit: %w", op, err)
	}

	m.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
