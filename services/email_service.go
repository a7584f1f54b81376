package services

import (
	"context"
	"fmt"
	"time"

	"bankly/config"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

// FraudAlert данные для уведомления владельца о заблокированной операции
type FraudAlert struct {
	Email         string
	FullName      string
	AccountNumber string
	Amount        decimal.Decimal
	Type          string
	Score         float64
	At            time.Time
}

// Notifier отправляет уведомления владельцам счетов
type Notifier interface {
	NotifyFraudBlocked(ctx context.Context, alert FraudAlert) error
}

// EmailService предоставляет методы для отправки email
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg config.SMTPConfig) *EmailService {
	dialer := gomail.NewDialer(
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.From,
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("ошибка отправки email: %w", err)
	}

	return nil
}

// NotifyFraudBlocked сообщает владельцу, что операция заблокирована
func (s *EmailService) NotifyFraudBlocked(ctx context.Context, alert FraudAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.SendEmail(alert.Email, "Transaction blocked", fraudAlertBody(alert))
}

func fraudAlertBody(alert FraudAlert) string {
	return fmt.Sprintf(`
		<h2>Transaction blocked</h2>
		<p>Dear %s,</p>
		<p>A %s of %s from account %s was flagged as suspicious and was not processed.</p>
		<p>Date: %s</p>
		<p>If this was you, please contact support.</p>
	`, alert.FullName, alert.Type, alert.Amount.StringFixed(2), alert.AccountNumber, alert.At.Format("02.01.2006 15:04:05"))
}

// NopNotifier используется, когда отправка почты выключена
type NopNotifier struct{}

func (NopNotifier) NotifyFraudBlocked(context.Context, FraudAlert) error { return nil }
