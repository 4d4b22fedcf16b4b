package invoice

import (
	"context"
	"fmt"
	"net/smtp"

	"assessment-gateway/internal/config"
	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/models"
)

// SMTPMailer sends receipt emails through a plain-auth SMTP relay.
type SMTPMailer struct {
	cfg    config.EmailConfig
	logger *logger.Logger
}

func NewSMTPMailer(cfg config.EmailConfig, log *logger.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: log}
}

func (m *SMTPMailer) SendReceipt(ctx context.Context, email string, inv *models.Invoice) error {
	if m.cfg.SMTPUsername == "" {
		m.logger.Warn("EMAIL", "SMTP not configured, skipping receipt for "+inv.Number)
		return nil
	}

	body := fmt.Sprintf(
		"To: %s\r\nFrom: %s\r\nSubject: Your receipt %s\r\n\r\n"+
			"Thank you for your purchase.\r\n\r\n"+
			"Invoice:    %s\r\nAssessment: %s\r\nAmount:     %.2f %s\r\nIssued:     %s\r\n",
		email, m.cfg.FromAddress, inv.Number,
		inv.Number, inv.AssessmentType, inv.Amount, inv.Currency,
		inv.IssuedAt.Format("2006-01-02 15:04 UTC"))

	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)

	if err := smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{email}, []byte(body)); err != nil {
		return fmt.Errorf("send receipt %s: %w", inv.Number, err)
	}
	m.logger.Info("EMAIL", fmt.Sprintf("receipt %s sent to %s", inv.Number, email))
	return nil
}
