package services

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"marketplace_console_go/config"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

//go:embed emails/*
var emailTemplates embed.FS

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer sends transactional email
type Mailer interface {
	Send(email *Email) error
}

// ResendMailer sends through the Resend API, or only logs when EmailTestMode is on
type ResendMailer struct {
	cfg    *config.Config
	logger *zap.Logger
	client *resend.Client
}

// NewResendMailer creates a mailer from config
func NewResendMailer(cfg *config.Config, logger *zap.Logger) *ResendMailer {
	m := &ResendMailer{cfg: cfg, logger: logger}
	if cfg.ResendAPIKey != "" {
		m.client = resend.NewClient(cfg.ResendAPIKey)
	}
	return m
}

// Send delivers one email
func (m *ResendMailer) Send(email *Email) error {
	if m.cfg.EmailTestMode {
		m.logger.Info("email logged (test mode, not sent)",
			zap.Strings("to", email.To),
			zap.String("subject", email.Subject),
			zap.String("text", email.TextBody),
		)
		return nil
	}

	if m.client == nil {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", m.cfg.EmailFromName, m.cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}
	if params.Html == "" && params.Text == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	sent, err := m.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	m.logger.Info("email sent via Resend", zap.String("id", sent.Id), zap.Strings("to", email.To))
	return nil
}

// VendorWelcomeEmailData fills the vendor welcome templates.
// It deliberately has no password field.
type VendorWelcomeEmailData struct {
	OwnerName   string
	CompanyName string
	Email       string
	VendorID    string
	LoginURL    string
}

// BuildVendorWelcomeEmail renders the welcome mail sent after onboarding
func BuildVendorWelcomeEmail(data VendorWelcomeEmailData) (*Email, error) {
	htmlBody, err := renderHTML("emails/vendor_welcome.html", data)
	if err != nil {
		return nil, err
	}
	textBody, err := renderText("emails/vendor_welcome.txt", data)
	if err != nil {
		return nil, err
	}
	return &Email{
		To:       []string{data.Email},
		Subject:  fmt.Sprintf("Your %s seller account is ready", data.CompanyName),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}, nil
}

func renderHTML(name string, data interface{}) (string, error) {
	tmpl, err := htmltemplate.ParseFS(emailTemplates, name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderText(name string, data interface{}) (string, error) {
	tmpl, err := texttemplate.ParseFS(emailTemplates, name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
