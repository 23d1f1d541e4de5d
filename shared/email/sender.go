package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
	"strconv"

	"album-pulse/internal/models"
	"album-pulse/shared/config"
)

type Sender struct {
	config       *config.EmailConfig
	templatePath string
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config:       cfg,
		templatePath: "agents/album-analytics/email_template.html",
	}
}

// SendDigest renders the analytics digest and mails it.
func (s *Sender) SendDigest(report *models.DigestReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if len(report.Rows) == 0 {
		return nil // Nothing computed, nothing to say
	}

	subject := fmt.Sprintf("%s Analytics - %d/%d Tracks Matched (%s)",
		report.AlbumTitle, report.Matched, len(report.Rows), report.Date.Format("Jan 2, 2006"))

	body, err := s.generateEmailBody(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	return s.sendViaSMTP(subject, htmlBody)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

func (s *Sender) generateEmailBody(report *models.DigestReport) (string, error) {
	// Read template from external file
	tmplBytes, err := os.ReadFile(s.templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to read email template: %w", err)
	}

	tmpl := template.New("email").Funcs(template.FuncMap{
		"num":   formatNullInt,
		"score": formatNullFloat,
		"label": formatNullString,
	})

	tmpl, err = tmpl.Parse(string(tmplBytes))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func formatNullInt(p *int64) string {
	if p == nil {
		return "–"
	}
	return strconv.FormatInt(*p, 10)
}

func formatNullFloat(p *float64) string {
	if p == nil {
		return "–"
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

func formatNullString(p *string) string {
	if p == nil {
		return "–"
	}
	return *p
}
