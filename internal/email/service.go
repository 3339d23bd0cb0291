package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"net/url"
	"strings"
	"time"

	"github.com/redmonkez12/eventhub-auth/internal/config"
	"github.com/redmonkez12/eventhub-auth/internal/logging"
	"github.com/redmonkez12/eventhub-auth/internal/notification"
	"github.com/redmonkez12/eventhub-auth/internal/token"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type emailTemplate struct {
	subject string
	path    string // route on this API the link points to
	tmpl    *template.Template
}

// Service renders link emails and sends them over SMTP. It implements
// notification.Sender.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	publicAPIURL string
	templates    map[token.Purpose]emailTemplate
	send         sendFunc
}

func NewService(cfg config.EmailConfig, auth config.AuthConfig) *Service {
	from := cfg.FromAddress
	if from == "" {
		from = cfg.SMTPUser
	}

	return &Service{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUser:     cfg.SMTPUser,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    from,
		publicAPIURL: strings.TrimRight(cfg.PublicAPIURL, "/"),
		templates: map[token.Purpose]emailTemplate{
			token.PurposeSignupVerification: {
				subject: "Verify your email address",
				path:    "/auth/verify",
				tmpl:    mustParse("verification", verificationTemplate, auth.VerificationTokenDuration),
			},
			token.PurposeForgotPassword: {
				subject: "Reset your password",
				path:    "/auth/reset-password",
				tmpl:    mustParse("passwordReset", passwordResetTemplate, auth.ResetTokenDuration),
			},
		},
		send: smtp.SendMail,
	}
}

// Send renders the email for msg.Purpose and delivers it. It is called from
// notification workers, which retry on error.
func (s *Service) Send(ctx context.Context, msg notification.Message) error {
	logger := logging.GetLoggerFromContext(ctx)

	subject, body, err := s.Render(msg)
	if err != nil {
		logger.Error("failed to render email template", "purpose", msg.Purpose, "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(msg.To, subject, body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// Render returns the subject and HTML body for msg.
func (s *Service) Render(msg notification.Message) (subject, body string, err error) {
	t, ok := s.templates[msg.Purpose]
	if !ok {
		return "", "", fmt.Errorf("no template for purpose %q", msg.Purpose)
	}

	link := fmt.Sprintf("%s%s?token=%s", s.publicAPIURL, t.path, url.QueryEscape(msg.Token))

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, struct{ Link string }{Link: link}); err != nil {
		return "", "", fmt.Errorf("execute template: %w", err)
	}

	return t.subject, buf.String(), nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	var auth smtp.Auth
	if s.smtpUser != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	}

	// Build message
	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := net.JoinHostPort(s.smtpHost, s.smtpPort)
	return s.send(addr, auth, s.fromEmail, []string{to}, msg)
}

func mustParse(name, text string, ttl time.Duration) *template.Template {
	return template.Must(template.New(name).Funcs(template.FuncMap{
		"expiry": func() string { return humanDuration(ttl) },
	}).Parse(text))
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "soon"
	case d%(24*time.Hour) == 0:
		return plural(int(d/(24*time.Hour)), "day")
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
