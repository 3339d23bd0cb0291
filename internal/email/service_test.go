package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/eventhub-auth/internal/config"
	"github.com/redmonkez12/eventhub-auth/internal/notification"
	"github.com/redmonkez12/eventhub-auth/internal/token"
)

type capturedMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestService(user string) (*Service, *[]capturedMail) {
	var sent []capturedMail
	s := NewService(config.EmailConfig{
		SMTPHost:     "smtp.example.com",
		SMTPPort:     "587",
		SMTPUser:     user,
		SMTPPassword: "secret",
		FromAddress:  "no-reply@eventhub.example",
		PublicAPIURL: "https://api.example.com/",
	}, config.AuthConfig{
		VerificationTokenDuration: 24 * time.Hour,
		ResetTokenDuration:        time.Hour,
	})
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, capturedMail{addr: addr, auth: a, from: from, to: to, msg: string(msg)})
		return nil
	}
	return s, &sent
}

func TestService_SendVerification(t *testing.T) {
	s, sent := newTestService("mailer")
	msg := notification.NewMessage("a@x.com", "abc.def.ghi", token.PurposeSignupVerification, time.Now())

	require.NoError(t, s.Send(context.Background(), msg))
	require.Len(t, *sent, 1)

	got := (*sent)[0]
	assert.Equal(t, "smtp.example.com:587", got.addr)
	assert.NotNil(t, got.auth)
	assert.Equal(t, "no-reply@eventhub.example", got.from)
	assert.Equal(t, []string{"a@x.com"}, got.to)
	assert.Contains(t, got.msg, "Subject: Verify your email address\r\n")
	assert.Contains(t, got.msg, "https://api.example.com/auth/verify?token=abc.def.ghi")
	assert.Contains(t, got.msg, "expires in 1 day")
}

func TestService_SendPasswordReset(t *testing.T) {
	s, sent := newTestService("")
	msg := notification.NewMessage("a@x.com", "tok", token.PurposeForgotPassword, time.Now())

	require.NoError(t, s.Send(context.Background(), msg))
	require.Len(t, *sent, 1)

	got := (*sent)[0]
	assert.Nil(t, got.auth)
	assert.Contains(t, got.msg, "Subject: Reset your password\r\n")
	assert.Contains(t, got.msg, "https://api.example.com/auth/reset-password?token=tok")
	assert.Contains(t, got.msg, "expires in 1 hour")
}

func TestService_RejectsUnknownPurpose(t *testing.T) {
	s, sent := newTestService("")
	msg := notification.NewMessage("a@x.com", "tok", token.PurposeSession, time.Now())

	assert.Error(t, s.Send(context.Background(), msg))
	assert.Empty(t, *sent)
}

func TestService_PropagatesSMTPErrors(t *testing.T) {
	s, _ := newTestService("")
	boom := errors.New("dial tcp: connection refused")
	s.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err := s.Send(context.Background(), notification.NewMessage("a@x.com", "tok", token.PurposeForgotPassword, time.Now()))
	assert.ErrorIs(t, err, boom)
}

func TestService_EscapesTokenInLink(t *testing.T) {
	s, _ := newTestService("")

	_, body, err := s.Render(notification.NewMessage("a@x.com", "a+b/c", token.PurposeForgotPassword, time.Now()))
	require.NoError(t, err)
	assert.Contains(t, body, "token=a%2Bb%2Fc")
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "1 day", humanDuration(24*time.Hour))
	assert.Equal(t, "2 days", humanDuration(48*time.Hour))
	assert.Equal(t, "90 minutes", humanDuration(90*time.Minute))
	assert.Equal(t, "1 hour", humanDuration(time.Hour))
	assert.Equal(t, "1m30s", humanDuration(90*time.Second))
}
