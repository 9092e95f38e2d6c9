package mail

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "mail.example.com"})
	require.Error(t, err)

	m, err := NewSMTPMailer(SMTPSettings{Enabled: true, Host: "mail.example.com", Port: 587})
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestSendWhenDisabledReturnsSentinel(t *testing.T) {
	m, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)

	err = m.Send(context.Background(), Message{To: "user@example.com"})
	require.ErrorIs(t, err, ErrSMTPDisabled)
}

func TestSendValidatesAddresses(t *testing.T) {
	m := &smtpMailer{cfg: SMTPSettings{Enabled: true, Host: "h", Port: 25, From: "noreply@example.com"}}

	err := m.Send(context.Background(), Message{To: ""})
	require.Error(t, err)

	err = m.Send(context.Background(), Message{To: "not-an-address"})
	require.Error(t, err)
}

func TestFormatMessageEscapesHeaderInjection(t *testing.T) {
	out := formatMessage("a@example.com", "b@example.com", "Hi\r\nBcc: c@example.com", "body")

	require.NotContains(t, out, "Bcc: c@example.com\r\n")
	require.True(t, strings.HasSuffix(out, "\r\n"+"body"))
	require.Contains(t, out, "Content-Type: text/plain; charset=UTF-8")
}
