package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/surveyhustler-api/pkg/config"
)

func TestSMTPMailerSend(t *testing.T) {
	m := NewSMTPMailer(config.MailConfig{Host: "smtp.test", Port: 2525, Sender: "bot@test.io"}, nil)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotBody = addr, from, to, msg
		return nil
	}

	require.NoError(t, m.Send(context.Background(), OTPMessage("ada@example.com", "123456", 5)))
	assert.Equal(t, "smtp.test:2525", gotAddr)
	assert.Equal(t, "bot@test.io", gotFrom)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	assert.Contains(t, string(gotBody), "123456")
	assert.Contains(t, string(gotBody), "Subject: Your verification code\r\n")
}

func TestSMTPMailerRejectsHeaderInjection(t *testing.T) {
	m := NewSMTPMailer(config.MailConfig{Host: "smtp.test", Port: 25}, nil)
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return nil }

	err := m.Send(context.Background(), Message{To: "a@b.co\r\nBcc: x@y.z", Subject: "hi"})
	assert.Error(t, err)
}

func TestSMTPMailerWrapsFailure(t *testing.T) {
	m := NewSMTPMailer(config.MailConfig{Host: "smtp.test", Port: 25}, nil)
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay down") }

	err := m.Send(context.Background(), Message{To: "a@b.co", Subject: "hi"})
	assert.ErrorContains(t, err, "relay down")
}
