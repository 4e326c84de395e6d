package mail_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nutrilabel/auth-service/internal/mail"
)

func TestBuildMessage(t *testing.T) {
	msg := string(mail.BuildMessage("no-reply@x.com", "bob@x.com", "Hello", "line one"))

	assert.True(t, strings.HasPrefix(msg, "From: no-reply@x.com\r\n"))
	assert.Contains(t, msg, "To: bob@x.com\r\n")
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.Contains(t, msg, "\r\n\r\nline one")
}

func TestResetMessage(t *testing.T) {
	link := "http://localhost:5173/reset-password?token=abc123"
	subject, body := mail.ResetMessage(link)

	assert.Equal(t, "Reset your password", subject)
	assert.Contains(t, body, link)
	assert.Contains(t, body, "expires in 1 hour")
}
