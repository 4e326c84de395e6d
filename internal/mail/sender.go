package mail

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Sender delivers mail through an authenticated SMTP relay.
type Sender struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

func NewSender(host, port, user, pass, from string) *Sender {
	return &Sender{Host: host, Port: port, User: user, Pass: pass, From: from}
}

func (s *Sender) Send(to, subject, body string) error {
	addr := s.Host + ":" + s.Port
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	msg := BuildMessage(s.From, to, subject, body)
	if err := smtp.SendMail(addr, auth, s.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// BuildMessage assembles a minimal RFC 5322 plain-text message.
func BuildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// ResetMessage renders the forgot-password mail. The link embeds the
// opaque token as a query parameter and is valid for about an hour.
func ResetMessage(link string) (subject, body string) {
	subject = "Reset your password"
	body = "We received a request to reset your password.\r\n" +
		"\r\n" +
		"Open the link below to choose a new one. The link expires in 1 hour.\r\n" +
		"\r\n" +
		link + "\r\n" +
		"\r\n" +
		"If you did not request a reset, you can ignore this email.\r\n"
	return subject, body
}
