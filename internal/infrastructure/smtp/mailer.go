package smtp

import (
	"fmt"
	"net/smtp"

	"github.com/notespace-api/internal/config"
)

// Mailer delivers login codes. The auth service treats delivery as an opaque
// collaborator: a failure here surfaces as a dependency error, it never rolls
// back an already-issued code.
type Mailer interface {
	SendLoginCode(to, code string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendLoginCode(to, code string) error {
	subject := "Your login code"
	body := fmt.Sprintf("Your login code is %s. It expires in 10 minutes.\r\n\r\nIf you did not request this code, you can ignore this email.", code)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}
