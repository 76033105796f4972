package smtp

import (
	"context"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"

	"github.com/CameronXie/prosthesis-orders/internal/notifier"
)

const subjectPrefix = "Nueva prótesis registrada"

var bodyTemplate = template.Must(template.New("order").Parse(`<!DOCTYPE html>
<html>
<body>
<h2>Nueva prótesis registrada</h2>
<table cellpadding="4">
<tr><td><strong>Paciente</strong></td><td>{{.Patient}}</td></tr>
<tr><td><strong>DNI</strong></td><td>{{.NationalID}}</td></tr>
<tr><td><strong>Médico</strong></td><td>{{.Physician}}</td></tr>
<tr><td><strong>Empresa</strong></td><td>{{.Company}}</td></tr>
<tr><td><strong>Tubos</strong></td><td>{{.Tubes}}</td></tr>
<tr><td><strong>Recibe</strong></td><td>{{.Receiver}}</td></tr>
<tr><td><strong>Fecha de recepción</strong></td><td>{{.ReceptionDate}}</td></tr>
<tr><td><strong>Notas</strong></td><td>{{.Notes}}</td></tr>
</table>
</body>
</html>
`))

// Config holds the SMTP relay and envelope settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Sender delivers rendered messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Client renders notifications as HTML and sends them over SMTP
type Client struct {
	cfg    Config
	sender Sender
}

// NewClient creates a Client authenticating with PLAIN auth and STARTTLS when offered.
func NewClient(cfg Config) (*Client, error) {
	mailClient, err := mail.NewClient(
		cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return NewClientWithSender(cfg, mailClient), nil
}

// NewClientWithSender creates a Client delivering through sender.
func NewClientWithSender(cfg Config, sender Sender) *Client {
	return &Client{
		cfg:    cfg,
		sender: sender,
	}
}

// Notify implements notifier.Notifier.
func (c *Client) Notify(ctx context.Context, n notifier.Notification) error {
	msg, err := c.message(n)
	if err != nil {
		return err
	}

	if err := c.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send smtp message: %w", err)
	}

	return nil
}

func (c *Client) message(n notifier.Notification) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(c.cfg.From); err != nil {
		return nil, fmt.Errorf("set from address: %w", err)
	}

	if err := msg.To(c.cfg.To); err != nil {
		return nil, fmt.Errorf("set to address: %w", err)
	}

	msg.Subject(fmt.Sprintf("%s: %s", subjectPrefix, n.Patient))
	if err := msg.SetBodyHTMLTemplate(bodyTemplate, n); err != nil {
		return nil, fmt.Errorf("render message body: %w", err)
	}

	return msg, nil
}
