package main

import (
	"fmt"
	"log/slog"

	"github.com/CameronXie/prosthesis-orders/internal/config"
	"github.com/CameronXie/prosthesis-orders/internal/notifier"
	"github.com/CameronXie/prosthesis-orders/internal/notifier/emailjs"
	"github.com/CameronXie/prosthesis-orders/internal/notifier/smtp"
)

// newNotifier builds the Notifier for the configured mail provider.
func newNotifier(cfg config.MailConfig, logger *slog.Logger) (notifier.Notifier, error) {
	logger.Info("initializing notifier", "provider", cfg.Provider)

	switch cfg.Provider {
	case config.MailProviderEmailJS:
		return emailjs.NewClient(emailjs.Config{
			ServiceID:  cfg.EmailJS.ServiceID,
			TemplateID: cfg.EmailJS.TemplateID,
			PublicKey:  cfg.EmailJS.PublicKey,
			PrivateKey: cfg.EmailJS.PrivateKey,
		}, nil), nil
	case config.MailProviderSMTP:
		client, err := smtp.NewClient(smtp.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			To:       cfg.SMTP.To,
		})
		if err != nil {
			return nil, err
		}

		return client, nil
	case config.MailProviderNone:
		return notifier.NewNoop(logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider %q", cfg.Provider)
	}
}
