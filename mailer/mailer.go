// Package mailer delivers plain-text notifications over SMTP, the Resend
// API, or the application log.
package mailer

import (
	"context"
	"fmt"

	"github.com/daromanx/qa-tracker/auth"
	"github.com/daromanx/qa-tracker/config"
	"github.com/daromanx/qa-tracker/logger"
	"go.uber.org/zap"
)

// New picks the sender configured by MAIL_PROVIDER.
func New(env *config.Env, log *zap.Logger) (auth.Notifier, error) {
	switch env.MailProvider {
	case "smtp":
		return NewSMTPSender(SMTPConfig{
			Host:     env.SMTPHost,
			Port:     env.SMTPPort,
			Username: env.SMTPUser,
			Password: env.SMTPPassword,
			From:     env.MailFrom,
		}), nil
	case "resend":
		return NewResendSender(env.ResendAPIKey, env.MailFrom)
	case "log":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", env.MailProvider)
	}
}

// LogSender writes messages to the log instead of sending them. It is for
// development only: bodies carry MFA codes and reset links in clear, so the
// recipient is the only field masked.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, subject, body, to string) error {
	s.log.Info("email",
		zap.String("to", logger.MaskEmail(to)),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
