// Package mailer sends transactional email through a primary API provider
// with an SMTP fallback.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"salon-booking/pkg/utils"

	"go.uber.org/zap"
)

type Message struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers a single message.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// DeliveryError reports that no configured sender accepted the message.
// Attempts holds the error of each sender in order.
type DeliveryError struct {
	To       string
	Attempts map[string]error
}

func (e *DeliveryError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for name, err := range e.Attempts {
		parts = append(parts, name+": "+err.Error())
	}
	return fmt.Sprintf("email to %s not delivered (%s)", e.To, strings.Join(parts, "; "))
}

func (e *DeliveryError) Unwrap() error {
	return utils.ErrUpstream
}

// IsDeliveryError reports whether err is a DeliveryError.
func IsDeliveryError(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}

// FallbackSender tries each sender in order until one succeeds.
type FallbackSender struct {
	senders []Sender
	log     *zap.Logger
}

func NewFallbackSender(log *zap.Logger, senders ...Sender) *FallbackSender {
	return &FallbackSender{
		senders: senders,
		log:     log.With(zap.String("component", "mailer")),
	}
}

func (f *FallbackSender) Name() string { return "fallback" }

func (f *FallbackSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("send email: %w: empty recipient", utils.ErrValidation)
	}

	attempts := make(map[string]error)
	for _, s := range f.senders {
		err := s.Send(ctx, msg)
		if err == nil {
			f.log.Info("Email sent",
				zap.String("provider", s.Name()),
				zap.String("to", msg.To),
				zap.String("subject", msg.Subject),
			)
			return nil
		}
		f.log.Warn("Email provider failed",
			zap.String("provider", s.Name()),
			zap.String("to", msg.To),
			zap.Error(err),
		)
		attempts[s.Name()] = err
	}

	if len(attempts) == 0 {
		attempts["none"] = errors.New("no email provider configured")
	}

	return &DeliveryError{To: msg.To, Attempts: attempts}
}

// New builds the sender chain from configuration. Providers without
// credentials are skipped.
func New(config utils.EmailConfig, log *zap.Logger) *FallbackSender {
	var senders []Sender
	if config.BrevoAPIKey != "" {
		senders = append(senders, NewBrevoSender(config, nil))
	}
	if config.Host != "" {
		senders = append(senders, NewSMTPSender(config))
	}
	return NewFallbackSender(log, senders...)
}
