package service

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Notifier is the outbound notification collaborator. Implementations are
// best-effort: callers log failures and never let them roll back a committed
// state change.
type Notifier interface {
	Envoyer(ctx context.Context, destinataire, sujet, corpsHTML string) error
}

type emailNotifier struct {
	client    *resend.Client
	fromEmail string
	fromName  string
	logger    *zap.Logger
}

// NewEmailNotifier returns a Notifier backed by the Resend API.
func NewEmailNotifier(apiKey, fromEmail, fromName string, logger *zap.Logger) Notifier {
	return &emailNotifier{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
}

func (n *emailNotifier) Envoyer(ctx context.Context, destinataire, sujet, corpsHTML string) error {
	if destinataire == "" {
		return fmt.Errorf("destinataire manquant")
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", n.fromName, n.fromEmail),
		To:      []string{destinataire},
		Subject: sujet,
		Html:    corpsHTML,
	}

	sent, err := n.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		n.logger.Error("echec de l'envoi de l'email",
			zap.Error(err),
			zap.String("destinataire", destinataire),
			zap.String("sujet", sujet))
		return fmt.Errorf("echec de l'envoi de l'email: %w", err)
	}

	n.logger.Info("email envoye",
		zap.String("email_id", sent.Id),
		zap.String("destinataire", destinataire),
		zap.String("sujet", sujet))

	return nil
}

type nopNotifier struct {
	logger *zap.Logger
}

// NewNopNotifier returns a Notifier that only logs. Used in development when
// no email API key is configured.
func NewNopNotifier(logger *zap.Logger) Notifier {
	return &nopNotifier{logger: logger}
}

func (n *nopNotifier) Envoyer(ctx context.Context, destinataire, sujet, corpsHTML string) error {
	n.logger.Info("notification ignoree (aucun client email configure)",
		zap.String("destinataire", destinataire),
		zap.String("sujet", sujet))
	return nil
}
