package services

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/templates"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

type EmailService interface {
	SendEmail(ctx context.Context, toEmail, toName, subject, plainText, htmlContent string) error
	SendWelcome(ctx context.Context, user *types.User) error
}

type emailService struct {
	log       *logger.Logger
	client    *sendgrid.Client
	fromEmail string
}

func NewEmailService(log *logger.Logger, apiKey, fromEmail string) (EmailService, error) {
	serviceLog := log.With("service", "EmailService")
	if apiKey == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if fromEmail == "" {
		serviceLog.Warn("SENDGRID_FROM_EMAIL not set; using fallback no-reply@aishadow.app")
		fromEmail = "no-reply@aishadow.app"
	}
	return &emailService{
		log:       serviceLog,
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
	}, nil
}

func (es *emailService) SendEmail(ctx context.Context, toEmail, toName, subject, plainText, htmlContent string) error {
	from := mail.NewEmail("AI Shadow", es.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	response, err := es.client.SendWithContext(ctx, message)
	if err != nil {
		es.log.Warn("Sendgrid email send failed", "error", err)
		return err
	}
	if response.StatusCode >= 300 {
		es.log.Warn("Sendgrid rejected email", "statusCode", response.StatusCode, "body", response.Body)
		return fmt.Errorf("sendgrid returned HTTP %d", response.StatusCode)
	}
	es.log.Info("Email sent", "to", toEmail, "statusCode", response.StatusCode)
	return nil
}

func (es *emailService) SendWelcome(ctx context.Context, user *types.User) error {
	html, err := templates.RenderWelcomeHTML(templates.WelcomeEmailData{
		RecipientName: user.Name,
		AvatarURL:     user.AvatarURL,
	})
	if err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}
	plain := fmt.Sprintf("Hi %s,\n\nYour AI Shadow account is ready. Sign in to start a conversation.", user.Name)
	return es.SendEmail(ctx, user.Email, user.Name, "Welcome to AI Shadow", plain, html)
}
