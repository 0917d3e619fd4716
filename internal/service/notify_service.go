package service

import (
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

func (s *SenderService) sendWithSendGrid(toEmail, toName, subject, plainBody, htmlBody string) error {
	if s.cfg.SendGridAPIKey == "" {
		s.log.Warn("SENDGRID_API_KEY not configured, email not sent", zap.String("to", toEmail))
		return fmt.Errorf("SENDGRID_API_KEY not configured")
	}
	if s.cfg.SendGridFromEmail == "" {
		s.log.Warn("SENDGRID_FROM_EMAIL not configured, email not sent", zap.String("to", toEmail))
		return fmt.Errorf("SENDGRID_FROM_EMAIL not configured")
	}

	from := mail.NewEmail(s.cfg.SendGridFromName, s.cfg.SendGridFromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainBody, htmlBody)

	client := sendgrid.NewSendClient(s.cfg.SendGridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email via SendGrid: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("SendGrid returned status %d: %s", response.StatusCode, response.Body)
	}

	s.log.Info("booking email sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

func (s *SenderService) sendWithTwilio(toNumber, messageBody string) error {
	if s.cfg.TwilioAccountSID == "" || s.cfg.TwilioAuthToken == "" || s.cfg.TwilioFromNumber == "" {
		return fmt.Errorf("twilio credentials not fully configured")
	}
	if !strings.HasPrefix(toNumber, "+") {
		s.log.Warn("destination number is not E.164, SMS may fail", zap.String("to", toNumber))
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: s.cfg.TwilioAccountSID,
		Password: s.cfg.TwilioAuthToken,
	})

	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(s.cfg.TwilioFromNumber)
	params.SetBody(messageBody)

	if _, err := client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	s.log.Info("booking SMS sent", zap.String("to", toNumber))
	return nil
}
