package service

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"

	"bookinghub/internal/config"
	"bookinghub/internal/entities"

	"go.uber.org/zap"
)

// SenderService composes and delivers booking notifications. Email is the
// primary channel; SMS is used for short reminders when a phone number is
// on file.
type SenderService struct {
	cfg  *config.Config
	tmpl *template.Template
	log  *zap.Logger
}

func NewSenderService(cfg *config.Config, log *zap.Logger) *SenderService {
	tmplPath := filepath.Join("internal", "templates", "booking_email.html")
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		log.Warn("could not parse booking email template, emails will be plain text only",
			zap.String("path", tmplPath), zap.Error(err))
		tmpl = nil
	}
	return &SenderService{cfg: cfg, tmpl: tmpl, log: log}
}

// SendBookingEmail sends one booking notification. The call is synchronous;
// flows where delivery is not a hard requirement wrap it in a goroutine.
func (s *SenderService) SendBookingEmail(data entities.BookingEmailData) error {
	subject := fmt.Sprintf("Booking %s: %s", data.ActionText, data.ResourceName)

	var plainBody string
	switch data.Action {
	case entities.EmailActionCancelled:
		plainBody = fmt.Sprintf(
			"Hello %s,\n\nYour booking has been cancelled.\n\n"+
				"Booking Details:\n"+
				"Resource: %s\n"+
				"Location: %s\n"+
				"Time: %s to %s\n"+
				"Booking ID: %s\n\n"+
				"You can make a new booking anytime on the platform.\n\n"+
				"Thank you for using BookingHub!",
			data.UserName, data.ResourceName, data.Location,
			data.StartTimeFormatted, data.EndTimeFormatted, data.BookingID,
		)
	default:
		plainBody = fmt.Sprintf(
			"Hello %s,\n\nYour booking has been %s.\n\n"+
				"Booking Details:\n"+
				"Resource: %s\n"+
				"Location: %s\n"+
				"Time: %s to %s\n"+
				"Booking ID: %s\n\n"+
				"Please arrive on time and bring a valid ID for verification.\n"+
				"If you need to cancel or modify your booking, please do so at least 1 hour in advance.\n\n"+
				"Thank you for using BookingHub!",
			data.UserName, data.ActionText, data.ResourceName, data.Location,
			data.StartTimeFormatted, data.EndTimeFormatted, data.BookingID,
		)
	}

	var htmlBody string
	if s.tmpl != nil {
		var buf bytes.Buffer
		if err := s.tmpl.Execute(&buf, data); err != nil {
			s.log.Warn("booking email template failed to render",
				zap.String("booking_id", data.BookingID), zap.Error(err))
		} else {
			htmlBody = buf.String()
		}
	}
	if htmlBody == "" {
		htmlBody = "<pre>" + template.HTMLEscapeString(plainBody) + "</pre>"
	}

	return s.sendWithSendGrid(data.Recipient, data.UserName, subject, plainBody, htmlBody)
}

// SendBookingSMS sends a short notification to a phone number in E.164
// format. Reminder flows treat failures as non-fatal.
func (s *SenderService) SendBookingSMS(phone, message string) error {
	return s.sendWithTwilio(phone, message)
}
