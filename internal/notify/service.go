package notify

import (
	"context"
	"fmt"

	"github.com/clinicops/leadwatch/internal/dashboard"
	"github.com/clinicops/leadwatch/pkg/logging"
)

// Service forwards newly detected leads to clinic operators by email.
// It is an optional extra alert channel alongside the in-app dispatcher.
type Service struct {
	email      EmailSender
	recipients []string
	logger     *logging.Logger
}

// NewService creates a notification service. Returns nil when the channel is
// unusable (no sender or no recipients), which callers treat as disabled.
func NewService(email EmailSender, recipients []string, logger *logging.Logger) *Service {
	if email == nil || len(recipients) == 0 {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:      email,
		recipients: recipients,
		logger:     logger,
	}
}

// NotifyNewLead emails every configured recipient about one new appointment.
// Individual send failures are collected so one bad recipient does not stop
// the rest.
func (s *Service) NotifyNewLead(ctx context.Context, appt dashboard.Appointment) error {
	if s == nil {
		return nil
	}

	subject := fmt.Sprintf("🆕 New Lead - %s", appt.Name)
	body := fmt.Sprintf(`A new appointment request has come in!

Name: %s
Phone: %s
Email: %s
Service: %s
Requested: %s at %s
Message: %s

Please follow up promptly.`,
		appt.Name, appt.Phone, appt.Email, appt.Service, appt.Date, appt.Time, appt.Message)

	var failed int
	for _, recipient := range s.recipients {
		msg := EmailMessage{
			To:      recipient,
			Subject: subject,
			Body:    body,
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send lead email", "error", err, "to", recipient)
			failed++
			continue
		}
		s.logger.Info("notify: lead email sent", "to", recipient, "appointment_id", appt.ID)
	}

	if failed > 0 {
		return fmt.Errorf("notify: %d email(s) failed", failed)
	}
	return nil
}
