package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/leadwatch/internal/dashboard"
)

type recordingSender struct {
	sent []EmailMessage
	fail map[string]error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	if err, ok := r.fail[msg.To]; ok {
		return err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func sampleLead() dashboard.Appointment {
	return dashboard.Appointment{
		ID:      "appt-1",
		Name:    "Amit Shah",
		Phone:   "555-0101",
		Email:   "amit@example.com",
		Service: "Consultation",
		Date:    "12 March 2025",
		Time:    "10:30 AM",
		Message: "First visit",
	}
}

func TestNewServiceDisabledWithoutSenderOrRecipients(t *testing.T) {
	assert.Nil(t, NewService(nil, []string{"x@y.test"}, nil))
	assert.Nil(t, NewService(&recordingSender{}, nil, nil))
}

func TestNotifyNewLeadNilServiceIsNoop(t *testing.T) {
	var s *Service
	assert.NoError(t, s.NotifyNewLead(context.Background(), sampleLead()))
}

func TestNotifyNewLeadSendsToAllRecipients(t *testing.T) {
	sender := &recordingSender{}
	s := NewService(sender, []string{"frontdesk@clinic.test", "manager@clinic.test"}, nil)
	require.NotNil(t, s)

	require.NoError(t, s.NotifyNewLead(context.Background(), sampleLead()))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "🆕 New Lead - Amit Shah", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].Body, "555-0101")
	assert.Contains(t, sender.sent[0].Body, "Consultation")
	assert.Contains(t, sender.sent[0].Body, "12 March 2025 at 10:30 AM")
}

func TestNotifyNewLeadPartialFailure(t *testing.T) {
	sender := &recordingSender{fail: map[string]error{
		"broken@clinic.test": errors.New("bounced"),
	}}
	s := NewService(sender, []string{"broken@clinic.test", "ok@clinic.test"}, nil)

	err := s.NotifyNewLead(context.Background(), sampleLead())
	assert.Error(t, err)
	// The healthy recipient still got the email.
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ok@clinic.test", sender.sent[0].To)
}
