package dashboard

import "errors"

var (
	// ErrUnauthorized is returned when the dashboard API rejects the session.
	// Callers must redirect to login; the watcher stops polling and does not retry.
	ErrUnauthorized = errors.New("dashboard: unauthorized")

	// ErrAppointmentNotFound is returned when an appointment id is not in the current list
	ErrAppointmentNotFound = errors.New("dashboard: appointment not found")

	// ErrInvalidStatus is returned when a status update carries an unknown status value
	ErrInvalidStatus = errors.New("dashboard: invalid status")

	// ErrWatcherStopped is returned when an operation is attempted after Stop.
	ErrWatcherStopped = errors.New("dashboard: watcher stopped")
)
