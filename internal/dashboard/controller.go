package dashboard

import (
	"context"
	"strings"
	"sync"

	"github.com/clinicops/leadwatch/pkg/logging"
)

// StatusAll disables status filtering.
const StatusAll = "all"

// StatusUpdater persists appointment status changes.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// Controller holds the filtered/searched projection of the appointment list
// and handles optimistic status mutation, independent of the polling loop.
type Controller struct {
	mu            sync.RWMutex
	appointments  []Appointment
	stats         Stats
	statusFilter  string
	searchTerm    string
	dateFilter    string
	serviceFilter string
	updatingID    string

	updater StatusUpdater
	logger  *logging.Logger
}

// NewController creates a view controller backed by the given status updater.
func NewController(updater StatusUpdater, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{
		statusFilter: StatusAll,
		updater:      updater,
		logger:       logger,
	}
}

// Apply replaces the source data with the result of a successful fetch.
func (c *Controller) Apply(data *DashboardData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appointments = append([]Appointment(nil), data.Appointments...)
	c.stats = data.Stats
}

// Appointments returns a copy of the unfiltered source list.
func (c *Controller) Appointments() []Appointment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Appointment(nil), c.appointments...)
}

// Stats returns the latest summary statistics.
func (c *Controller) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// SetStatusFilter filters by exact status, or StatusAll to disable.
func (c *Controller) SetStatusFilter(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusFilter = status
}

// SetSearchTerm filters by case-insensitive substring across name, email,
// phone and service.
func (c *Controller) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchTerm = term
}

// SetDateFilter filters by exact date string match.
func (c *Controller) SetDateFilter(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dateFilter = date
}

// SetServiceFilter filters by exact service match.
func (c *Controller) SetServiceFilter(service string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serviceFilter = service
}

// ClearFilters resets every filter and the search term.
func (c *Controller) ClearFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusFilter = StatusAll
	c.searchTerm = ""
	c.dateFilter = ""
	c.serviceFilter = ""
}

// UpdatingID returns the id of the in-flight status update, if any.
func (c *Controller) UpdatingID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatingID
}

// Filtered returns the appointments satisfying the AND of all active predicates.
func (c *Controller) Filtered() []Appointment {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Appointment
	for _, appt := range c.appointments {
		if c.matches(appt) {
			out = append(out, appt)
		}
	}
	return out
}

func (c *Controller) matches(appt Appointment) bool {
	if c.statusFilter != "" && c.statusFilter != StatusAll && string(appt.Status) != c.statusFilter {
		return false
	}
	if c.dateFilter != "" && appt.Date != c.dateFilter {
		return false
	}
	if c.serviceFilter != "" && appt.Service != c.serviceFilter {
		return false
	}
	if c.searchTerm != "" && !matchesSearch(appt, c.searchTerm) {
		return false
	}
	return true
}

func matchesSearch(appt Appointment, term string) bool {
	needle := strings.ToLower(term)
	for _, field := range []string{appt.Name, appt.Email, appt.Phone, appt.Service} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// UpdateStatus applies the new status locally first, then persists it.
// On persistence failure the optimistic value stands: the mismatch is logged
// and the error returned so callers can offer a retry, but the local record
// is deliberately not rolled back.
func (c *Controller) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	c.mu.Lock()
	idx := -1
	for i := range c.appointments {
		if c.appointments[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return ErrAppointmentNotFound
	}
	c.appointments[idx].Status = status
	c.updatingID = id
	c.mu.Unlock()

	err := c.updater.UpdateStatus(ctx, id, status)

	c.mu.Lock()
	if c.updatingID == id {
		c.updatingID = ""
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("status update failed, local state kept optimistic",
			"id", id, "status", status, "error", err)
		return err
	}
	return nil
}
