package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUpdater struct {
	calls []string
	err   error
	block chan struct{}
}

func (s *stubUpdater) UpdateStatus(_ context.Context, id string, status Status) error {
	s.calls = append(s.calls, id+":"+string(status))
	if s.block != nil {
		<-s.block
	}
	return s.err
}

func seededController(updater StatusUpdater) *Controller {
	c := NewController(updater, nil)
	c.Apply(&DashboardData{
		Stats: Stats{TotalAppointments: 3},
		Appointments: []Appointment{
			{ID: "a1", Name: "Amit", Email: "amit@example.com", Phone: "555-0101", Service: "Consultation", Date: "12 March 2025", Status: StatusPending, CreatedAt: time.Now().UTC()},
			{ID: "a2", Name: "Priya", Email: "priya@example.com", Phone: "555-0102", Service: "Physiotherapy", Date: "13 March 2025", Status: StatusVisited, CreatedAt: time.Now().UTC()},
			{ID: "a3", Name: "Rohan", Email: "rohan@example.com", Phone: "555-0103", Service: "Consultation", Date: "12 March 2025", Status: StatusPending, CreatedAt: time.Now().UTC()},
		},
	})
	return c
}

func filteredIDs(c *Controller) []string {
	var ids []string
	for _, a := range c.Filtered() {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestFilteredDefaultReturnsAll(t *testing.T) {
	c := seededController(&stubUpdater{})
	assert.Equal(t, []string{"a1", "a2", "a3"}, filteredIDs(c))
	assert.Equal(t, 3, c.Stats().TotalAppointments)
}

func TestStatusFilter(t *testing.T) {
	c := seededController(&stubUpdater{})

	c.SetStatusFilter("pending")
	assert.Equal(t, []string{"a1", "a3"}, filteredIDs(c))

	c.SetStatusFilter("visited")
	assert.Equal(t, []string{"a2"}, filteredIDs(c))

	c.SetStatusFilter(StatusAll)
	assert.Len(t, c.Filtered(), 3)
}

func TestSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	c := seededController(&stubUpdater{})

	c.SetSearchTerm("aMiT")
	assert.Equal(t, []string{"a1"}, filteredIDs(c))

	c.SetSearchTerm("priya@")
	assert.Equal(t, []string{"a2"}, filteredIDs(c))

	c.SetSearchTerm("555-010")
	assert.Len(t, c.Filtered(), 3)

	c.SetSearchTerm("physio")
	assert.Equal(t, []string{"a2"}, filteredIDs(c))

	c.SetSearchTerm("nobody")
	assert.Empty(t, c.Filtered())
}

func TestFiltersAreConjunctive(t *testing.T) {
	c := seededController(&stubUpdater{})

	c.SetStatusFilter("pending")
	c.SetServiceFilter("Consultation")
	c.SetDateFilter("12 March 2025")
	assert.Equal(t, []string{"a1", "a3"}, filteredIDs(c))

	c.SetSearchTerm("rohan")
	assert.Equal(t, []string{"a3"}, filteredIDs(c))
}

func TestClearFilters(t *testing.T) {
	c := seededController(&stubUpdater{})

	c.SetStatusFilter("visited")
	c.SetSearchTerm("priya")
	c.SetDateFilter("13 March 2025")
	c.SetServiceFilter("Physiotherapy")
	require.Len(t, c.Filtered(), 1)

	c.ClearFilters()
	assert.Len(t, c.Filtered(), 3)
}

func TestUpdateStatusOptimistic(t *testing.T) {
	updater := &stubUpdater{}
	c := seededController(updater)

	require.NoError(t, c.UpdateStatus(context.Background(), "a1", StatusVisited))

	assert.Equal(t, []string{"a1:visited"}, updater.calls)
	for _, a := range c.Appointments() {
		if a.ID == "a1" {
			assert.Equal(t, StatusVisited, a.Status)
		}
	}
	assert.Empty(t, c.UpdatingID())
}

func TestUpdateStatusFailureKeepsOptimisticValue(t *testing.T) {
	updater := &stubUpdater{err: errors.New("backend down")}
	c := seededController(updater)

	err := c.UpdateStatus(context.Background(), "a1", StatusVisited)
	assert.Error(t, err)

	// Documented behavior: no rollback on persistence failure.
	for _, a := range c.Appointments() {
		if a.ID == "a1" {
			assert.Equal(t, StatusVisited, a.Status)
		}
	}
	assert.Empty(t, c.UpdatingID())
}

func TestUpdateStatusUnknownID(t *testing.T) {
	c := seededController(&stubUpdater{})
	err := c.UpdateStatus(context.Background(), "missing", StatusVisited)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestUpdateStatusInvalidStatus(t *testing.T) {
	c := seededController(&stubUpdater{})
	err := c.UpdateStatus(context.Background(), "a1", Status("archived"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdatingIDTracksInFlightCall(t *testing.T) {
	updater := &stubUpdater{block: make(chan struct{})}
	c := seededController(updater)

	done := make(chan struct{})
	go func() {
		_ = c.UpdateStatus(context.Background(), "a2", StatusPending)
		close(done)
	}()

	require.Eventually(t, func() bool { return c.UpdatingID() == "a2" },
		time.Second, time.Millisecond)

	close(updater.block)
	<-done
	assert.Empty(t, c.UpdatingID())
}

func TestApplyReplacesSourceData(t *testing.T) {
	c := seededController(&stubUpdater{})

	c.Apply(&DashboardData{Appointments: []Appointment{{ID: "z1", Status: StatusPending}}})

	assert.Equal(t, []string{"z1"}, filteredIDs(c))
	assert.Zero(t, c.Stats().TotalAppointments)
}
