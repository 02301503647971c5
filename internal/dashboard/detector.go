package dashboard

import (
	"sort"
	"time"
)

// DetectionResult is the outcome of comparing a fetched appointment list
// against the last-checked cursor.
type DetectionResult struct {
	// New holds every appointment created strictly after the cursor,
	// in the order they appeared in the source list.
	New []Appointment
	// AdvancedCursor is the new cursor value when New is non-empty, nil otherwise.
	AdvancedCursor *time.Time
}

// Detector classifies fetched appointments as new or already seen using a
// single timestamp cursor. The zero value is not usable; use NewDetector.
type Detector struct {
	now func() time.Time
}

// NewDetector creates a detector using the real clock.
func NewDetector() *Detector {
	return &Detector{now: time.Now}
}

// NewDetectorWithClock creates a detector with an injected clock for tests.
func NewDetectorWithClock(now func() time.Time) *Detector {
	return &Detector{now: now}
}

// Detect returns the appointments in current with CreatedAt strictly after
// cursor. When at least one is found the advanced cursor is the current
// wall-clock time rather than the max CreatedAt of the batch, so a straggler
// stamped slightly ahead by the server clock is still caught on the next
// pass. The input list is treated as an unordered set.
func (d *Detector) Detect(current []Appointment, cursor time.Time) DetectionResult {
	var result DetectionResult
	for _, appt := range current {
		if appt.CreatedAt.After(cursor) {
			result.New = append(result.New, appt)
		}
	}
	if len(result.New) > 0 {
		now := d.now().UTC()
		result.AdvancedCursor = &now
	}
	return result
}

// MostRecent returns the appointment with the greatest CreatedAt.
// Ties keep the original relative order (stable sort), so the earlier
// element in the source list wins. Panics-free: ok is false for an empty slice.
func MostRecent(appts []Appointment) (Appointment, bool) {
	if len(appts) == 0 {
		return Appointment{}, false
	}
	sorted := make([]Appointment, len(appts))
	copy(sorted, appts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted[0], true
}
