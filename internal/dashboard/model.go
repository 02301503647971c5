package dashboard

import "time"

// Status is the operator-managed follow-up state of an appointment.
type Status string

const (
	StatusPending Status = "pending"
	StatusVisited Status = "visited"
)

// Valid reports whether s is one of the known appointment statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusVisited
}

// Appointment represents a booking request submitted through the practice website.
// Date and Time are display strings owned by the backend and treated as opaque;
// CreatedAt is the change-detection key.
type Appointment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Service   string    `json:"service"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats is the summary block shown at the top of the operator dashboard.
type Stats struct {
	TotalAppointments     int `json:"totalAppointments"`
	TodayAppointments     int `json:"todayAppointments"`
	ThisWeekAppointments  int `json:"thisWeekAppointments"`
	ThisMonthAppointments int `json:"thisMonthAppointments"`
}

// DashboardData is the combined result of one fetch cycle.
type DashboardData struct {
	Stats        Stats
	Appointments []Appointment
}
