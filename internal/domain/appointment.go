package domain

type AppointmentID string

type AppointmentMode string

const (
	ModeChat     AppointmentMode = "chat"
	ModeVideo    AppointmentMode = "video"
	ModeInPerson AppointmentMode = "in-person"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusAccepted  AppointmentStatus = "accepted"
	StatusRejected  AppointmentStatus = "rejected"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// Appointment is the scheduled-session backing record. The gateway only
// ever reads it; status transitions happen through the REST boundary.
type Appointment struct {
	ID          AppointmentID
	StudentID   UserID
	CounselorID UserID
	Mode        AppointmentMode
	Status      AppointmentStatus
}

// Joinable reports whether a live session may be established for this
// appointment: only accepted chat/video appointments carry live media.
func (a *Appointment) Joinable() bool {
	if a.Status != StatusAccepted {
		return false
	}
	return a.Mode == ModeChat || a.Mode == ModeVideo
}

// IsParty reports whether id is one of the appointment's declared parties.
func (a *Appointment) IsParty(id UserID) bool {
	return id == a.StudentID || id == a.CounselorID
}
