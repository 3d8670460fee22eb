package entity

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
	StatusExpired   AppointmentStatus = "expired"
)

// IsTerminal reports whether no further transition is accepted from s.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusExpired:
		return true
	}
	return false
}

type Appointment struct {
	ID           int               `gorm:"primaryKey"`
	ConsultantID int               `gorm:"not null;index"` // References: users(id)
	ClientID     int               `gorm:"not null;index"` // References: users(id)
	StartAt      int64             `gorm:"not null;index"`
	EndAt        int64             `gorm:"not null"`
	Status       AppointmentStatus `gorm:"not null;index;default:pending"`
	Notes        *string
	MeetingLink  *string
	CreatedAt    int64 `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt    int64 `gorm:"not null;autoUpdateTime:milli"`

	// Relations
	Consultant User `gorm:"foreignKey:ConsultantID;references:ID"`
	Client     User `gorm:"foreignKey:ClientID;references:ID"`
}
