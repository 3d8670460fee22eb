package entity

const (
	NotificationTypeAppointment = "appointment"
	NotificationTypeSystem      = "system"
	NotificationTypeReminder    = "reminder"
)

const (
	ActionTypeApprove    = "approve"
	ActionTypeReject     = "reject"
	ActionTypeReschedule = "reschedule"
)

type Notification struct {
	ID             int    `gorm:"primaryKey"`
	UserID         int    `gorm:"not null;index"` // References: users(id)
	Title          string `gorm:"not null"`
	Message        string `gorm:"not null"`
	Type           string `gorm:"not null"` // appointment | system | reminder
	IsRead         bool   `gorm:"not null"`
	AppointmentID  *int
	ActionRequired bool `gorm:"not null"`
	ActionType     *string
	CreatedAt      int64 `gorm:"not null;autoCreateTime:milli"`
}
