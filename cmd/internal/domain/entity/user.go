package entity

const (
	UserTypeConsultant = "consultant"
	UserTypeClient     = "client"
)

type User struct {
	ID           int    `gorm:"primaryKey"`
	FullName     string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	UserType     string `gorm:"not null;index"` // consultant | client
	Specialty    *string
	HourlyRate   *float64
	CreatedAt    int64 `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt    int64 `gorm:"not null;autoUpdateTime:milli"`
}

func (u *User) IsConsultant() bool {
	return u.UserType == UserTypeConsultant
}
