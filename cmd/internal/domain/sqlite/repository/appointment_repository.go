package repository

import (
	"errors"
	"randevu/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultAppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *DefaultAppointmentRepository {
	return &DefaultAppointmentRepository{db: db}
}

func (a *DefaultAppointmentRepository) Save(appointment *entity.Appointment) error {
	return a.db.Save(appointment).Error
}

func (a *DefaultAppointmentRepository) FindByID(id int) (*entity.Appointment, error) {
	var appt entity.Appointment
	err := a.db.Preload("Consultant").Preload("Client").First(&appt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &appt, err
}

// FindByUser returns the appointment list shaped per role: consultants only
// see appointments they have acted on (pending requests come from
// FindPendingByConsultant), clients see their full history.
func (a *DefaultAppointmentRepository) FindByUser(userId int, userType string) ([]*entity.Appointment, error) {
	query := a.db.Preload("Consultant").Preload("Client")

	if userType == entity.UserTypeConsultant {
		query = query.
			Where("consultant_id = ?", userId).
			Where("status IN ?", []entity.AppointmentStatus{entity.StatusConfirmed, entity.StatusCompleted})
	} else {
		query = query.Where("client_id = ?", userId)
	}

	var appts []*entity.Appointment
	err := query.Order("start_at desc").Find(&appts).Error
	return appts, err
}

func (a *DefaultAppointmentRepository) FindPendingByConsultant(consultantId int) ([]*entity.Appointment, error) {
	var appts []*entity.Appointment
	err := a.db.Preload("Consultant").Preload("Client").
		Where("consultant_id = ? AND status = ?", consultantId, entity.StatusPending).
		Order("start_at asc").
		Find(&appts).Error
	return appts, err
}

// FindStartingBetween returns appointments whose start time falls in
// [start, end), oldest first.
func (a *DefaultAppointmentRepository) FindStartingBetween(start, end int64) ([]*entity.Appointment, error) {
	var appts []*entity.Appointment
	err := a.db.Preload("Consultant").Preload("Client").
		Where("start_at >= ? AND start_at < ?", start, end).
		Order("start_at asc").
		Find(&appts).Error
	return appts, err
}

// UpdateStatus moves an appointment from one status to another. The write is
// conditional on the current status, so a racing transition loses cleanly:
// false means the row was no longer in the expected status.
func (a *DefaultAppointmentRepository) UpdateStatus(id int, from, to entity.AppointmentStatus, now int64) (bool, error) {
	res := a.db.Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": now})
	return res.RowsAffected > 0, res.Error
}

func (a *DefaultAppointmentRepository) SetMeetingLink(id int, link string) error {
	return a.db.Model(&entity.Appointment{}).
		Where("id = ?", id).
		Update("meeting_link", link).Error
}

func (a *DefaultAppointmentRepository) UpdateTimes(id int, start, end int64, resetToPending bool, now int64) error {
	updates := map[string]any{"start_at": start, "end_at": end, "updated_at": now}
	if resetToPending {
		updates["status"] = entity.StatusPending
	}
	return a.db.Model(&entity.Appointment{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateExpired advances every appointment whose end time has passed:
// stale pending rows expire, stale confirmed rows complete. Both writes share
// the caller's single now value. Returns the total number of rows mutated.
func (a *DefaultAppointmentRepository) UpdateExpired(now int64) (int64, error) {
	expired := a.db.Model(&entity.Appointment{}).
		Where("status = ? AND end_at < ?", entity.StatusPending, now).
		Updates(map[string]any{"status": entity.StatusExpired, "updated_at": now})
	if expired.Error != nil {
		return 0, expired.Error
	}

	completed := a.db.Model(&entity.Appointment{}).
		Where("status = ? AND end_at < ?", entity.StatusConfirmed, now).
		Updates(map[string]any{"status": entity.StatusCompleted, "updated_at": now})
	if completed.Error != nil {
		return expired.RowsAffected, completed.Error
	}

	return expired.RowsAffected + completed.RowsAffected, nil
}

func (a *DefaultAppointmentRepository) CountByPartyStatus(userId int, userType string, statuses ...entity.AppointmentStatus) (int64, error) {
	party := "client_id"
	if userType == entity.UserTypeConsultant {
		party = "consultant_id"
	}

	var count int64
	err := a.db.Model(&entity.Appointment{}).
		Where(party+" = ?", userId).
		Where("status IN ?", statuses).
		Count(&count).Error
	return count, err
}
