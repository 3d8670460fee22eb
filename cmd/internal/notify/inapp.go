package notify

import (
	"fmt"
	"randevu/cmd/internal/domain/entity"
	"randevu/cmd/internal/utils"
)

type NotificationStore interface {
	Save(notification *entity.Notification) error
}

// InAppSink persists notification rows the web client polls for.
type InAppSink struct {
	store NotificationStore
}

func NewInAppSink(store NotificationStore) *InAppSink {
	return &InAppSink{store: store}
}

func (s *InAppSink) Name() string {
	return "in-app"
}

func (s *InAppSink) Deliver(event *Event) error {
	appt := event.Appointment
	when := utils.FormatEpoch(appt.StartAt)

	var title, message, notifType string
	switch event.Kind {
	case KindCreated:
		title = "Yeni Randevu Talebi"
		message = fmt.Sprintf("%s sizden %s için randevu talep etti.", appt.Client.FullName, when)
		notifType = entity.NotificationTypeAppointment
	case KindConfirmed:
		title = "Randevu Onaylandı"
		message = fmt.Sprintf("%s ile %s randevunuz onaylandı.", appt.Consultant.FullName, when)
		notifType = entity.NotificationTypeAppointment
	case KindCancelled:
		title = "Randevu İptal Edildi"
		message = fmt.Sprintf("%s tarihli randevunuz iptal edildi.", when)
		notifType = entity.NotificationTypeAppointment
	case KindRescheduled:
		title = "Randevu Yeniden Planlandı"
		message = fmt.Sprintf("Randevunuz %s olarak güncellendi ve yeniden onay bekliyor.", when)
		notifType = entity.NotificationTypeAppointment
	case KindReminder:
		title = "Randevu Hatırlatması"
		message = fmt.Sprintf("%s ile yarın %s randevunuz var.", appt.Consultant.FullName, when)
		notifType = entity.NotificationTypeReminder
	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}

	apptId := appt.ID
	notification := &entity.Notification{
		UserID:         event.Recipient.ID,
		Title:          title,
		Message:        message,
		Type:           notifType,
		AppointmentID:  &apptId,
		ActionRequired: event.ActionRequired,
		CreatedAt:      utils.NowUTC(),
	}
	if event.ActionType != "" {
		actionType := event.ActionType
		notification.ActionType = &actionType
	}

	return s.store.Save(notification)
}
