package notify

import (
	"fmt"
	"net/smtp"
	"randevu/cmd/internal/config"
	"randevu/cmd/internal/utils"
)

// EmailSink delivers appointment events over plain SMTP.
type EmailSink struct {
	cfg *config.Config
}

func NewEmailSink(cfg *config.Config) *EmailSink {
	return &EmailSink{cfg: cfg}
}

func (s *EmailSink) Name() string {
	return "email"
}

func (s *EmailSink) Deliver(event *Event) error {
	appt := event.Appointment
	when := utils.FormatEpoch(appt.StartAt)

	var subject, body string
	switch event.Kind {
	case KindCreated:
		subject = "Yeni Randevu Talebi"
		body = fmt.Sprintf("Merhaba %s,\n\n%s sizden %s için randevu talep etti. Talebi onaylamak veya reddetmek için panelinize giriş yapın.",
			event.Recipient.FullName, appt.Client.FullName, when)
	case KindConfirmed:
		subject = "Randevunuz Onaylandı"
		body = fmt.Sprintf("Merhaba %s,\n\n%s ile %s randevunuz onaylandı.",
			event.Recipient.FullName, appt.Consultant.FullName, when)
	case KindCancelled:
		subject = "Randevunuz İptal Edildi"
		body = fmt.Sprintf("Merhaba %s,\n\n%s tarihli randevunuz iptal edildi.",
			event.Recipient.FullName, when)
	case KindRescheduled:
		subject = "Randevunuz Güncellendi"
		body = fmt.Sprintf("Merhaba %s,\n\nRandevunuz %s olarak güncellendi ve yeniden onayınızı bekliyor.",
			event.Recipient.FullName, when)
	case KindReminder:
		subject = "Randevu Hatırlatması"
		body = fmt.Sprintf("Merhaba %s,\n\nYarın %s, %s ile randevunuz var.",
			event.Recipient.FullName, when, appt.Consultant.FullName)
	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n",
		s.cfg.SMTP.From, event.Recipient.Email, subject, body)

	auth := smtp.PlainAuth("", s.cfg.SMTP.Username, s.cfg.SMTP.Password, s.cfg.SMTP.Host)
	addr := s.cfg.SMTP.Host + ":" + s.cfg.SMTP.Port
	return smtp.SendMail(addr, auth, s.cfg.SMTP.From, []string{event.Recipient.Email}, []byte(msg))
}
