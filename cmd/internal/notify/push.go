package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"randevu/cmd/internal/config"
	"randevu/cmd/internal/utils"
	"strconv"
	"time"
)

// PushSink forwards appointment events to the hosted push provider's
// REST API. The provider handles device targeting; we only address the
// recipient by their external user id.
type PushSink struct {
	cfg    *config.Config
	client *http.Client
}

func NewPushSink(cfg *config.Config) *PushSink {
	return &PushSink{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *PushSink) Name() string {
	return "push"
}

type pushRequest struct {
	AppID              string            `json:"app_id"`
	ExternalUserIDs    []string          `json:"include_external_user_ids"`
	Headings           map[string]string `json:"headings"`
	Contents           map[string]string `json:"contents"`
	AppointmentID      int               `json:"appointment_id,omitempty"`
	ChannelForExternal string            `json:"channel_for_external_user_ids"`
}

func (s *PushSink) Deliver(event *Event) error {
	appt := event.Appointment
	when := utils.FormatEpoch(appt.StartAt)

	var title, message string
	switch event.Kind {
	case KindCreated:
		title = "Yeni Randevu Talebi"
		message = fmt.Sprintf("%s için yeni bir randevu talebiniz var.", when)
	case KindConfirmed:
		title = "Randevu Onaylandı"
		message = fmt.Sprintf("%s randevunuz onaylandı.", when)
	case KindCancelled:
		title = "Randevu İptal Edildi"
		message = fmt.Sprintf("%s tarihli randevunuz iptal edildi.", when)
	case KindRescheduled:
		title = "Randevu Güncellendi"
		message = fmt.Sprintf("Randevunuz %s olarak güncellendi.", when)
	case KindReminder:
		title = "Randevu Hatırlatması"
		message = fmt.Sprintf("Yarın %s randevunuz var.", when)
	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}

	payload := &pushRequest{
		AppID:              s.cfg.Push.AppID,
		ExternalUserIDs:    []string{strconv.Itoa(event.Recipient.ID)},
		Headings:           map[string]string{"en": title},
		Contents:           map[string]string{"en": message},
		AppointmentID:      appt.ID,
		ChannelForExternal: "push",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.cfg.Push.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+s.cfg.Push.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push provider returned status %d", resp.StatusCode)
	}
	return nil
}
