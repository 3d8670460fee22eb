package scheduler

import (
	"randevu/cmd/internal/domain/entity"
	"randevu/cmd/internal/notify"
	"randevu/cmd/internal/utils"
	"time"

	"github.com/labstack/gommon/log"
)

type ExpiryStore interface {
	UpdateExpired(now int64) (int64, error)
}

// ExpiryJob advances stale appointments past their natural end: pending
// rows expire, confirmed rows complete. No notification is sent for either;
// time is not an actor anyone needs to hear from.
type ExpiryJob struct {
	Store ExpiryStore
}

func NewExpiryJob(store ExpiryStore) *ExpiryJob {
	return &ExpiryJob{Store: store}
}

func (j *ExpiryJob) Name() string {
	return "expiry"
}

func (j *ExpiryJob) Run() error {
	count, err := j.Store.UpdateExpired(utils.NowUTC())
	if err != nil {
		return err
	}
	if count > 0 {
		log.Infof("advanced %d appointments past their end time", count)
	}
	return nil
}

type ReminderStore interface {
	FindStartingBetween(start, end int64) ([]*entity.Appointment, error)
}

// ReminderJob reminds clients of tomorrow's confirmed appointments.
// Tomorrow is the full calendar day starting at the next local midnight.
type ReminderJob struct {
	Store      ReminderStore
	Dispatcher notify.Dispatcher
}

func NewReminderJob(store ReminderStore, dispatcher notify.Dispatcher) *ReminderJob {
	return &ReminderJob{Store: store, Dispatcher: dispatcher}
}

func (j *ReminderJob) Name() string {
	return "reminder"
}

func (j *ReminderJob) Run() error {
	now := time.Now()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	dayAfter := tomorrow.AddDate(0, 0, 1)

	appts, err := j.Store.FindStartingBetween(tomorrow.UnixMilli(), dayAfter.UnixMilli())
	if err != nil {
		return err
	}

	sent := 0
	for _, appt := range appts {
		if appt.Status != entity.StatusConfirmed {
			continue
		}
		j.Dispatcher.AppointmentReminder(appt)
		sent++
	}

	if sent > 0 {
		log.Infof("sent %d appointment reminders for tomorrow", sent)
	}
	return nil
}
