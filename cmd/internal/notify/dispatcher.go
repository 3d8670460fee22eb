package notify

import (
	"randevu/cmd/internal/domain/entity"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/gommon/log"
)

type Kind string

const (
	KindCreated     Kind = "created"
	KindConfirmed   Kind = "confirmed"
	KindCancelled   Kind = "cancelled"
	KindRescheduled Kind = "rescheduled"
	KindReminder    Kind = "reminder"
)

// Event is the rendered payload handed to every sink.
type Event struct {
	Kind           Kind
	Appointment    *entity.Appointment
	Recipient      *entity.User
	ActionRequired bool
	ActionType     string
}

// Sink delivers an event over one channel (in-app row, email, push).
// Delivery is best-effort: a failing sink is logged and never blocks the
// transition that produced the event.
type Sink interface {
	Name() string
	Deliver(event *Event) error
}

// Dispatcher is the single notification contract the state machine calls
// into, one method per event kind.
type Dispatcher interface {
	AppointmentCreated(appt *entity.Appointment)
	AppointmentConfirmed(appt *entity.Appointment)
	AppointmentCancelled(appt *entity.Appointment, actorId int)
	AppointmentRescheduled(appt *entity.Appointment, actorId int)
	AppointmentReminder(appt *entity.Appointment)
}

type UserLookup interface {
	FindByID(id int) (*entity.User, error)
}

type DefaultDispatcher struct {
	users UserLookup
	cache *lru.Cache[int, *entity.User]
	sinks []Sink
}

func NewDispatcher(users UserLookup, sinks ...Sink) *DefaultDispatcher {
	// Size covers every recipient a busy instance touches between restarts.
	cache, _ := lru.New[int, *entity.User](256)
	return &DefaultDispatcher{users: users, cache: cache, sinks: sinks}
}

func (d *DefaultDispatcher) AppointmentCreated(appt *entity.Appointment) {
	d.deliver(KindCreated, appt, appt.ConsultantID, true, entity.ActionTypeApprove)
}

func (d *DefaultDispatcher) AppointmentConfirmed(appt *entity.Appointment) {
	d.deliver(KindConfirmed, appt, appt.ClientID, false, "")
}

func (d *DefaultDispatcher) AppointmentCancelled(appt *entity.Appointment, actorId int) {
	d.deliver(KindCancelled, appt, counterparty(appt, actorId), false, "")
}

func (d *DefaultDispatcher) AppointmentRescheduled(appt *entity.Appointment, actorId int) {
	d.deliver(KindRescheduled, appt, counterparty(appt, actorId), true, entity.ActionTypeApprove)
}

func (d *DefaultDispatcher) AppointmentReminder(appt *entity.Appointment) {
	d.deliver(KindReminder, appt, appt.ClientID, false, "")
}

func (d *DefaultDispatcher) deliver(kind Kind, appt *entity.Appointment, recipientId int, actionRequired bool, actionType string) {
	recipient, err := d.recipient(recipientId)
	if err != nil {
		log.Errorf("failed to resolve notification recipient %d: %v", recipientId, err)
		return
	}
	if recipient == nil {
		log.Errorf("notification recipient %d no longer exists, dropping %s event", recipientId, kind)
		return
	}

	event := &Event{
		Kind:           kind,
		Appointment:    appt,
		Recipient:      recipient,
		ActionRequired: actionRequired,
		ActionType:     actionType,
	}

	for _, sink := range d.sinks {
		if err := sink.Deliver(event); err != nil {
			log.Errorf("sink %s failed to deliver %s event for appointment %d: %v",
				sink.Name(), kind, appt.ID, err)
		}
	}
}

func (d *DefaultDispatcher) recipient(id int) (*entity.User, error) {
	if user, ok := d.cache.Get(id); ok {
		return user, nil
	}

	user, err := d.users.FindByID(id)
	if err != nil || user == nil {
		return user, err
	}
	d.cache.Add(id, user)
	return user, nil
}

func counterparty(appt *entity.Appointment, actorId int) int {
	if actorId == appt.ClientID {
		return appt.ConsultantID
	}
	return appt.ClientID
}
