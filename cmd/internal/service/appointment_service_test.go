package service

import (
	"fmt"
	"net/http"
	"randevu/cmd/internal/domain/entity"
	"randevu/cmd/internal/utils"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

func init() {
	log.SetLevel(log.OFF)
}

type fakeAppointmentRepo struct {
	appts  map[int]*entity.Appointment
	nextID int

	// beforeUpdateStatus runs inside UpdateStatus, before the row is
	// checked. Tests use it to interleave a competing write.
	beforeUpdateStatus func()
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appts: make(map[int]*entity.Appointment), nextID: 1}
}

func (f *fakeAppointmentRepo) Save(appt *entity.Appointment) error {
	if appt.ID == 0 {
		appt.ID = f.nextID
		f.nextID++
	}
	stored := *appt
	f.appts[appt.ID] = &stored
	return nil
}

func (f *fakeAppointmentRepo) FindByID(id int) (*entity.Appointment, error) {
	appt, ok := f.appts[id]
	if !ok {
		return nil, nil
	}
	found := *appt
	return &found, nil
}

func (f *fakeAppointmentRepo) FindByUser(userId int, userType string) ([]*entity.Appointment, error) {
	var result []*entity.Appointment
	for _, appt := range f.appts {
		if userType == entity.UserTypeConsultant {
			if appt.ConsultantID == userId &&
				(appt.Status == entity.StatusConfirmed || appt.Status == entity.StatusCompleted) {
				found := *appt
				result = append(result, &found)
			}
		} else if appt.ClientID == userId {
			found := *appt
			result = append(result, &found)
		}
	}
	return result, nil
}

func (f *fakeAppointmentRepo) FindPendingByConsultant(consultantId int) ([]*entity.Appointment, error) {
	var result []*entity.Appointment
	for _, appt := range f.appts {
		if appt.ConsultantID == consultantId && appt.Status == entity.StatusPending {
			found := *appt
			result = append(result, &found)
		}
	}
	return result, nil
}

func (f *fakeAppointmentRepo) FindStartingBetween(start, end int64) ([]*entity.Appointment, error) {
	var result []*entity.Appointment
	for _, appt := range f.appts {
		if appt.StartAt >= start && appt.StartAt < end {
			found := *appt
			result = append(result, &found)
		}
	}
	return result, nil
}

func (f *fakeAppointmentRepo) UpdateStatus(id int, from, to entity.AppointmentStatus, now int64) (bool, error) {
	if f.beforeUpdateStatus != nil {
		f.beforeUpdateStatus()
	}
	appt, ok := f.appts[id]
	if !ok || appt.Status != from {
		return false, nil
	}
	appt.Status = to
	appt.UpdatedAt = now
	return true, nil
}

func (f *fakeAppointmentRepo) SetMeetingLink(id int, link string) error {
	if appt, ok := f.appts[id]; ok {
		appt.MeetingLink = &link
	}
	return nil
}

func (f *fakeAppointmentRepo) UpdateTimes(id int, start, end int64, resetToPending bool, now int64) error {
	appt, ok := f.appts[id]
	if !ok {
		return fmt.Errorf("appointment %d not found", id)
	}
	appt.StartAt = start
	appt.EndAt = end
	if resetToPending {
		appt.Status = entity.StatusPending
	}
	appt.UpdatedAt = now
	return nil
}

func (f *fakeAppointmentRepo) UpdateExpired(now int64) (int64, error) {
	var count int64
	for _, appt := range f.appts {
		if appt.EndAt >= now {
			continue
		}
		switch appt.Status {
		case entity.StatusPending:
			appt.Status = entity.StatusExpired
			appt.UpdatedAt = now
			count++
		case entity.StatusConfirmed:
			appt.Status = entity.StatusCompleted
			appt.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

func (f *fakeAppointmentRepo) CountByPartyStatus(userId int, userType string, statuses ...entity.AppointmentStatus) (int64, error) {
	var count int64
	for _, appt := range f.appts {
		party := appt.ClientID
		if userType == entity.UserTypeConsultant {
			party = appt.ConsultantID
		}
		if party != userId {
			continue
		}
		for _, status := range statuses {
			if appt.Status == status {
				count++
				break
			}
		}
	}
	return count, nil
}

type fakeUserRepo struct {
	users map[int]*entity.User
}

func (f *fakeUserRepo) FindByID(id int) (*entity.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) FindByEmail(email string) (*entity.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ExistsByEmail(email string) (bool, error) {
	user, _ := f.FindByEmail(email)
	return user != nil, nil
}

func (f *fakeUserRepo) FindConsultants() ([]*entity.User, error) {
	var result []*entity.User
	for _, user := range f.users {
		if user.IsConsultant() {
			result = append(result, user)
		}
	}
	return result, nil
}

func (f *fakeUserRepo) Save(user *entity.User) error {
	f.users[user.ID] = user
	return nil
}

type dispatchedEvent struct {
	kind    string
	apptId  int
	actorId int
}

type fakeDispatcher struct {
	events []dispatchedEvent
}

func (d *fakeDispatcher) AppointmentCreated(appt *entity.Appointment) {
	d.events = append(d.events, dispatchedEvent{kind: "created", apptId: appt.ID})
}

func (d *fakeDispatcher) AppointmentConfirmed(appt *entity.Appointment) {
	d.events = append(d.events, dispatchedEvent{kind: "confirmed", apptId: appt.ID})
}

func (d *fakeDispatcher) AppointmentCancelled(appt *entity.Appointment, actorId int) {
	d.events = append(d.events, dispatchedEvent{kind: "cancelled", apptId: appt.ID, actorId: actorId})
}

func (d *fakeDispatcher) AppointmentRescheduled(appt *entity.Appointment, actorId int) {
	d.events = append(d.events, dispatchedEvent{kind: "rescheduled", apptId: appt.ID, actorId: actorId})
}

func (d *fakeDispatcher) AppointmentReminder(appt *entity.Appointment) {
	d.events = append(d.events, dispatchedEvent{kind: "reminder", apptId: appt.ID})
}

const (
	consultantId = 1
	clientId     = 2
	strangerId   = 99
)

func newTestService() (*DefaultAppointmentService, *fakeAppointmentRepo, *fakeDispatcher) {
	apptRepo := newFakeAppointmentRepo()
	userRepo := &fakeUserRepo{users: map[int]*entity.User{
		consultantId: {ID: consultantId, FullName: "Ayşe Demir", Email: "ayse@example.com", UserType: entity.UserTypeConsultant},
		clientId:     {ID: clientId, FullName: "Mehmet Kaya", Email: "mehmet@example.com", UserType: entity.UserTypeClient},
	}}
	dispatcher := &fakeDispatcher{}

	validate := validator.New()
	_ = validate.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.RFC3339, fl.Field().String())
		return err == nil
	})

	svc := NewAppointmentService(apptRepo, userRepo, dispatcher, validate)
	return svc, apptRepo, dispatcher
}

func seedAppointment(repo *fakeAppointmentRepo, status entity.AppointmentStatus) *entity.Appointment {
	start := time.Now().Add(48 * time.Hour)
	appt := &entity.Appointment{
		ConsultantID: consultantId,
		ClientID:     clientId,
		StartAt:      start.UnixMilli(),
		EndAt:        start.Add(time.Hour).UnixMilli(),
		Status:       status,
		CreatedAt:    utils.NowUTC(),
		UpdatedAt:    utils.NowUTC(),
	}
	_ = repo.Save(appt)
	return repo.appts[appt.ID]
}

func consultantActor() *utils.TokenData {
	return &utils.TokenData{UserID: consultantId, UserType: entity.UserTypeConsultant}
}

func clientActor() *utils.TokenData {
	return &utils.TokenData{UserID: clientId, UserType: entity.UserTypeClient}
}

func futureTimes() (string, string) {
	start := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	return start.Format(time.RFC3339), start.Add(time.Hour).Format(time.RFC3339)
}

func TestCreateAppointment_Pending(t *testing.T) {
	svc, repo, dispatcher := newTestService()
	start, end := futureTimes()

	resp, apierr := svc.CreateAppointment(&CreateAppointmentRequest{
		ConsultantID: consultantId,
		StartTime:    start,
		EndTime:      end,
		Notes:        "İlk görüşme",
	}, clientActor())
	if apierr != nil {
		t.Fatalf("CreateAppointment failed: %+v", apierr)
	}

	if resp.Status != string(entity.StatusPending) {
		t.Errorf("expected status pending, got %s", resp.Status)
	}
	if stored := repo.appts[resp.ID]; stored.Status != entity.StatusPending {
		t.Errorf("stored status = %s, want pending", stored.Status)
	}
	if len(dispatcher.events) != 1 || dispatcher.events[0].kind != "created" {
		t.Errorf("expected a created event, got %+v", dispatcher.events)
	}
}

func TestCreateAppointment_ConsultantActorRejected(t *testing.T) {
	svc, repo, _ := newTestService()
	start, end := futureTimes()

	_, apierr := svc.CreateAppointment(&CreateAppointmentRequest{
		ConsultantID: consultantId,
		StartTime:    start,
		EndTime:      end,
	}, consultantActor())

	if apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", apierr)
	}
	if len(repo.appts) != 0 {
		t.Errorf("no row should be inserted, found %d", len(repo.appts))
	}
}

func TestCreateAppointment_InvalidInterval(t *testing.T) {
	svc, _, _ := newTestService()
	start, end := futureTimes()

	// end before start
	_, apierr := svc.CreateAppointment(&CreateAppointmentRequest{
		ConsultantID: consultantId,
		StartTime:    end,
		EndTime:      start,
	}, clientActor())
	if apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted interval, got %+v", apierr)
	}

	// in the past
	past := time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339)
	pastEnd := time.Now().Add(-1 * time.Hour).UTC().Format(time.RFC3339)
	_, apierr = svc.CreateAppointment(&CreateAppointmentRequest{
		ConsultantID: consultantId,
		StartTime:    past,
		EndTime:      pastEnd,
	}, clientActor())
	if apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Fatalf("expected 400 for past interval, got %+v", apierr)
	}
}

func TestConfirmAppointment_ByConsultant(t *testing.T) {
	svc, repo, dispatcher := newTestService()
	appt := seedAppointment(repo, entity.StatusPending)

	resp, apierr := svc.ConfirmAppointment(appt.ID, consultantActor())
	if apierr != nil {
		t.Fatalf("ConfirmAppointment failed: %+v", apierr)
	}

	if resp.Status != string(entity.StatusConfirmed) {
		t.Errorf("expected confirmed, got %s", resp.Status)
	}
	if resp.MeetingLink == nil || *resp.MeetingLink == "" {
		t.Errorf("expected a meeting link on confirmation")
	}
	if len(dispatcher.events) != 1 || dispatcher.events[0].kind != "confirmed" {
		t.Errorf("expected a confirmed event, got %+v", dispatcher.events)
	}
}

func TestConfirmAppointment_AuthorizationBeforeState(t *testing.T) {
	svc, repo, _ := newTestService()
	appt := seedAppointment(repo, entity.StatusPending)

	// The client is a party but not the consultant: must be 403, never 400.
	_, apierr := svc.ConfirmAppointment(appt.ID, clientActor())
	if apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", apierr)
	}
}

func TestConfirmAppointment_NotFoundBeforeAuthorization(t *testing.T) {
	svc, _, _ := newTestService()

	_, apierr := svc.ConfirmAppointment(404, &utils.TokenData{UserID: strangerId, UserType: entity.UserTypeConsultant})
	if apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Fatalf("expected 404, got %+v", apierr)
	}
}

func TestTransitions_RejectedFromTerminalStates(t *testing.T) {
	terminal := []entity.AppointmentStatus{entity.StatusCancelled, entity.StatusCompleted, entity.StatusExpired}

	for _, status := range terminal {
		t.Run(string(status), func(t *testing.T) {
			svc, repo, dispatcher := newTestService()
			appt := seedAppointment(repo, status)
			start, end := futureTimes()

			if _, apierr := svc.ConfirmAppointment(appt.ID, consultantActor()); apierr == nil || apierr.Code() != http.StatusBadRequest {
				t.Errorf("confirm from %s: expected 400, got %+v", status, apierr)
			}
			if _, apierr := svc.RejectAppointment(appt.ID, consultantActor()); apierr == nil || apierr.Code() != http.StatusBadRequest {
				t.Errorf("reject from %s: expected 400, got %+v", status, apierr)
			}
			if _, apierr := svc.CancelAppointment(appt.ID, clientActor()); apierr == nil || apierr.Code() != http.StatusBadRequest {
				t.Errorf("cancel from %s: expected 400, got %+v", status, apierr)
			}
			if _, apierr := svc.CompleteAppointment(appt.ID, consultantActor()); apierr == nil || apierr.Code() != http.StatusBadRequest {
				t.Errorf("complete from %s: expected 400, got %+v", status, apierr)
			}
			if _, apierr := svc.RescheduleAppointment(appt.ID, &RescheduleRequest{StartTime: start, EndTime: end}, clientActor()); apierr == nil || apierr.Code() != http.StatusBadRequest {
				t.Errorf("reschedule from %s: expected 400, got %+v", status, apierr)
			}

			if repo.appts[appt.ID].Status != status {
				t.Errorf("terminal status mutated: %s -> %s", status, repo.appts[appt.ID].Status)
			}
			if len(dispatcher.events) != 0 {
				t.Errorf("no events expected from rejected transitions, got %+v", dispatcher.events)
			}
		})
	}
}

func TestCancelAppointment_PendingOnly(t *testing.T) {
	svc, repo, _ := newTestService()
	appt := seedAppointment(repo, entity.StatusConfirmed)

	_, apierr := svc.CancelAppointment(appt.ID, clientActor())
	if apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Fatalf("expected 400 cancelling confirmed appointment, got %+v", apierr)
	}
}

func TestCancelAppointment_NonPartyForbidden(t *testing.T) {
	svc, repo, _ := newTestService()
	appt := seedAppointment(repo, entity.StatusPending)

	_, apierr := svc.CancelAppointment(appt.ID, &utils.TokenData{UserID: strangerId, UserType: entity.UserTypeClient})
	if apierr == nil || apierr.Code() != http.StatusForbidden {
		t.Fatalf("expected 403 for non-party, got %+v", apierr)
	}
}

func TestCompleteAppointment_RequiresConfirmed(t *testing.T) {
	svc, repo, _ := newTestService()
	appt := seedAppointment(repo, entity.StatusPending)

	_, apierr := svc.CompleteAppointment(appt.ID, consultantActor())
	if apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Fatalf("expected 400 completing pending appointment, got %+v", apierr)
	}
}

func TestRescheduleAppointment_ResetsToPending(t *testing.T) {
	svc, repo, dispatcher := newTestService()
	appt := seedAppointment(repo, entity.StatusConfirmed)
	start, end := futureTimes()

	resp, apierr := svc.RescheduleAppointment(appt.ID, &RescheduleRequest{StartTime: start, EndTime: end}, clientActor())
	if apierr != nil {
		t.Fatalf("RescheduleAppointment failed: %+v", apierr)
	}

	if resp.Status != string(entity.StatusPending) {
		t.Errorf("expected status reset to pending, got %s", resp.Status)
	}
	if len(dispatcher.events) != 1 || dispatcher.events[0].kind != "rescheduled" {
		t.Fatalf("expected a rescheduled event, got %+v", dispatcher.events)
	}
	if dispatcher.events[0].actorId != clientId {
		t.Errorf("rescheduled event actor = %d, want %d", dispatcher.events[0].actorId, clientId)
	}
}

func TestRescheduleAppointment_RevalidatesInterval(t *testing.T) {
	svc, repo, _ := newTestService()
	appt := seedAppointment(repo, entity.StatusConfirmed)
	start, end := futureTimes()

	_, apierr := svc.RescheduleAppointment(appt.ID, &RescheduleRequest{StartTime: end, EndTime: start}, clientActor())
	if apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted interval, got %+v", apierr)
	}
	if repo.appts[appt.ID].Status != entity.StatusConfirmed {
		t.Errorf("rejected reschedule must not touch the row")
	}
}

func TestConcurrentConfirm_SecondCallLoses(t *testing.T) {
	svc, repo, _ := newTestService()
	appt := seedAppointment(repo, entity.StatusPending)

	if _, apierr := svc.ConfirmAppointment(appt.ID, consultantActor()); apierr != nil {
		t.Fatalf("first confirm failed: %+v", apierr)
	}

	_, apierr := svc.ConfirmAppointment(appt.ID, consultantActor())
	if apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Fatalf("second confirm should fail with 400, got %+v", apierr)
	}
}

func TestConfirmAppointment_RaceSurfacesConflict(t *testing.T) {
	svc, repo, dispatcher := newTestService()
	appt := seedAppointment(repo, entity.StatusPending)

	// A competing cancel lands between the status check and the write.
	repo.beforeUpdateStatus = func() {
		repo.appts[appt.ID].Status = entity.StatusCancelled
		repo.beforeUpdateStatus = nil
	}

	_, apierr := svc.ConfirmAppointment(appt.ID, consultantActor())
	if apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Fatalf("expected 400 conflict, got %+v", apierr)
	}
	if repo.appts[appt.ID].Status != entity.StatusCancelled {
		t.Errorf("loser must not clobber the winner's write, status = %s", repo.appts[appt.ID].Status)
	}
	if len(dispatcher.events) != 0 {
		t.Errorf("no event expected for a lost race, got %+v", dispatcher.events)
	}
}

func TestGetAppointment_NonPartySeesNotFound(t *testing.T) {
	svc, repo, _ := newTestService()
	appt := seedAppointment(repo, entity.StatusPending)

	_, apierr := svc.GetAppointment(appt.ID, &utils.TokenData{UserID: strangerId, UserType: entity.UserTypeClient})
	if apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Fatalf("expected 404 for non-party, got %+v", apierr)
	}
}

func TestGetAppointments_ExpiredVisibleToClientNotConsultantPendingList(t *testing.T) {
	svc, repo, _ := newTestService()

	// Pending appointment whose end time has passed.
	appt := seedAppointment(repo, entity.StatusPending)
	repo.appts[appt.ID].StartAt = time.Now().Add(-2 * time.Hour).UnixMilli()
	repo.appts[appt.ID].EndAt = time.Now().Add(-time.Hour).UnixMilli()

	pending, apierr := svc.GetPendingRequests(consultantActor())
	if apierr != nil {
		t.Fatalf("GetPendingRequests failed: %+v", apierr)
	}
	if len(pending) != 0 {
		t.Errorf("expired appointment leaked into pending requests: %+v", pending)
	}

	history, apierr := svc.GetAppointments(clientActor())
	if apierr != nil {
		t.Fatalf("GetAppointments failed: %+v", apierr)
	}
	if len(history) != 1 || history[0].Status != string(entity.StatusExpired) {
		t.Errorf("client history should show the expired appointment, got %+v", history)
	}
}
