package service

import (
	"randevu/cmd/internal/domain/entity"
	"randevu/cmd/internal/notify"
	"randevu/cmd/internal/utils"
	"randevu/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

type AppointmentRepository interface {
	Save(appointment *entity.Appointment) error
	FindByID(id int) (*entity.Appointment, error)
	FindByUser(userId int, userType string) ([]*entity.Appointment, error)
	FindPendingByConsultant(consultantId int) ([]*entity.Appointment, error)
	FindStartingBetween(start, end int64) ([]*entity.Appointment, error)
	UpdateStatus(id int, from, to entity.AppointmentStatus, now int64) (bool, error)
	SetMeetingLink(id int, link string) error
	UpdateTimes(id int, start, end int64, resetToPending bool, now int64) error
	UpdateExpired(now int64) (int64, error)
	CountByPartyStatus(userId int, userType string, statuses ...entity.AppointmentStatus) (int64, error)
}

type CreateAppointmentRequest struct {
	ConsultantID int    `json:"consultant_id" validate:"required,min=1"`
	StartTime    string `json:"start_time" validate:"required,iso8601"`
	EndTime      string `json:"end_time" validate:"required,iso8601"`
	Notes        string `json:"notes" validate:"max=500"`
}

type RescheduleRequest struct {
	StartTime string `json:"start_time" validate:"required,iso8601"`
	EndTime   string `json:"end_time" validate:"required,iso8601"`
}

type AppointmentParty struct {
	ID       int    `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type AppointmentResponse struct {
	ID           int               `json:"id"`
	ConsultantID int               `json:"consultant_id"`
	ClientID     int               `json:"client_id"`
	StartTime    string            `json:"start_time"`
	EndTime      string            `json:"end_time"`
	Status       string            `json:"status"`
	Notes        *string           `json:"notes"`
	MeetingLink  *string           `json:"meeting_link"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
	Consultant   *AppointmentParty `json:"consultant,omitempty"`
	Client       *AppointmentParty `json:"client,omitempty"`
}

type DashboardResponse struct {
	Total        int64                  `json:"total"`
	Pending      int64                  `json:"pending"`
	Confirmed    int64                  `json:"confirmed"`
	Completed    int64                  `json:"completed"`
	Appointments []*AppointmentResponse `json:"appointments"`
	UpdatedCount int64                  `json:"updated_count"`
}

type DefaultAppointmentService struct {
	AppointmentRepo AppointmentRepository
	UserRepo        UserRepository
	Dispatcher      notify.Dispatcher
	Validate        *validator.Validate
}

func NewAppointmentService(apptRepo AppointmentRepository, userRepo UserRepository, dispatcher notify.Dispatcher, validate *validator.Validate) *DefaultAppointmentService {
	return &DefaultAppointmentService{
		AppointmentRepo: apptRepo,
		UserRepo:        userRepo,
		Dispatcher:      dispatcher,
		Validate:        validate,
	}
}

// CreateAppointment books a new pending appointment for the acting client.
func (a *DefaultAppointmentService) CreateAppointment(req *CreateAppointmentRequest, actor *utils.TokenData) (*AppointmentResponse, apierror.ErrorResponse) {
	if actor.UserType == entity.UserTypeConsultant {
		return nil, apierror.ClientsOnlyError
	}

	utils.Sanitize(req)
	if valerr := a.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	if req.ConsultantID == actor.UserID {
		return nil, apierror.SelfBookingError
	}

	consultant, err := a.UserRepo.FindByID(req.ConsultantID)
	if err != nil {
		log.Errorf("failed to fetch consultant %d: %v", req.ConsultantID, err)
		return nil, apierror.InternalServerError
	}
	if consultant == nil || !consultant.IsConsultant() {
		return nil, apierror.NotFoundError
	}

	start, end, apierr := parseInterval(req.StartTime, req.EndTime)
	if apierr != nil {
		return nil, apierr
	}

	now := utils.NowUTC()
	appointment := &entity.Appointment{
		ConsultantID: req.ConsultantID,
		ClientID:     actor.UserID,
		StartAt:      start,
		EndAt:        end,
		Status:       entity.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Notes != "" {
		notes := req.Notes
		appointment.Notes = &notes
	}

	if err := a.AppointmentRepo.Save(appointment); err != nil {
		log.Errorf("failed to save appointment: %v", err)
		return nil, apierror.InternalServerError
	}

	created, err := a.AppointmentRepo.FindByID(appointment.ID)
	if err != nil || created == nil {
		log.Errorf("failed to reload appointment %d: %v", appointment.ID, err)
		return toAppointmentResponse(appointment), nil
	}

	a.Dispatcher.AppointmentCreated(created)
	return toAppointmentResponse(created), nil
}

// ConfirmAppointment lets the consultant approve a pending request. A meeting
// link is minted on approval.
func (a *DefaultAppointmentService) ConfirmAppointment(id int, actor *utils.TokenData) (*AppointmentResponse, apierror.ErrorResponse) {
	appt, apierr := a.fetchAppointment(id)
	if apierr != nil {
		return nil, apierr
	}

	if appt.ConsultantID != actor.UserID {
		return nil, apierror.ConsultantOnlyError
	}
	if appt.Status != entity.StatusPending {
		return nil, apierror.NotPendingError
	}

	updated, apierr := a.transition(id, entity.StatusPending, entity.StatusConfirmed)
	if apierr != nil {
		return nil, apierr
	}

	link := "https://meet.jit.si/randevu-" + uuid.NewString()
	if err := a.AppointmentRepo.SetMeetingLink(id, link); err != nil {
		log.Errorf("failed to set meeting link for appointment %d: %v", id, err)
	} else {
		updated.MeetingLink = &link
	}

	a.Dispatcher.AppointmentConfirmed(updated)
	return toAppointmentResponse(updated), nil
}

// RejectAppointment lets the consultant turn down a pending request.
func (a *DefaultAppointmentService) RejectAppointment(id int, actor *utils.TokenData) (*AppointmentResponse, apierror.ErrorResponse) {
	appt, apierr := a.fetchAppointment(id)
	if apierr != nil {
		return nil, apierr
	}

	if appt.ConsultantID != actor.UserID {
		return nil, apierror.ConsultantOnlyError
	}
	if appt.Status != entity.StatusPending {
		return nil, apierror.NotPendingError
	}

	updated, apierr := a.transition(id, entity.StatusPending, entity.StatusCancelled)
	if apierr != nil {
		return nil, apierr
	}

	a.Dispatcher.AppointmentCancelled(updated, actor.UserID)
	return toAppointmentResponse(updated), nil
}

// CancelAppointment lets either party withdraw a pending appointment.
func (a *DefaultAppointmentService) CancelAppointment(id int, actor *utils.TokenData) (*AppointmentResponse, apierror.ErrorResponse) {
	appt, apierr := a.fetchAppointment(id)
	if apierr != nil {
		return nil, apierr
	}

	if !isParty(appt, actor.UserID) {
		return nil, apierror.NotAPartyError
	}
	if appt.Status != entity.StatusPending {
		return nil, apierror.NotPendingError
	}

	updated, apierr := a.transition(id, entity.StatusPending, entity.StatusCancelled)
	if apierr != nil {
		return nil, apierr
	}

	a.Dispatcher.AppointmentCancelled(updated, actor.UserID)
	return toAppointmentResponse(updated), nil
}

// CompleteAppointment lets the consultant close out a confirmed appointment.
func (a *DefaultAppointmentService) CompleteAppointment(id int, actor *utils.TokenData) (*AppointmentResponse, apierror.ErrorResponse) {
	appt, apierr := a.fetchAppointment(id)
	if apierr != nil {
		return nil, apierr
	}

	if appt.ConsultantID != actor.UserID {
		return nil, apierror.ConsultantOnlyError
	}
	if appt.Status != entity.StatusConfirmed {
		return nil, apierror.NotConfirmedError
	}

	updated, apierr := a.transition(id, entity.StatusConfirmed, entity.StatusCompleted)
	if apierr != nil {
		return nil, apierr
	}
	return toAppointmentResponse(updated), nil
}

// RescheduleAppointment moves the interval and sends the appointment back to
// pending so the counter-party re-approves it. The new interval is validated
// the same way creation validates it.
func (a *DefaultAppointmentService) RescheduleAppointment(id int, req *RescheduleRequest, actor *utils.TokenData) (*AppointmentResponse, apierror.ErrorResponse) {
	appt, apierr := a.fetchAppointment(id)
	if apierr != nil {
		return nil, apierr
	}

	if !isParty(appt, actor.UserID) {
		return nil, apierror.NotAPartyError
	}
	if appt.Status.IsTerminal() {
		return nil, apierror.TerminalStatusError
	}

	utils.Sanitize(req)
	if valerr := a.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	start, end, apierr := parseInterval(req.StartTime, req.EndTime)
	if apierr != nil {
		return nil, apierr
	}

	now := utils.NowUTC()
	if err := a.AppointmentRepo.UpdateTimes(id, start, end, true, now); err != nil {
		log.Errorf("failed to reschedule appointment %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	updated, err := a.AppointmentRepo.FindByID(id)
	if err != nil || updated == nil {
		log.Errorf("failed to reload appointment %d after reschedule: %v", id, err)
		return nil, apierror.InternalServerError
	}

	a.Dispatcher.AppointmentRescheduled(updated, actor.UserID)
	return toAppointmentResponse(updated), nil
}

func (a *DefaultAppointmentService) GetAppointments(actor *utils.TokenData) ([]*AppointmentResponse, apierror.ErrorResponse) {
	a.refreshExpired()

	appts, err := a.AppointmentRepo.FindByUser(actor.UserID, actor.UserType)
	if err != nil {
		log.Errorf("failed to find appointments for user %d: %v", actor.UserID, err)
		return nil, apierror.InternalServerError
	}
	return toAppointmentResponses(appts), nil
}

func (a *DefaultAppointmentService) GetAppointment(id int, actor *utils.TokenData) (*AppointmentResponse, apierror.ErrorResponse) {
	a.refreshExpired()

	appt, err := a.AppointmentRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch appointment by id %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	// Non-parties get the same answer as a missing row.
	if appt == nil || !isParty(appt, actor.UserID) {
		return nil, apierror.AppointmentNotFoundError
	}
	return toAppointmentResponse(appt), nil
}

func (a *DefaultAppointmentService) GetPendingRequests(actor *utils.TokenData) ([]*AppointmentResponse, apierror.ErrorResponse) {
	if actor.UserType != entity.UserTypeConsultant {
		return nil, apierror.ConsultantOnlyError
	}

	a.refreshExpired()

	appts, err := a.AppointmentRepo.FindPendingByConsultant(actor.UserID)
	if err != nil {
		log.Errorf("failed to find pending requests for consultant %d: %v", actor.UserID, err)
		return nil, apierror.InternalServerError
	}
	return toAppointmentResponses(appts), nil
}

func (a *DefaultAppointmentService) GetDashboard(actor *utils.TokenData) (*DashboardResponse, apierror.ErrorResponse) {
	now := utils.NowUTC()
	updatedCount, err := a.AppointmentRepo.UpdateExpired(now)
	if err != nil {
		log.Errorf("failed to refresh expired appointments: %v", err)
		return nil, apierror.InternalServerError
	}

	appts, err := a.AppointmentRepo.FindByUser(actor.UserID, actor.UserType)
	if err != nil {
		log.Errorf("failed to find appointments for user %d: %v", actor.UserID, err)
		return nil, apierror.InternalServerError
	}

	resp := &DashboardResponse{
		Appointments: toAppointmentResponses(appts),
		UpdatedCount: updatedCount,
	}

	counts := []struct {
		dst      *int64
		statuses []entity.AppointmentStatus
	}{
		{&resp.Total, []entity.AppointmentStatus{entity.StatusPending, entity.StatusConfirmed, entity.StatusCancelled, entity.StatusCompleted, entity.StatusExpired}},
		{&resp.Pending, []entity.AppointmentStatus{entity.StatusPending}},
		{&resp.Confirmed, []entity.AppointmentStatus{entity.StatusConfirmed}},
		{&resp.Completed, []entity.AppointmentStatus{entity.StatusCompleted}},
	}
	for _, c := range counts {
		count, err := a.AppointmentRepo.CountByPartyStatus(actor.UserID, actor.UserType, c.statuses...)
		if err != nil {
			log.Errorf("failed to count appointments for user %d: %v", actor.UserID, err)
			return nil, apierror.InternalServerError
		}
		*c.dst = count
	}
	return resp, nil
}

func (a *DefaultAppointmentService) fetchAppointment(id int) (*entity.Appointment, apierror.ErrorResponse) {
	appt, err := a.AppointmentRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch appointment by id %d: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if appt == nil {
		return nil, apierror.AppointmentNotFoundError
	}
	return appt, nil
}

// transition performs the conditional status write and reloads the row.
// A lost race surfaces as StatusConflictError instead of silently clobbering
// the winner's write.
func (a *DefaultAppointmentService) transition(id int, from, to entity.AppointmentStatus) (*entity.Appointment, apierror.ErrorResponse) {
	ok, err := a.AppointmentRepo.UpdateStatus(id, from, to, utils.NowUTC())
	if err != nil {
		log.Errorf("failed to update appointment %d status %s -> %s: %v", id, from, to, err)
		return nil, apierror.InternalServerError
	}
	if !ok {
		return nil, apierror.StatusConflictError
	}

	updated, err := a.AppointmentRepo.FindByID(id)
	if err != nil || updated == nil {
		log.Errorf("failed to reload appointment %d after transition: %v", id, err)
		return nil, apierror.InternalServerError
	}
	return updated, nil
}

// refreshExpired runs the sweep inline before reads so listings never show a
// stale pending row between scheduler ticks. Failures only cost freshness.
func (a *DefaultAppointmentService) refreshExpired() {
	if _, err := a.AppointmentRepo.UpdateExpired(utils.NowUTC()); err != nil {
		log.Errorf("failed to refresh expired appointments: %v", err)
	}
}

func parseInterval(startRaw, endRaw string) (int64, int64, apierror.ErrorResponse) {
	start, err := utils.FromEpoch(startRaw)
	if err != nil {
		return 0, 0, apierror.MalformedBodyError
	}
	end, err := utils.FromEpoch(endRaw)
	if err != nil {
		return 0, 0, apierror.MalformedBodyError
	}

	if start >= end {
		return 0, 0, apierror.InvalidIntervalError
	}
	if start <= utils.NowUTC() {
		return 0, 0, apierror.AppointmentInPastError
	}
	return start, end, nil
}

func isParty(appt *entity.Appointment, userId int) bool {
	return appt.ConsultantID == userId || appt.ClientID == userId
}

func toAppointmentResponses(appts []*entity.Appointment) []*AppointmentResponse {
	responses := make([]*AppointmentResponse, len(appts))
	for i, appt := range appts {
		responses[i] = toAppointmentResponse(appt)
	}
	return responses
}

func toAppointmentResponse(appt *entity.Appointment) *AppointmentResponse {
	resp := &AppointmentResponse{
		ID:           appt.ID,
		ConsultantID: appt.ConsultantID,
		ClientID:     appt.ClientID,
		StartTime:    utils.FormatEpoch(appt.StartAt),
		EndTime:      utils.FormatEpoch(appt.EndAt),
		Status:       string(appt.Status),
		Notes:        appt.Notes,
		MeetingLink:  appt.MeetingLink,
		CreatedAt:    utils.FormatEpoch(appt.CreatedAt),
		UpdatedAt:    utils.FormatEpoch(appt.UpdatedAt),
	}

	if appt.Consultant.ID != 0 {
		resp.Consultant = &AppointmentParty{
			ID:       appt.Consultant.ID,
			FullName: appt.Consultant.FullName,
			Email:    appt.Consultant.Email,
		}
	}
	if appt.Client.ID != 0 {
		resp.Client = &AppointmentParty{
			ID:       appt.Client.ID,
			FullName: appt.Client.FullName,
			Email:    appt.Client.Email,
		}
	}
	return resp
}
