package routes

import (
	"net/http"
	"randevu/cmd/internal/service"
	"randevu/cmd/internal/utils"
	"randevu/cmd/internal/utils/apierror"
	"strconv"

	"github.com/labstack/echo/v4"
)

type AppointmentService interface {
	CreateAppointment(req *service.CreateAppointmentRequest, actor *utils.TokenData) (*service.AppointmentResponse, apierror.ErrorResponse)
	ConfirmAppointment(id int, actor *utils.TokenData) (*service.AppointmentResponse, apierror.ErrorResponse)
	RejectAppointment(id int, actor *utils.TokenData) (*service.AppointmentResponse, apierror.ErrorResponse)
	CancelAppointment(id int, actor *utils.TokenData) (*service.AppointmentResponse, apierror.ErrorResponse)
	CompleteAppointment(id int, actor *utils.TokenData) (*service.AppointmentResponse, apierror.ErrorResponse)
	RescheduleAppointment(id int, req *service.RescheduleRequest, actor *utils.TokenData) (*service.AppointmentResponse, apierror.ErrorResponse)
	GetAppointments(actor *utils.TokenData) ([]*service.AppointmentResponse, apierror.ErrorResponse)
	GetAppointment(id int, actor *utils.TokenData) (*service.AppointmentResponse, apierror.ErrorResponse)
	GetPendingRequests(actor *utils.TokenData) ([]*service.AppointmentResponse, apierror.ErrorResponse)
	GetDashboard(actor *utils.TokenData) (*service.DashboardResponse, apierror.ErrorResponse)
}

type DefaultAppointmentRoute struct {
	AppointmentService AppointmentService
}

func NewAppointmentDefault(apptService AppointmentService) *DefaultAppointmentRoute {
	return &DefaultAppointmentRoute{AppointmentService: apptService}
}

func (a *DefaultAppointmentRoute) CreateAppointment(c echo.Context) error {
	var req service.CreateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	actor, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	appt, apierr := a.AppointmentService.CreateAppointment(&req, actor)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (a *DefaultAppointmentRoute) GetAppointments(c echo.Context) error {
	actor, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	appts, apierr := a.AppointmentService.GetAppointments(actor)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"appointments": appts}
	return c.JSON(http.StatusOK, &resp)
}

func (a *DefaultAppointmentRoute) GetAppointment(c echo.Context) error {
	id, apierr := parseIDParam(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	actor, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	appt, apierr := a.AppointmentService.GetAppointment(id, actor)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, appt)
}

func (a *DefaultAppointmentRoute) GetPendingRequests(c echo.Context) error {
	actor, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	appts, apierr := a.AppointmentService.GetPendingRequests(actor)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"appointments": appts}
	return c.JSON(http.StatusOK, &resp)
}

func (a *DefaultAppointmentRoute) GetDashboard(c echo.Context) error {
	actor, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	dashboard, apierr := a.AppointmentService.GetDashboard(actor)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, dashboard)
}

func (a *DefaultAppointmentRoute) ConfirmAppointment(c echo.Context) error {
	return a.transition(c, a.AppointmentService.ConfirmAppointment)
}

func (a *DefaultAppointmentRoute) RejectAppointment(c echo.Context) error {
	return a.transition(c, a.AppointmentService.RejectAppointment)
}

func (a *DefaultAppointmentRoute) CancelAppointment(c echo.Context) error {
	return a.transition(c, a.AppointmentService.CancelAppointment)
}

func (a *DefaultAppointmentRoute) CompleteAppointment(c echo.Context) error {
	return a.transition(c, a.AppointmentService.CompleteAppointment)
}

func (a *DefaultAppointmentRoute) RescheduleAppointment(c echo.Context) error {
	id, apierr := parseIDParam(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req service.RescheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	actor, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	appt, apierr := a.AppointmentService.RescheduleAppointment(id, &req, actor)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, appt)
}

func (a *DefaultAppointmentRoute) transition(c echo.Context, apply func(int, *utils.TokenData) (*service.AppointmentResponse, apierror.ErrorResponse)) error {
	id, apierr := parseIDParam(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	actor, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	appt, apierr := apply(id, actor)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, appt)
}

func parseIDParam(c echo.Context) (int, apierror.ErrorResponse) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, apierror.NewInvalidParamTypeError("id", "int32")
	}
	return id, nil
}
