package routes

import (
	"net/http"
	"randevu/cmd/internal/service"
	"randevu/cmd/internal/utils"
	"randevu/cmd/internal/utils/apierror"
	"strconv"

	"github.com/labstack/echo/v4"
)

type NotificationService interface {
	GetNotifications(actor *utils.TokenData) ([]*service.NotificationResponse, apierror.ErrorResponse)
	GetUnreadCount(actor *utils.TokenData) (int64, apierror.ErrorResponse)
	MarkAsRead(id int, actor *utils.TokenData) apierror.ErrorResponse
	MarkAllAsRead(actor *utils.TokenData) apierror.ErrorResponse
}

type DefaultNotificationRoute struct {
	NotificationService NotificationService
}

func NewNotificationDefault(notificationService NotificationService) *DefaultNotificationRoute {
	return &DefaultNotificationRoute{NotificationService: notificationService}
}

func (n *DefaultNotificationRoute) GetNotifications(c echo.Context) error {
	actor, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	notifications, apierr := n.NotificationService.GetNotifications(actor)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"notifications": notifications}
	return c.JSON(http.StatusOK, &resp)
}

func (n *DefaultNotificationRoute) GetUnreadCount(c echo.Context) error {
	actor, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	count, apierr := n.NotificationService.GetUnreadCount(actor)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"unread_count": count}
	return c.JSON(http.StatusOK, &resp)
}

func (n *DefaultNotificationRoute) MarkAsRead(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apierr := apierror.NewInvalidParamTypeError("id", "int32")
		return c.JSON(apierr.Code(), apierr)
	}

	actor, terr := utils.ParseTokenDataCtx(c)
	if terr != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	if apierr := n.NotificationService.MarkAsRead(id, actor); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

func (n *DefaultNotificationRoute) MarkAllAsRead(c echo.Context) error {
	actor, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	if apierr := n.NotificationService.MarkAllAsRead(actor); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}
