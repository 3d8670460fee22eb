package service

import (
	"randevu/cmd/internal/domain/entity"
	"randevu/cmd/internal/utils"
	"randevu/cmd/internal/utils/apierror"

	"github.com/labstack/gommon/log"
)

type NotificationRepository interface {
	FindByID(id int) (*entity.Notification, error)
	FindByUser(userId, limit int) ([]*entity.Notification, error)
	CountUnread(userId int) (int64, error)
	MarkAsRead(id int) (bool, error)
	MarkAllAsRead(userId int) error
}

const notificationPageSize = 50

type NotificationResponse struct {
	ID             int     `json:"id"`
	Title          string  `json:"title"`
	Message        string  `json:"message"`
	Type           string  `json:"type"`
	IsRead         bool    `json:"is_read"`
	AppointmentID  *int    `json:"appointment_id,omitempty"`
	ActionRequired bool    `json:"action_required"`
	ActionType     *string `json:"action_type,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

type DefaultNotificationService struct {
	NotificationRepo NotificationRepository
}

func NewNotificationService(notificationRepo NotificationRepository) *DefaultNotificationService {
	return &DefaultNotificationService{NotificationRepo: notificationRepo}
}

func (n *DefaultNotificationService) GetNotifications(actor *utils.TokenData) ([]*NotificationResponse, apierror.ErrorResponse) {
	notifications, err := n.NotificationRepo.FindByUser(actor.UserID, notificationPageSize)
	if err != nil {
		log.Errorf("failed to fetch notifications for user %d: %v", actor.UserID, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*NotificationResponse, len(notifications))
	for i, notification := range notifications {
		resp[i] = toNotificationResponse(notification)
	}
	return resp, nil
}

func (n *DefaultNotificationService) GetUnreadCount(actor *utils.TokenData) (int64, apierror.ErrorResponse) {
	count, err := n.NotificationRepo.CountUnread(actor.UserID)
	if err != nil {
		log.Errorf("failed to count unread notifications for user %d: %v", actor.UserID, err)
		return 0, apierror.InternalServerError
	}
	return count, nil
}

func (n *DefaultNotificationService) MarkAsRead(id int, actor *utils.TokenData) apierror.ErrorResponse {
	notification, err := n.NotificationRepo.FindByID(id)
	if err != nil {
		log.Errorf("failed to fetch notification %d: %v", id, err)
		return apierror.InternalServerError
	}
	if notification == nil || notification.UserID != actor.UserID {
		return apierror.NotFoundError
	}

	if _, err := n.NotificationRepo.MarkAsRead(id); err != nil {
		log.Errorf("failed to mark notification %d as read: %v", id, err)
		return apierror.InternalServerError
	}
	return nil
}

func (n *DefaultNotificationService) MarkAllAsRead(actor *utils.TokenData) apierror.ErrorResponse {
	if err := n.NotificationRepo.MarkAllAsRead(actor.UserID); err != nil {
		log.Errorf("failed to mark notifications as read for user %d: %v", actor.UserID, err)
		return apierror.InternalServerError
	}
	return nil
}

func toNotificationResponse(notification *entity.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:             notification.ID,
		Title:          notification.Title,
		Message:        notification.Message,
		Type:           notification.Type,
		IsRead:         notification.IsRead,
		AppointmentID:  notification.AppointmentID,
		ActionRequired: notification.ActionRequired,
		ActionType:     notification.ActionType,
		CreatedAt:      utils.FormatEpoch(notification.CreatedAt),
	}
}
