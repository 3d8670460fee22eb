package repository

import (
	"errors"
	"randevu/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultNotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *DefaultNotificationRepository {
	return &DefaultNotificationRepository{db: db}
}

func (n *DefaultNotificationRepository) Save(notification *entity.Notification) error {
	return n.db.Save(notification).Error
}

func (n *DefaultNotificationRepository) FindByID(id int) (*entity.Notification, error) {
	var notification entity.Notification
	err := n.db.First(&notification, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &notification, err
}

func (n *DefaultNotificationRepository) FindByUser(userId, limit int) ([]*entity.Notification, error) {
	var notifications []*entity.Notification
	err := n.db.Where("user_id = ?", userId).
		Order("created_at desc").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (n *DefaultNotificationRepository) CountUnread(userId int) (int64, error) {
	var count int64
	err := n.db.Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Count(&count).Error
	return count, err
}

func (n *DefaultNotificationRepository) MarkAsRead(id int) (bool, error) {
	res := n.db.Model(&entity.Notification{}).
		Where("id = ?", id).
		Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}

func (n *DefaultNotificationRepository) MarkAllAsRead(userId int) error {
	return n.db.Model(&entity.Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Update("is_read", true).Error
}
