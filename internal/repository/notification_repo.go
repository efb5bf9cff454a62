package repository

import (
	"context"

	"gorm.io/gorm"

	"smart-alarm/backend/internal/model"
)

// NotificationRepository 通知记录数据访问接口
type NotificationRepository interface {
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]model.Notification, int64, error)
	Create(ctx context.Context, n *model.Notification) error
	Update(ctx context.Context, n *model.Notification) error
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]model.Notification, int64, error) {
	var list []model.Notification
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&list).Error
	return list, total, err
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) Update(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Save(n).Error
}
