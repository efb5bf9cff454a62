package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"smart-alarm/backend/internal/dto"
	"smart-alarm/backend/internal/model"
	"smart-alarm/backend/internal/repository"
)

// ── 闹钟模块业务错误 ──

var (
	ErrAlarmNotFound        = errors.New("闹钟不存在")
	ErrAlarmNotOwner        = errors.New("无权操作此闹钟")
	ErrScheduleNotFound     = errors.New("触发计划不存在")
	ErrScheduleInvalidTime  = errors.New("计划时间格式必须为 HH:MM")
	ErrAlarmInvalidMetadata = errors.New("元数据取值必须为 string/number/bool")
)

// AlarmService 闹钟模块业务接口
type AlarmService interface {
	Create(ctx context.Context, req *dto.CreateAlarmRequest, userID string) (*dto.AlarmResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateAlarmRequest, userID string) (*dto.AlarmResponse, error)
	Delete(ctx context.Context, id string, userID string) error
	Get(ctx context.Context, id string, userID string) (*dto.AlarmResponse, error)
	ListByUser(ctx context.Context, userID string) ([]dto.AlarmResponse, error)

	AddSchedule(ctx context.Context, alarmID string, req *dto.ScheduleRequest, userID string) (*dto.ScheduleResponse, error)
	UpdateSchedule(ctx context.Context, alarmID, scheduleID string, req *dto.UpdateScheduleRequest, userID string) (*dto.ScheduleResponse, error)
	RemoveSchedule(ctx context.Context, alarmID, scheduleID string, userID string) error

	// NextTrigger 按需计算闹钟的下一次触发时刻（无活跃计划时为 nil）
	NextTrigger(ctx context.Context, alarmID string, userID string, now time.Time) (*dto.NextTriggerResponse, error)
}

type alarmService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAlarmService 创建 AlarmService 实例
func NewAlarmService(repo *repository.Repository, logger *zap.Logger) AlarmService {
	return &alarmService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// 闹钟 CRUD
// ════════════════════════════════════════════════════════════

func (s *alarmService) Create(ctx context.Context, req *dto.CreateAlarmRequest, userID string) (*dto.AlarmResponse, error) {
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	metadata := model.Metadata(req.Metadata)
	if err := metadata.Validate(); err != nil {
		return nil, ErrAlarmInvalidMetadata
	}

	schedules := make([]model.Schedule, 0, len(req.Schedules))
	for _, sr := range req.Schedules {
		sched, err := buildSchedule(&sr)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *sched)
	}

	alarm := model.Alarm{
		UserID:    userID,
		Name:      req.Name,
		Enabled:   enabled,
		Metadata:  metadata,
		Schedules: schedules,
	}
	alarm.CreatedBy = &userID

	if err := s.repo.Alarm.Create(ctx, &alarm); err != nil {
		s.logger.Error("创建闹钟失败", zap.Error(err))
		return nil, err
	}

	resp := toAlarmResponse(alarm)
	return &resp, nil
}

func (s *alarmService) Update(ctx context.Context, id string, req *dto.UpdateAlarmRequest, userID string) (*dto.AlarmResponse, error) {
	alarm, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		alarm.Name = *req.Name
	}
	if req.Enabled != nil {
		alarm.Enabled = *req.Enabled
	}
	if req.Metadata != nil {
		metadata := model.Metadata(req.Metadata)
		if err := metadata.Validate(); err != nil {
			return nil, ErrAlarmInvalidMetadata
		}
		alarm.Metadata = metadata
	}
	alarm.UpdatedBy = &userID

	if err := s.repo.Alarm.Update(ctx, alarm); err != nil {
		s.logger.Error("更新闹钟失败", zap.Error(err))
		return nil, err
	}

	resp := toAlarmResponse(*alarm)
	return &resp, nil
}

func (s *alarmService) Delete(ctx context.Context, id string, userID string) error {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.Alarm.Delete(ctx, id, userID); err != nil {
		s.logger.Error("删除闹钟失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *alarmService) Get(ctx context.Context, id string, userID string) (*dto.AlarmResponse, error) {
	alarm, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	resp := toAlarmResponse(*alarm)
	return &resp, nil
}

func (s *alarmService) ListByUser(ctx context.Context, userID string) ([]dto.AlarmResponse, error) {
	alarms, err := s.repo.Alarm.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.AlarmResponse, 0, len(alarms))
	for _, a := range alarms {
		result = append(result, toAlarmResponse(a))
	}
	return result, nil
}

// ════════════════════════════════════════════════════════════
// 计划子资源
// ════════════════════════════════════════════════════════════

func (s *alarmService) AddSchedule(ctx context.Context, alarmID string, req *dto.ScheduleRequest, userID string) (*dto.ScheduleResponse, error) {
	if _, err := s.getOwned(ctx, alarmID, userID); err != nil {
		return nil, err
	}

	sched, err := buildSchedule(req)
	if err != nil {
		return nil, err
	}
	sched.AlarmID = alarmID
	sched.CreatedBy = &userID

	if err := s.repo.Alarm.AddSchedule(ctx, sched); err != nil {
		s.logger.Error("添加触发计划失败", zap.Error(err))
		return nil, err
	}

	resp := toScheduleResponse(*sched)
	return &resp, nil
}

func (s *alarmService) UpdateSchedule(ctx context.Context, alarmID, scheduleID string, req *dto.UpdateScheduleRequest, userID string) (*dto.ScheduleResponse, error) {
	if _, err := s.getOwned(ctx, alarmID, userID); err != nil {
		return nil, err
	}

	sched, err := s.repo.Alarm.GetSchedule(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	if sched.AlarmID != alarmID {
		return nil, ErrScheduleNotFound
	}

	if req.TimeOfDay != nil {
		if _, _, err := parseTimeOfDay(*req.TimeOfDay); err != nil {
			return nil, ErrScheduleInvalidTime
		}
		sched.TimeOfDay = *req.TimeOfDay
	}
	if req.Active != nil {
		sched.Active = *req.Active
	}
	if req.DaysOfWeek != nil {
		sched.DaysOfWeek = model.IntArray(*req.DaysOfWeek)
	}
	sched.UpdatedBy = &userID

	if err := s.repo.Alarm.UpdateSchedule(ctx, sched); err != nil {
		s.logger.Error("更新触发计划失败", zap.Error(err))
		return nil, err
	}

	resp := toScheduleResponse(*sched)
	return &resp, nil
}

func (s *alarmService) RemoveSchedule(ctx context.Context, alarmID, scheduleID string, userID string) error {
	if _, err := s.getOwned(ctx, alarmID, userID); err != nil {
		return err
	}
	sched, err := s.repo.Alarm.GetSchedule(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		return err
	}
	if sched.AlarmID != alarmID {
		return ErrScheduleNotFound
	}
	if err := s.repo.Alarm.RemoveSchedule(ctx, scheduleID, userID); err != nil {
		s.logger.Error("删除触发计划失败", zap.Error(err))
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// NextTrigger — 下一次触发时刻
// ════════════════════════════════════════════════════════════

func (s *alarmService) NextTrigger(ctx context.Context, alarmID string, userID string, now time.Time) (*dto.NextTriggerResponse, error) {
	alarm, err := s.getOwned(ctx, alarmID, userID)
	if err != nil {
		return nil, err
	}

	var next *time.Time
	if alarm.Enabled {
		next, err = NextTriggerTime(alarm.Schedules, now)
		if err != nil {
			return nil, ErrScheduleInvalidTime
		}
	}

	return &dto.NextTriggerResponse{
		AlarmID:     alarm.AlarmID,
		NextTrigger: next,
	}, nil
}

// ── 私有辅助方法 ──

func (s *alarmService) getOwned(ctx context.Context, id, userID string) (*model.Alarm, error) {
	alarm, err := s.repo.Alarm.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlarmNotFound
		}
		return nil, err
	}
	if alarm.UserID != userID {
		return nil, ErrAlarmNotOwner
	}
	return alarm, nil
}

func buildSchedule(req *dto.ScheduleRequest) (*model.Schedule, error) {
	if _, _, err := parseTimeOfDay(req.TimeOfDay); err != nil {
		return nil, ErrScheduleInvalidTime
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return &model.Schedule{
		TimeOfDay:  req.TimeOfDay,
		Active:     active,
		DaysOfWeek: model.IntArray(req.DaysOfWeek),
	}, nil
}

// ── 响应转换器 ──

func toAlarmResponse(a model.Alarm) dto.AlarmResponse {
	schedules := make([]dto.ScheduleResponse, 0, len(a.Schedules))
	for _, s := range a.Schedules {
		schedules = append(schedules, toScheduleResponse(s))
	}
	return dto.AlarmResponse{
		AlarmID:   a.AlarmID,
		UserID:    a.UserID,
		Name:      a.Name,
		Enabled:   a.Enabled,
		Metadata:  a.Metadata,
		Schedules: schedules,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toScheduleResponse(s model.Schedule) dto.ScheduleResponse {
	return dto.ScheduleResponse{
		ScheduleID: s.ScheduleID,
		TimeOfDay:  s.TimeOfDay,
		Active:     s.Active,
		DaysOfWeek: s.DaysOfWeek,
	}
}
