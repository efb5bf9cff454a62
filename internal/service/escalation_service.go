package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"smart-alarm/backend/internal/model"
	"smart-alarm/backend/internal/repository"
)

// ── 升级模块业务错误 ──

var (
	ErrEventNotFound          = errors.New("触发事件不存在")
	ErrEventNotOwner          = errors.New("无权操作此触发事件")
	ErrEventInvalidTransition = errors.New("触发事件状态不允许此操作")
)

// ── 升级编排器 ──────────────────────────────────────────────
//
// 状态机（见 model.AlarmEvent）：
//
//	triggered --确认--> acknowledged（成功终态）
//	triggered --宽限窗口超时--> missed --> escalating(level=1)
//	escalating --重发间隔到期--> escalating(level+1) … 直至上限
//	escalating --超过上限--> given_up（失败终态，上报不静默）
//
// 通知/确认的传输由外部承担，这里只负责迁移规则与重发节奏。
// ─────────────────────────────────────────────────────────────

// EscalationService 升级编排业务接口
type EscalationService interface {
	// RecordTrigger 为到期闹钟建档触发事件并派发首次通知。
	// 同一闹钟存在未了结事件时不重复建档（幂等）。
	RecordTrigger(ctx context.Context, alarm *model.Alarm, now time.Time) (*model.AlarmEvent, error)
	// Acknowledge 确认触发事件（属主校验，区别于 not found）
	Acknowledge(ctx context.Context, eventID, userID string, now time.Time) (*model.AlarmEvent, error)
	// ProcessOverdue 处理超期事件：宽限窗口超时转 missed/escalating，
	// 升级中事件按间隔重发或转 given_up。逐项容错，单项失败不阻断。
	ProcessOverdue(ctx context.Context, now time.Time) error
	// ListEvents 查询用户的触发事件（分页）
	ListEvents(ctx context.Context, userID string, page, pageSize int) ([]model.AlarmEvent, int64, error)
}

type escalationService struct {
	repo               *repository.Repository
	notifier           Notifier
	graceWindow        time.Duration
	escalationInterval time.Duration
	maxLevel           int
	logger             *zap.Logger
}

// NewEscalationService 创建 EscalationService 实例
func NewEscalationService(
	repo *repository.Repository,
	notifier Notifier,
	graceWindow, escalationInterval time.Duration,
	maxLevel int,
	logger *zap.Logger,
) EscalationService {
	return &escalationService{
		repo:               repo,
		notifier:           notifier,
		graceWindow:        graceWindow,
		escalationInterval: escalationInterval,
		maxLevel:           maxLevel,
		logger:             logger,
	}
}

// ════════════════════════════════════════════════════════════
// RecordTrigger — 触发建档
// ════════════════════════════════════════════════════════════

func (s *escalationService) RecordTrigger(ctx context.Context, alarm *model.Alarm, now time.Time) (*model.AlarmEvent, error) {
	// 幂等：未了结事件在途时不重复建档
	existing, err := s.repo.AlarmEvent.FindOpenByAlarm(ctx, alarm.AlarmID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	event := model.AlarmEvent{
		AlarmID:        alarm.AlarmID,
		UserID:         alarm.UserID,
		Status:         model.EventStatusTriggered,
		TriggeredAt:    &now,
		LastNotifiedAt: &now,
	}
	if err := s.repo.AlarmEvent.Create(ctx, &event); err != nil {
		return nil, fmt.Errorf("创建触发事件失败: %w", err)
	}

	msg := fmt.Sprintf("闹钟「%s」已触发，请确认", alarm.Name)
	if err := s.notifier.Dispatch(ctx, alarm.UserID, &event.EventID, msg); err != nil {
		s.logger.Error("触发通知派发失败", zap.String("event_id", event.EventID), zap.Error(err))
	}

	return &event, nil
}

// ════════════════════════════════════════════════════════════
// Acknowledge — 确认触发事件
// ════════════════════════════════════════════════════════════

func (s *escalationService) Acknowledge(ctx context.Context, eventID, userID string, now time.Time) (*model.AlarmEvent, error) {
	event, err := s.repo.AlarmEvent.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	// 属主不符是鉴权失败，与 not found 区分（安全审计需要）
	if event.UserID != userID {
		return nil, ErrEventNotOwner
	}
	if !event.CanTransitionTo(model.EventStatusAcknowledged) {
		return nil, ErrEventInvalidTransition
	}

	event.Status = model.EventStatusAcknowledged
	event.AcknowledgedAt = &now
	if err := s.repo.AlarmEvent.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("更新触发事件失败: %w", err)
	}
	return event, nil
}

// ════════════════════════════════════════════════════════════
// ProcessOverdue — 超期处理（每个评估节拍调用一次）
// ════════════════════════════════════════════════════════════

func (s *escalationService) ProcessOverdue(ctx context.Context, now time.Time) error {
	// 1. 宽限窗口超时：triggered → missed → escalating(1) + 重发
	overdue, err := s.repo.AlarmEvent.ListTriggeredBefore(ctx, now.Add(-s.graceWindow))
	if err != nil {
		return fmt.Errorf("查询超期事件失败: %w", err)
	}
	for i := range overdue {
		if err := s.escalate(ctx, &overdue[i], now); err != nil {
			s.logger.Error("事件升级失败",
				zap.String("event_id", overdue[i].EventID),
				zap.Error(err),
			)
		}
	}

	// 2. 升级中事件：按重发间隔再升级或放弃
	escalating, err := s.repo.AlarmEvent.ListEscalating(ctx, now.Add(-s.escalationInterval))
	if err != nil {
		return fmt.Errorf("查询升级中事件失败: %w", err)
	}
	for i := range escalating {
		if err := s.escalate(ctx, &escalating[i], now); err != nil {
			s.logger.Error("事件升级失败",
				zap.String("event_id", escalating[i].EventID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// escalate 推进单个事件的升级状态。
// triggered 事件先落 missed 再进入 escalating；升级达到上限转 given_up。
func (s *escalationService) escalate(ctx context.Context, event *model.AlarmEvent, now time.Time) error {
	if event.Status == model.EventStatusTriggered {
		if !event.CanTransitionTo(model.EventStatusMissed) {
			return ErrEventInvalidTransition
		}
		event.Status = model.EventStatusMissed
	}

	if event.EscalationLevel >= s.maxLevel {
		if !event.CanTransitionTo(model.EventStatusGivenUp) {
			return ErrEventInvalidTransition
		}
		event.Status = model.EventStatusGivenUp
		if err := s.repo.AlarmEvent.Update(ctx, event); err != nil {
			return fmt.Errorf("更新触发事件失败: %w", err)
		}
		// given_up 必须上报，不允许静默丢弃
		s.logger.Error("触发事件升级达到上限，已放弃",
			zap.String("event_id", event.EventID),
			zap.String("alarm_id", event.AlarmID),
			zap.Int("escalation_level", event.EscalationLevel),
		)
		msg := fmt.Sprintf("闹钟提醒在 %d 次升级后仍未确认，已停止重发", event.EscalationLevel)
		if err := s.notifier.Dispatch(ctx, event.UserID, &event.EventID, msg); err != nil {
			s.logger.Error("放弃通知派发失败", zap.String("event_id", event.EventID), zap.Error(err))
		}
		return nil
	}

	if !event.CanTransitionTo(model.EventStatusEscalating) {
		return ErrEventInvalidTransition
	}
	event.Status = model.EventStatusEscalating
	event.EscalationLevel++
	event.LastNotifiedAt = &now
	if err := s.repo.AlarmEvent.Update(ctx, event); err != nil {
		return fmt.Errorf("更新触发事件失败: %w", err)
	}

	name := event.AlarmID
	if event.Alarm != nil {
		name = event.Alarm.Name
	}
	msg := fmt.Sprintf("闹钟「%s」仍未确认（第 %d 次提醒）", name, event.EscalationLevel)
	if err := s.notifier.Dispatch(ctx, event.UserID, &event.EventID, msg); err != nil {
		s.logger.Error("升级通知派发失败", zap.String("event_id", event.EventID), zap.Error(err))
	}
	return nil
}

func (s *escalationService) ListEvents(ctx context.Context, userID string, page, pageSize int) ([]model.AlarmEvent, int64, error) {
	return s.repo.AlarmEvent.ListByUser(ctx, userID, page, pageSize)
}
