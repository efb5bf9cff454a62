package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"smart-alarm/backend/internal/model"
	"smart-alarm/backend/internal/repository"
)

// ── 到期评估模块 ────────────────────────────────────────────
//
// 设计说明：
//   - 两阶段策略：优先走存储层的索引化"到期查询"（结果已按 enabled
//     与计划命中预过滤，非空即采信）；为空时兜底全量扫描启用闹钟，
//     逐个在进程内执行计划解析。两条路径各自独立可测。
//   - 兜底扫描逐项容错：单个闹钟的解析失败记日志后按未命中处理，
//     以显式的逐项结果收集代替异常控制流，绝不中断整批。
//   - 触发窗口按属主时区判定：同一评估时刻先换算到属主用户的
//     墙钟时间再与计划比较，抑制判定同理。
//   - 存储层失败（两条路径任一）原样上抛，评估器不吞基础设施错误，
//     也不自行重试。
//   - 抑制判定通过注入的钩子完成（属主用户当日处于例外时段即排除），
//     评估器本身不硬编码过滤来源。
// ─────────────────────────────────────────────────────────────

// SuppressionCheck 抑制判定钩子：用户在指定日期是否应抑制闹钟。
type SuppressionCheck func(ctx context.Context, userID string, date time.Time) (bool, error)

// EvaluatorService 到期评估业务接口
type EvaluatorService interface {
	// GetAlarmsDueForTriggering 返回 now 时刻应触发的闹钟集合（无重复）
	GetAlarmsDueForTriggering(ctx context.Context, now time.Time) ([]model.Alarm, error)
}

type evaluatorService struct {
	repo        *repository.Repository
	suppressed  SuppressionCheck
	concurrency int
	logger      *zap.Logger
}

// NewEvaluatorService 创建 EvaluatorService 实例。
// suppressed 可为 nil（不做抑制过滤）；concurrency 为兜底扫描的并发上限。
func NewEvaluatorService(repo *repository.Repository, suppressed SuppressionCheck, concurrency int, logger *zap.Logger) EvaluatorService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &evaluatorService{
		repo:        repo,
		suppressed:  suppressed,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ════════════════════════════════════════════════════════════
// GetAlarmsDueForTriggering — 两阶段到期评估
// ════════════════════════════════════════════════════════════

func (s *evaluatorService) GetAlarmsDueForTriggering(ctx context.Context, now time.Time) ([]model.Alarm, error) {
	due, err := s.evaluateOptimized(ctx, now)
	if err != nil {
		return nil, err
	}
	if len(due) == 0 {
		due, err = s.evaluateFallback(ctx, now)
		if err != nil {
			return nil, err
		}
	}

	due = dedupeAlarms(due)

	if s.suppressed == nil {
		return due, nil
	}
	return s.applySuppression(ctx, due, now)
}

// evaluateOptimized 优化路径：索引化到期查询，结果直接采信。
func (s *evaluatorService) evaluateOptimized(ctx context.Context, now time.Time) ([]model.Alarm, error) {
	alarms, err := s.repo.Alarm.ListDueForTriggering(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("到期查询失败: %w", err)
	}
	return alarms, nil
}

// evalOutcome 兜底扫描的逐项结果
type evalOutcome struct {
	alarm model.Alarm
	due   bool
	err   error
}

// evaluateFallback 兜底路径：全量扫描启用闹钟，进程内逐个解析计划。
// 逐项并发执行（信号量限流），单项失败只记日志并排除，不影响其余项。
func (s *evaluatorService) evaluateFallback(ctx context.Context, now time.Time) ([]model.Alarm, error) {
	alarms, err := s.repo.Alarm.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询启用闹钟失败: %w", err)
	}

	outcomes := make([]evalOutcome, len(alarms))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i := range alarms {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			localNow := alarms[i].User.LocalTime(now)
			due, err := ShouldTriggerNow(alarms[i].Schedules, localNow)
			outcomes[i] = evalOutcome{alarm: alarms[i], due: due, err: err}
		}(i)
	}
	wg.Wait()

	var due []model.Alarm
	for _, o := range outcomes {
		if o.err != nil {
			// 单个损坏的闹钟不阻断整批评估
			s.logger.Warn("闹钟计划解析失败，已跳过",
				zap.String("alarm_id", o.alarm.AlarmID),
				zap.Error(o.err),
			)
			continue
		}
		if o.due {
			due = append(due, o.alarm)
		}
	}
	return due, nil
}

// applySuppression 逐属主用户执行抑制判定；同一用户只查一次。
// 抑制看的是属主时区下的日历日期。
func (s *evaluatorService) applySuppression(ctx context.Context, alarms []model.Alarm, now time.Time) ([]model.Alarm, error) {
	cache := make(map[string]bool)
	result := make([]model.Alarm, 0, len(alarms))
	for _, a := range alarms {
		blocked, ok := cache[a.UserID]
		if !ok {
			var err error
			blocked, err = s.suppressed(ctx, a.UserID, a.User.LocalTime(now))
			if err != nil {
				return nil, fmt.Errorf("抑制判定失败: %w", err)
			}
			cache[a.UserID] = blocked
		}
		if !blocked {
			result = append(result, a)
		}
	}
	return result, nil
}

// dedupeAlarms 去重，保持首次出现顺序。
func dedupeAlarms(alarms []model.Alarm) []model.Alarm {
	seen := make(map[string]struct{}, len(alarms))
	result := make([]model.Alarm, 0, len(alarms))
	for _, a := range alarms {
		if _, ok := seen[a.AlarmID]; ok {
			continue
		}
		seen[a.AlarmID] = struct{}{}
		result = append(result, a)
	}
	return result
}
