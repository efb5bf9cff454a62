// Package scheduler 驱动到期评估的节拍循环。
//
// 每个节拍（约定 1 分钟）做三件事：
//  1. 评估当前时刻到期的闹钟（service.EvaluatorService）
//  2. 为到期闹钟建档触发事件并派发首次通知
//  3. 推进在途事件的升级状态机（宽限超时 / 升级重发 / 放弃）
//
// 多实例部署时通过 Redis SETNX 互斥：同一节拍只有一个实例执行。
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"smart-alarm/backend/config"
	"smart-alarm/backend/internal/model"
	"smart-alarm/backend/internal/service"
	"smart-alarm/backend/pkg/redis"
)

// 元数据键：闹钟级节假日跳过开关
const metaKeySkipHolidays = "skip_holidays"

// Scheduler 评估节拍调度器
type Scheduler struct {
	cfg        *config.SchedulerConfig
	evaluator  service.EvaluatorService
	escalation service.EscalationService
	holiday    service.HolidayService
	rdb        *redis.Client // 可为 nil：单实例部署无需互斥
	logger     *zap.Logger
}

// New 创建 Scheduler 实例
func New(
	cfg *config.SchedulerConfig,
	evaluator service.EvaluatorService,
	escalation service.EscalationService,
	holiday service.HolidayService,
	rdb *redis.Client,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		evaluator:  evaluator,
		escalation: escalation,
		holiday:    holiday,
		rdb:        rdb,
		logger:     logger,
	}
}

// Run 启动节拍循环，阻塞直到 ctx 取消。
// 通常在独立 goroutine 中调用。
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.logger.Info("评估调度器已启动", zap.Duration("tick_interval", s.cfg.TickInterval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("评估调度器已停止")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick 执行一个评估节拍。拿不到互斥锁时整拍跳过（另一实例在途）。
// 手动触发评估（运维接口）也复用此入口。
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (triggered int, skipped bool) {
	if s.rdb != nil {
		// 锁 TTL 取节拍间隔：持有者崩溃后下一拍自然恢复
		ok, err := s.rdb.AcquireTickLock(ctx, s.cfg.TickInterval)
		if err != nil {
			s.logger.Error("获取节拍互斥锁失败", zap.Error(err))
			return 0, true
		}
		if !ok {
			s.logger.Debug("节拍互斥锁被占用，本拍跳过")
			return 0, true
		}
		defer func() {
			if err := s.rdb.ReleaseTickLock(ctx); err != nil {
				s.logger.Error("释放节拍互斥锁失败", zap.Error(err))
			}
		}()
	}

	// 1. 到期评估
	due, err := s.evaluator.GetAlarmsDueForTriggering(ctx, now)
	if err != nil {
		s.logger.Error("到期评估失败", zap.Error(err))
		return 0, false
	}

	// 2. 触发建档（逐项容错）
	for i := range due {
		alarm := &due[i]
		if s.shouldSkipForHoliday(ctx, alarm, now) {
			s.logger.Info("节假日跳过闹钟",
				zap.String("alarm_id", alarm.AlarmID),
				zap.String("user_id", alarm.UserID),
			)
			continue
		}
		if _, err := s.escalation.RecordTrigger(ctx, alarm, now); err != nil {
			s.logger.Error("触发建档失败",
				zap.String("alarm_id", alarm.AlarmID),
				zap.Error(err),
			)
			continue
		}
		triggered++
	}

	// 3. 升级状态机推进
	if err := s.escalation.ProcessOverdue(ctx, now); err != nil {
		s.logger.Error("超期事件处理失败", zap.Error(err))
	}

	if triggered > 0 {
		s.logger.Info("评估节拍完成",
			zap.Time("tick", now),
			zap.Int("due", len(due)),
			zap.Int("triggered", triggered),
		)
	}
	return triggered, false
}

// shouldSkipForHoliday 闹钟级节假日跳过：仅当元数据显式开启
// skip_holidays 且当日对属主地区为节假日时抑制。
// 判定失败按不抑制处理（宁可多响不可漏响）。
func (s *Scheduler) shouldSkipForHoliday(ctx context.Context, alarm *model.Alarm, now time.Time) bool {
	skip, err := alarm.Metadata.Bool(metaKeySkipHolidays)
	if err != nil || !skip {
		return false
	}
	if alarm.User == nil {
		return false
	}
	// 节假日看属主时区下的日历日期
	isHoliday, err := s.holiday.IsHolidayForUser(ctx, alarm.User, alarm.User.LocalTime(now))
	if err != nil {
		s.logger.Warn("节假日判定失败",
			zap.String("alarm_id", alarm.AlarmID),
			zap.Error(err),
		)
		return false
	}
	return isHoliday
}
