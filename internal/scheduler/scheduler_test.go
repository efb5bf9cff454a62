package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"go.uber.org/zap"

	"smart-alarm/backend/config"
	"smart-alarm/backend/internal/dto"
	"smart-alarm/backend/internal/model"
)

// ── 测试替身 ──

type fakeEvaluator struct {
	due []model.Alarm
	err error
}

func (f *fakeEvaluator) GetAlarmsDueForTriggering(_ context.Context, _ time.Time) ([]model.Alarm, error) {
	return f.due, f.err
}

type fakeEscalation struct {
	recorded  []string // 建档的 alarm_id
	failAlarm string   // 此 alarm_id 的建档固定失败
	processed int
}

func (f *fakeEscalation) RecordTrigger(_ context.Context, alarm *model.Alarm, _ time.Time) (*model.AlarmEvent, error) {
	if alarm.AlarmID == f.failAlarm {
		return nil, errors.New("fake: 建档失败")
	}
	f.recorded = append(f.recorded, alarm.AlarmID)
	return &model.AlarmEvent{EventID: "e-" + alarm.AlarmID, AlarmID: alarm.AlarmID}, nil
}

func (f *fakeEscalation) Acknowledge(_ context.Context, _, _ string, _ time.Time) (*model.AlarmEvent, error) {
	return nil, errors.New("fake: not implemented")
}

func (f *fakeEscalation) ProcessOverdue(_ context.Context, _ time.Time) error {
	f.processed++
	return nil
}

func (f *fakeEscalation) ListEvents(_ context.Context, _ string, _, _ int) ([]model.AlarmEvent, int64, error) {
	return nil, 0, nil
}

type fakeHoliday struct {
	holidayUsers map[string]bool // user_id → 当日是否节假日
	err          error
}

func (f *fakeHoliday) ImportFromReader(_ context.Context, _ io.Reader, _, _ string) (*dto.ImportHolidaysResponse, error) {
	return nil, errors.New("fake: not implemented")
}

func (f *fakeHoliday) ImportFromURL(_ context.Context, _, _, _ string) (*dto.ImportHolidaysResponse, error) {
	return nil, errors.New("fake: not implemented")
}

func (f *fakeHoliday) ListByCountry(_ context.Context, _ string) ([]dto.HolidayItem, error) {
	return nil, nil
}

func (f *fakeHoliday) IsHolidayForUser(_ context.Context, user *model.User, _ time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.holidayUsers[user.UserID], nil
}

func setupTestScheduler(evaluator *fakeEvaluator, escalation *fakeEscalation, holiday *fakeHoliday) *Scheduler {
	cfg := &config.SchedulerConfig{TickInterval: time.Minute}
	return New(cfg, evaluator, escalation, holiday, nil, zap.NewNop())
}

func dueAlarm(id, userID string, metadata model.Metadata) model.Alarm {
	return model.Alarm{
		AlarmID:  id,
		UserID:   userID,
		Enabled:  true,
		Metadata: metadata,
		User:     &model.User{UserID: userID, Country: "CN"},
	}
}

var tickTime = time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)

// ── Tick 测试 ──

func TestTick_TriggersDueAlarms(t *testing.T) {
	evaluator := &fakeEvaluator{due: []model.Alarm{
		dueAlarm("a1", "u1", nil),
		dueAlarm("a2", "u2", nil),
	}}
	escalation := &fakeEscalation{}
	sched := setupTestScheduler(evaluator, escalation, &fakeHoliday{})

	triggered, skipped := sched.Tick(context.Background(), tickTime)
	if skipped {
		t.Error("无互斥锁时不应跳过节拍")
	}
	if triggered != 2 {
		t.Errorf("期望触发 2 个闹钟，实际 %d", triggered)
	}
	if escalation.processed != 1 {
		t.Error("每个节拍应推进一次升级状态机")
	}
}

func TestTick_EvaluatorErrorAborts(t *testing.T) {
	evaluator := &fakeEvaluator{err: errors.New("fake: 评估失败")}
	escalation := &fakeEscalation{}
	sched := setupTestScheduler(evaluator, escalation, &fakeHoliday{})

	triggered, skipped := sched.Tick(context.Background(), tickTime)
	if triggered != 0 || skipped {
		t.Errorf("评估失败应返回 (0, false)，实际 (%d, %v)", triggered, skipped)
	}
	if escalation.processed != 0 {
		t.Error("评估失败的节拍不应推进升级状态机")
	}
}

func TestTick_RecordFailureDoesNotBlockBatch(t *testing.T) {
	evaluator := &fakeEvaluator{due: []model.Alarm{
		dueAlarm("a-bad", "u1", nil),
		dueAlarm("a-good", "u2", nil),
	}}
	escalation := &fakeEscalation{failAlarm: "a-bad"}
	sched := setupTestScheduler(evaluator, escalation, &fakeHoliday{})

	triggered, _ := sched.Tick(context.Background(), tickTime)
	if triggered != 1 {
		t.Errorf("单项建档失败不应阻断整批，期望 1 实际 %d", triggered)
	}
	if len(escalation.recorded) != 1 || escalation.recorded[0] != "a-good" {
		t.Errorf("正常闹钟应完成建档: %v", escalation.recorded)
	}
}

// ── 节假日跳过测试 ──

func TestTick_SkipHolidaysOptIn(t *testing.T) {
	evaluator := &fakeEvaluator{due: []model.Alarm{
		dueAlarm("a-skip", "u-holiday", model.Metadata{"skip_holidays": true}),
		dueAlarm("a-keep", "u-holiday", nil), // 未开启开关
	}}
	escalation := &fakeEscalation{}
	holiday := &fakeHoliday{holidayUsers: map[string]bool{"u-holiday": true}}
	sched := setupTestScheduler(evaluator, escalation, holiday)

	triggered, _ := sched.Tick(context.Background(), tickTime)
	if triggered != 1 {
		t.Errorf("仅显式开启 skip_holidays 的闹钟才跳过，期望触发 1 实际 %d", triggered)
	}
	if len(escalation.recorded) != 1 || escalation.recorded[0] != "a-keep" {
		t.Errorf("未开启开关的闹钟应正常触发: %v", escalation.recorded)
	}
}

func TestTick_SkipHolidaysNonHoliday(t *testing.T) {
	evaluator := &fakeEvaluator{due: []model.Alarm{
		dueAlarm("a1", "u1", model.Metadata{"skip_holidays": true}),
	}}
	escalation := &fakeEscalation{}
	sched := setupTestScheduler(evaluator, escalation, &fakeHoliday{})

	triggered, _ := sched.Tick(context.Background(), tickTime)
	if triggered != 1 {
		t.Errorf("非节假日不应跳过，期望触发 1 实际 %d", triggered)
	}
}

func TestTick_HolidayCheckFailureDoesNotSuppress(t *testing.T) {
	// 判定失败按不抑制处理：宁可多响不可漏响
	evaluator := &fakeEvaluator{due: []model.Alarm{
		dueAlarm("a1", "u1", model.Metadata{"skip_holidays": true}),
	}}
	escalation := &fakeEscalation{}
	holiday := &fakeHoliday{err: errors.New("fake: 节假日查询失败")}
	sched := setupTestScheduler(evaluator, escalation, holiday)

	triggered, _ := sched.Tick(context.Background(), tickTime)
	if triggered != 1 {
		t.Errorf("节假日判定失败时闹钟仍应触发，实际 %d", triggered)
	}
}

func TestTick_SkipHolidaysWithoutUserPreload(t *testing.T) {
	alarm := dueAlarm("a1", "u1", model.Metadata{"skip_holidays": true})
	alarm.User = nil // 属主未预加载时无法判定地区
	evaluator := &fakeEvaluator{due: []model.Alarm{alarm}}
	escalation := &fakeEscalation{}
	holiday := &fakeHoliday{holidayUsers: map[string]bool{"u1": true}}
	sched := setupTestScheduler(evaluator, escalation, holiday)

	triggered, _ := sched.Tick(context.Background(), tickTime)
	if triggered != 1 {
		t.Errorf("属主未加载时按不抑制处理，实际 %d", triggered)
	}
}
