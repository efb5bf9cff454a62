package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"smart-alarm/backend/internal/model"
	"smart-alarm/backend/internal/repository"
)

// errMockDB 模拟存储层基础设施故障
var errMockDB = errors.New("mock: 数据库不可用")

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, _, _ int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

// ── Mock AlarmRepository ──

type mockAlarmRepo struct {
	alarms    map[string]*model.Alarm
	schedules map[string]*model.Schedule

	due         []model.Alarm // ListDueForTriggering 的固定返回
	failDue     bool
	failEnabled bool
}

func newMockAlarmRepo() *mockAlarmRepo {
	return &mockAlarmRepo{
		alarms:    make(map[string]*model.Alarm),
		schedules: make(map[string]*model.Schedule),
	}
}

func (m *mockAlarmRepo) GetByID(_ context.Context, id string) (*model.Alarm, error) {
	if a, ok := m.alarms[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAlarmRepo) ListByUser(_ context.Context, userID string) ([]model.Alarm, error) {
	var result []model.Alarm
	for _, a := range m.alarms {
		if a.UserID == userID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAlarmRepo) ListEnabled(_ context.Context) ([]model.Alarm, error) {
	if m.failEnabled {
		return nil, errMockDB
	}
	var result []model.Alarm
	for _, a := range m.alarms {
		if a.Enabled {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAlarmRepo) ListDueForTriggering(_ context.Context, _ time.Time) ([]model.Alarm, error) {
	if m.failDue {
		return nil, errMockDB
	}
	return m.due, nil
}

func (m *mockAlarmRepo) Create(_ context.Context, alarm *model.Alarm) error {
	if alarm.AlarmID == "" {
		alarm.AlarmID = "alarm-" + alarm.Name
	}
	m.alarms[alarm.AlarmID] = alarm
	return nil
}

func (m *mockAlarmRepo) Update(_ context.Context, alarm *model.Alarm) error {
	m.alarms[alarm.AlarmID] = alarm
	return nil
}

func (m *mockAlarmRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.alarms, id)
	return nil
}

func (m *mockAlarmRepo) AddSchedule(_ context.Context, schedule *model.Schedule) error {
	if schedule.ScheduleID == "" {
		schedule.ScheduleID = "sched-" + schedule.TimeOfDay
	}
	m.schedules[schedule.ScheduleID] = schedule
	return nil
}

func (m *mockAlarmRepo) GetSchedule(_ context.Context, scheduleID string) (*model.Schedule, error) {
	if s, ok := m.schedules[scheduleID]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAlarmRepo) UpdateSchedule(_ context.Context, schedule *model.Schedule) error {
	m.schedules[schedule.ScheduleID] = schedule
	return nil
}

func (m *mockAlarmRepo) RemoveSchedule(_ context.Context, scheduleID string, _ string) error {
	delete(m.schedules, scheduleID)
	return nil
}

// ── Mock ExceptionPeriodRepository ──

type mockPeriodRepo struct {
	periods        map[string]*model.ExceptionPeriod
	failListActive bool
}

func newMockPeriodRepo() *mockPeriodRepo {
	return &mockPeriodRepo{periods: make(map[string]*model.ExceptionPeriod)}
}

func (m *mockPeriodRepo) GetByID(_ context.Context, id string) (*model.ExceptionPeriod, error) {
	if p, ok := m.periods[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPeriodRepo) ListByUser(_ context.Context, userID string) ([]model.ExceptionPeriod, error) {
	var result []model.ExceptionPeriod
	for _, p := range m.periods {
		if p.UserID == userID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPeriodRepo) ListActiveByUser(_ context.Context, userID string) ([]model.ExceptionPeriod, error) {
	if m.failListActive {
		return nil, errMockDB
	}
	var result []model.ExceptionPeriod
	for _, p := range m.periods {
		if p.UserID == userID && p.Active {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPeriodRepo) ListActiveOnDate(_ context.Context, userID string, date time.Time) ([]model.ExceptionPeriod, error) {
	active, err := m.ListActiveByUser(context.Background(), userID)
	if err != nil {
		return nil, err
	}
	return ActivePeriodsOnDate(active, date), nil
}

func (m *mockPeriodRepo) Create(_ context.Context, period *model.ExceptionPeriod) error {
	if period.PeriodID == "" {
		period.PeriodID = "period-" + period.Name
	}
	m.periods[period.PeriodID] = period
	return nil
}

func (m *mockPeriodRepo) Update(_ context.Context, period *model.ExceptionPeriod) error {
	m.periods[period.PeriodID] = period
	return nil
}

func (m *mockPeriodRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.periods, id)
	return nil
}

// ── Mock HolidayRepository ──

type mockHolidayRepo struct {
	holidays []model.Holiday
}

func newMockHolidayRepo() *mockHolidayRepo {
	return &mockHolidayRepo{}
}

func (m *mockHolidayRepo) ListByCountry(_ context.Context, country string) ([]model.Holiday, error) {
	var result []model.Holiday
	for _, h := range m.holidays {
		if h.Country == country {
			result = append(result, h)
		}
	}
	return result, nil
}

func (m *mockHolidayRepo) ListOnDate(_ context.Context, date time.Time, country string) ([]model.Holiday, error) {
	var result []model.Holiday
	for _, h := range m.holidays {
		if h.Country == country && h.Date.Equal(date) {
			result = append(result, h)
		}
	}
	return result, nil
}

func (m *mockHolidayRepo) ReplaceByCountry(_ context.Context, country string, holidays []model.Holiday) error {
	var kept []model.Holiday
	for _, h := range m.holidays {
		if h.Country != country {
			kept = append(kept, h)
		}
	}
	m.holidays = append(kept, holidays...)
	return nil
}

// ── Mock AlarmEventRepository ──

type mockEventRepo struct {
	events map[string]*model.AlarmEvent
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string]*model.AlarmEvent)}
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (*model.AlarmEvent, error) {
	if e, ok := m.events[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]model.AlarmEvent, int64, error) {
	var result []model.AlarmEvent
	for _, e := range m.events {
		if e.UserID == userID {
			result = append(result, *e)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockEventRepo) ListTriggeredBefore(_ context.Context, cutoff time.Time) ([]model.AlarmEvent, error) {
	var result []model.AlarmEvent
	for _, e := range m.events {
		if e.Status == model.EventStatusTriggered && e.TriggeredAt != nil && e.TriggeredAt.Before(cutoff) {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEventRepo) ListEscalating(_ context.Context, cutoff time.Time) ([]model.AlarmEvent, error) {
	var result []model.AlarmEvent
	for _, e := range m.events {
		if e.Status == model.EventStatusEscalating && e.LastNotifiedAt != nil && e.LastNotifiedAt.Before(cutoff) {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEventRepo) FindOpenByAlarm(_ context.Context, alarmID string) (*model.AlarmEvent, error) {
	for _, e := range m.events {
		if e.AlarmID == alarmID && !e.IsTerminal() {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) Create(_ context.Context, event *model.AlarmEvent) error {
	if event.EventID == "" {
		event.EventID = "event-" + event.AlarmID
	}
	m.events[event.EventID] = event
	return nil
}

func (m *mockEventRepo) Update(_ context.Context, event *model.AlarmEvent) error {
	cp := *event
	m.events[event.EventID] = &cp
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []*model.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]model.Notification, int64, error) {
	var result []model.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			result = append(result, *n)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if n.NotificationID == "" {
		n.NotificationID = "notif-" + n.UserID
	}
	cp := *n
	m.notifications = append(m.notifications, &cp)
	return nil
}

func (m *mockNotificationRepo) Update(_ context.Context, n *model.Notification) error {
	for i, existing := range m.notifications {
		if existing.NotificationID == n.NotificationID {
			cp := *n
			m.notifications[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── 聚合辅助 ──

func newMockRepository() *repository.Repository {
	return &repository.Repository{
		User:            newMockUserRepo(),
		Alarm:           newMockAlarmRepo(),
		ExceptionPeriod: newMockPeriodRepo(),
		Holiday:         newMockHolidayRepo(),
		AlarmEvent:      newMockEventRepo(),
		Notification:    newMockNotificationRepo(),
	}
}
