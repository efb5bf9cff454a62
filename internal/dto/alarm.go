package dto

import "time"

// ── 闹钟模块 ──

// CreateAlarmRequest 创建闹钟请求
type CreateAlarmRequest struct {
	Name      string                 `json:"name" binding:"required,max=100"`
	Enabled   *bool                  `json:"enabled"` // 缺省 true
	Metadata  map[string]interface{} `json:"metadata" binding:"omitempty"`
	Schedules []ScheduleRequest      `json:"schedules" binding:"omitempty,dive"`
}

// UpdateAlarmRequest 更新闹钟请求（部分字段）
type UpdateAlarmRequest struct {
	Name     *string                `json:"name" binding:"omitempty,max=100"`
	Enabled  *bool                  `json:"enabled"`
	Metadata map[string]interface{} `json:"metadata" binding:"omitempty"`
}

// ScheduleRequest 触发计划请求
type ScheduleRequest struct {
	TimeOfDay  string `json:"time_of_day" binding:"required,len=5"` // HH:MM
	Active     *bool  `json:"active"`                               // 缺省 true
	DaysOfWeek []int  `json:"days_of_week" binding:"omitempty,max=7,dive,min=1,max=7"`
}

// UpdateScheduleRequest 更新触发计划请求
type UpdateScheduleRequest struct {
	TimeOfDay  *string `json:"time_of_day" binding:"omitempty,len=5"`
	Active     *bool   `json:"active"`
	DaysOfWeek *[]int  `json:"days_of_week" binding:"omitempty,max=7,dive,min=1,max=7"`
}

// AlarmResponse 闹钟响应
type AlarmResponse struct {
	AlarmID   string                 `json:"alarm_id"`
	UserID    string                 `json:"user_id"`
	Name      string                 `json:"name"`
	Enabled   bool                   `json:"enabled"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Schedules []ScheduleResponse     `json:"schedules"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// ScheduleResponse 触发计划响应
type ScheduleResponse struct {
	ScheduleID string `json:"schedule_id"`
	TimeOfDay  string `json:"time_of_day"`
	Active     bool   `json:"active"`
	DaysOfWeek []int  `json:"days_of_week,omitempty"`
}

// NextTriggerResponse 下一次触发时刻响应
type NextTriggerResponse struct {
	AlarmID     string     `json:"alarm_id"`
	NextTrigger *time.Time `json:"next_trigger"` // null = 无活跃计划
}
