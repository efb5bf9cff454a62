package dto

import "time"

// ── 触发评估模块 ──

// DueAlarmsResponse 到期闹钟响应
type DueAlarmsResponse struct {
	EvaluatedAt time.Time       `json:"evaluated_at"`
	Count       int             `json:"count"`
	Alarms      []AlarmResponse `json:"alarms"`
}

// EvaluateTickResponse 手动执行评估节拍的响应
type EvaluateTickResponse struct {
	EvaluatedAt    time.Time `json:"evaluated_at"`
	TriggeredCount int       `json:"triggered_count"`
	Skipped        bool      `json:"skipped"` // 已有节拍在途时为 true
}

// AlarmEventResponse 触发事件响应
type AlarmEventResponse struct {
	EventID         string     `json:"event_id"`
	AlarmID         string     `json:"alarm_id"`
	AlarmName       string     `json:"alarm_name,omitempty"`
	Status          string     `json:"status"`
	TriggeredAt     *time.Time `json:"triggered_at,omitempty"`
	AcknowledgedAt  *time.Time `json:"acknowledged_at,omitempty"`
	EscalationLevel int        `json:"escalation_level"`
	LastNotifiedAt  *time.Time `json:"last_notified_at,omitempty"`
}

// NotificationResponse 通知记录响应
type NotificationResponse struct {
	NotificationID string     `json:"notification_id"`
	Channel        string     `json:"channel"`
	Message        string     `json:"message"`
	Status         string     `json:"status"`
	Retries        int        `json:"retries"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PageRequest 通用分页查询
type PageRequest struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
}
