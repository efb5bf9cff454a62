package model

import "time"

// 通知状态
const (
	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
)

// 通知渠道
const (
	NotificationChannelWebhook = "webhook"
	NotificationChannelEmail   = "email"
)

// Notification 通知记录表 — 对应 notifications
//
// 每次触发/升级派发产生一条记录；投递保证由外部通道负责，
// 这里只保留派发结果与重试计数用于审计。
type Notification struct {
	NotificationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	EventID        *string    `gorm:"type:uuid;index"                                json:"event_id,omitempty"`
	Channel        string     `gorm:"type:varchar(20);not null"                      json:"channel"` // webhook | email
	Message        string     `gorm:"type:varchar(500);not null"                     json:"message"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | sent | failed
	Retries        int        `gorm:"not null;default:0"                             json:"retries"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }
