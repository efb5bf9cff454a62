package service

import (
	"time"

	"smart-alarm/backend/internal/model"
)

// ── 例外时段过滤器 ──────────────────────────────────────────
//
// 职责：回答"用户在日期 D 是否处于闹钟抑制中"与"两个日期区间
// 是否重叠"，并为写操作提供重叠不变量的谓词。
//
// 设计决策：
//   - 日期区间为双闭区间，重叠判定为 s1<=e2 && s2<=e1（含端点相交）；
//     首尾相邻（A.end+1 == B.start）不算重叠。
//   - 只比较日期部分，时区/时刻信息在入口处截断。
//   - 纯函数；检查-写入的事务性由持久层的排它约束兜底。
// ─────────────────────────────────────────────────────────────

// IsPeriodActiveOnDate 判断时段在指定日期是否生效。
// 仅当 period.Active 且 start <= date <= end（含两端）时为 true。
func IsPeriodActiveOnDate(period *model.ExceptionPeriod, date time.Time) bool {
	if !period.Active {
		return false
	}
	d := truncateToDate(date)
	return !d.Before(truncateToDate(period.StartDate)) &&
		!d.After(truncateToDate(period.EndDate))
}

// HasPeriodOverlap 判断候选区间 [start, end] 是否与任一现存活跃时段重叠。
// excludeID 非空时跳过对应记录（更新场景排除自身）。
func HasPeriodOverlap(periods []model.ExceptionPeriod, start, end time.Time, excludeID string) bool {
	s2, e2 := truncateToDate(start), truncateToDate(end)
	for _, p := range periods {
		if !p.Active {
			continue
		}
		if excludeID != "" && p.PeriodID == excludeID {
			continue
		}
		s1, e1 := truncateToDate(p.StartDate), truncateToDate(p.EndDate)
		// 双闭区间相交
		if !s1.After(e2) && !s2.After(e1) {
			return true
		}
	}
	return false
}

// ActivePeriodsOnDate 过滤出指定日期生效的时段，保持输入顺序。
func ActivePeriodsOnDate(periods []model.ExceptionPeriod, date time.Time) []model.ExceptionPeriod {
	result := make([]model.ExceptionPeriod, 0, len(periods))
	for _, p := range periods {
		if IsPeriodActiveOnDate(&p, date) {
			result = append(result, p)
		}
	}
	return result
}

// truncateToDate 截断到日期精度。按各自时区取年月日后统一落到 UTC
// 零点，保证不同时区来源的"同一天"比较结果一致。
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
