package service

import (
	"testing"
	"time"

	"smart-alarm/backend/internal/model"
)

func datePeriod(id, start, end string, active bool) model.ExceptionPeriod {
	s, _ := time.Parse("2006-01-02", start)
	e, _ := time.Parse("2006-01-02", end)
	return model.ExceptionPeriod{
		PeriodID:  id,
		StartDate: s,
		EndDate:   e,
		Active:    active,
	}
}

func day(value string) time.Time {
	d, _ := time.Parse("2006-01-02", value)
	return d
}

// ── IsPeriodActiveOnDate 测试 ──

func TestIsPeriodActiveOnDate_InsideRange(t *testing.T) {
	p := datePeriod("p1", "2026-07-01", "2026-07-15", true)

	if !IsPeriodActiveOnDate(&p, day("2026-07-10")) {
		t.Error("区间内日期应生效")
	}
}

func TestIsPeriodActiveOnDate_BoundariesInclusive(t *testing.T) {
	p := datePeriod("p1", "2026-07-01", "2026-07-15", true)

	if !IsPeriodActiveOnDate(&p, day("2026-07-01")) {
		t.Error("开始日期当天应生效（双闭区间）")
	}
	if !IsPeriodActiveOnDate(&p, day("2026-07-15")) {
		t.Error("结束日期当天应生效（双闭区间）")
	}
}

func TestIsPeriodActiveOnDate_OutsideRange(t *testing.T) {
	p := datePeriod("p1", "2026-07-01", "2026-07-15", true)

	if IsPeriodActiveOnDate(&p, day("2026-06-30")) {
		t.Error("开始前一天不应生效")
	}
	if IsPeriodActiveOnDate(&p, day("2026-07-16")) {
		t.Error("结束后一天不应生效")
	}
}

func TestIsPeriodActiveOnDate_InactivePeriod(t *testing.T) {
	p := datePeriod("p1", "2026-07-01", "2026-07-15", false)

	if IsPeriodActiveOnDate(&p, day("2026-07-10")) {
		t.Error("停用时段不应生效")
	}
}

func TestIsPeriodActiveOnDate_SingleDayPeriod(t *testing.T) {
	p := datePeriod("p1", "2026-07-04", "2026-07-04", true)

	if !IsPeriodActiveOnDate(&p, day("2026-07-04")) {
		t.Error("单日时段当天应生效")
	}
	if IsPeriodActiveOnDate(&p, day("2026-07-05")) {
		t.Error("单日时段次日不应生效")
	}
}

func TestIsPeriodActiveOnDate_CrossTimezone(t *testing.T) {
	// 时段边界来自 DATE 存储（UTC 零点），评估时刻可能带任意时区；
	// 判定只看属主时区下的日历日期
	p := datePeriod("p1", "2026-03-02", "2026-03-05", true)

	cst := time.FixedZone("CST", 8*3600)
	if !IsPeriodActiveOnDate(&p, time.Date(2026, 3, 2, 7, 30, 0, 0, cst)) {
		t.Error("东八区开始日早晨应生效")
	}

	est := time.FixedZone("EST", -5*3600)
	if !IsPeriodActiveOnDate(&p, time.Date(2026, 3, 5, 22, 0, 0, 0, est)) {
		t.Error("西五区结束日晚间应生效")
	}

	if IsPeriodActiveOnDate(&p, time.Date(2026, 3, 6, 1, 0, 0, 0, cst)) {
		t.Error("结束日次日不应生效")
	}
}

func TestIsPeriodActiveOnDate_TimeOfDayIgnored(t *testing.T) {
	p := datePeriod("p1", "2026-07-01", "2026-07-15", true)
	// 结束日期当天 23:59 仍在区间内
	lateEvening := time.Date(2026, 7, 15, 23, 59, 0, 0, time.UTC)

	if !IsPeriodActiveOnDate(&p, lateEvening) {
		t.Error("只比较日期部分，当天任何时刻都应生效")
	}
}

// ── HasPeriodOverlap 测试 ──

func TestHasPeriodOverlap_PartialOverlap(t *testing.T) {
	existing := []model.ExceptionPeriod{
		datePeriod("p1", "2026-07-01", "2026-07-10", true),
	}

	if !HasPeriodOverlap(existing, day("2026-07-08"), day("2026-07-20"), "") {
		t.Error("部分重叠应判定为重叠")
	}
}

func TestHasPeriodOverlap_SharedEndpoint(t *testing.T) {
	existing := []model.ExceptionPeriod{
		datePeriod("p1", "2026-07-01", "2026-07-10", true),
	}

	// 端点相交（候选开始日 == 现存结束日）算重叠
	if !HasPeriodOverlap(existing, day("2026-07-10"), day("2026-07-20"), "") {
		t.Error("双闭区间端点相交应判定为重叠")
	}
}

func TestHasPeriodOverlap_AdjacentNotOverlap(t *testing.T) {
	existing := []model.ExceptionPeriod{
		datePeriod("p1", "2026-07-01", "2026-07-10", true),
	}

	// 首尾相邻（A.end+1 == B.start）不算重叠
	if HasPeriodOverlap(existing, day("2026-07-11"), day("2026-07-20"), "") {
		t.Error("相邻区间不应判定为重叠")
	}
}

func TestHasPeriodOverlap_Contained(t *testing.T) {
	existing := []model.ExceptionPeriod{
		datePeriod("p1", "2026-07-01", "2026-07-31", true),
	}

	if !HasPeriodOverlap(existing, day("2026-07-10"), day("2026-07-12"), "") {
		t.Error("完全包含应判定为重叠")
	}
}

func TestHasPeriodOverlap_Symmetry(t *testing.T) {
	a := datePeriod("a", "2026-07-01", "2026-07-10", true)
	b := datePeriod("b", "2026-07-08", "2026-07-20", true)

	ab := HasPeriodOverlap([]model.ExceptionPeriod{a}, b.StartDate, b.EndDate, "")
	ba := HasPeriodOverlap([]model.ExceptionPeriod{b}, a.StartDate, a.EndDate, "")
	if ab != ba {
		t.Errorf("重叠判定应对称: a-b=%v b-a=%v", ab, ba)
	}
}

func TestHasPeriodOverlap_InactiveIgnored(t *testing.T) {
	existing := []model.ExceptionPeriod{
		datePeriod("p1", "2026-07-01", "2026-07-10", false),
	}

	if HasPeriodOverlap(existing, day("2026-07-05"), day("2026-07-08"), "") {
		t.Error("停用时段不参与重叠判定")
	}
}

func TestHasPeriodOverlap_ExcludeSelf(t *testing.T) {
	existing := []model.ExceptionPeriod{
		datePeriod("p1", "2026-07-01", "2026-07-10", true),
	}

	// 更新场景：与自身重叠应被排除
	if HasPeriodOverlap(existing, day("2026-07-01"), day("2026-07-10"), "p1") {
		t.Error("excludeID 对应的记录不应参与判定")
	}
}

// ── ActivePeriodsOnDate 测试 ──

func TestActivePeriodsOnDate_FiltersAndKeepsOrder(t *testing.T) {
	periods := []model.ExceptionPeriod{
		datePeriod("p1", "2026-07-01", "2026-07-10", true),
		datePeriod("p2", "2026-08-01", "2026-08-10", true),
		datePeriod("p3", "2026-07-05", "2026-07-06", true),
	}

	result := ActivePeriodsOnDate(periods, day("2026-07-05"))
	if len(result) != 2 {
		t.Fatalf("期望 2 个生效时段，实际 %d", len(result))
	}
	if result[0].PeriodID != "p1" || result[1].PeriodID != "p3" {
		t.Errorf("应保持输入顺序: %s, %s", result[0].PeriodID, result[1].PeriodID)
	}
}
