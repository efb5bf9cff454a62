package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"smart-alarm/backend/internal/model"
	"smart-alarm/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoAlarms     = errors.New("当前用户暂无闹钟")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 导出面向人工查看：闹钟清单 + 计划明细 + 下次触发时刻
//   - ICS 导出面向日历订阅：活跃计划转为 RRULE=WEEKLY 的 VEVENT
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportAlarmsExcel 导出用户闹钟清单为 Excel
	ExportAlarmsExcel(ctx context.Context, userID string) (*bytes.Buffer, string, error)
	// ExportAlarmsICS 导出用户闹钟为 iCalendar 订阅内容
	ExportAlarmsICS(ctx context.Context, userID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// ExportAlarmsExcel — 导出闹钟清单为 Excel
// ════════════════════════════════════════════════════════════
//
// 输出格式：
//   - 表头: | 闹钟名称 | 状态 | 计划时间 | 生效日 | 计划状态 | 下次触发 |
//   - 每条触发计划占一行；无计划的闹钟单独占一行
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportAlarmsExcel(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	alarms, err := s.loadAlarms(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "闹钟清单"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 24)
	f.SetColWidth(sheetName, "B", "B", 8)
	f.SetColWidth(sheetName, "C", "C", 10)
	f.SetColWidth(sheetName, "D", "D", 20)
	f.SetColWidth(sheetName, "E", "E", 10)
	f.SetColWidth(sheetName, "F", "F", 20)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 表头
	headers := []string{"闹钟名称", "状态", "计划时间", "生效日", "计划状态", "下次触发"}
	for i, h := range headers {
		cl, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cl, h)
		f.SetCellStyle(sheetName, cl, cl, headerStyle)
	}

	now := time.Now()
	row := 2
	for _, alarm := range alarms {
		enabledText := "启用"
		if !alarm.Enabled {
			enabledText = "停用"
		}

		next := "-"
		if alarm.Enabled {
			if t, err := NextTriggerTime(alarm.Schedules, now); err == nil && t != nil {
				next = t.Format("2006-01-02 15:04")
			}
		}

		if len(alarm.Schedules) == 0 {
			f.SetCellValue(sheetName, cell("A", row), alarm.Name)
			f.SetCellValue(sheetName, cell("B", row), enabledText)
			f.SetCellValue(sheetName, cell("C", row), "-")
			f.SetCellValue(sheetName, cell("D", row), "-")
			f.SetCellValue(sheetName, cell("E", row), "-")
			f.SetCellValue(sheetName, cell("F", row), next)
			row++
			continue
		}

		for _, sched := range alarm.Schedules {
			activeText := "活跃"
			if !sched.Active {
				activeText = "停用"
			}
			f.SetCellValue(sheetName, cell("A", row), alarm.Name)
			f.SetCellValue(sheetName, cell("B", row), enabledText)
			f.SetCellValue(sheetName, cell("C", row), sched.TimeOfDay)
			f.SetCellValue(sheetName, cell("D", row), formatDaysOfWeek(sched.DaysOfWeek))
			f.SetCellValue(sheetName, cell("E", row), activeText)
			f.SetCellValue(sheetName, cell("F", row), next)
			row++
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("闹钟清单_%s.xlsx", now.Format("20060102"))
	return buf, filename, nil
}

// ════════════════════════════════════════════════════════════
// ExportAlarmsICS — 导出闹钟为 iCalendar
// ════════════════════════════════════════════════════════════
//
// 每条活跃计划生成一个 VEVENT：
//   - DTSTART 取下一次命中该计划的时刻
//   - 有生效日过滤时生成 RRULE=WEEKLY;BYDAY=…，无过滤时 RRULE=DAILY

func (s *exportService) ExportAlarmsICS(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	alarms, err := s.loadAlarms(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//smart-alarm//backend//CN")

	now := time.Now()
	for _, alarm := range alarms {
		if !alarm.Enabled {
			continue
		}
		for _, sched := range alarm.ActiveSchedules() {
			start, err := nextOccurrence(sched, now)
			if err != nil {
				continue
			}

			evt := cal.AddEvent(fmt.Sprintf("%s@smart-alarm", sched.ScheduleID))
			evt.SetDtStampTime(now)
			evt.SetStartAt(start)
			evt.SetEndAt(start.Add(5 * time.Minute))
			evt.SetSummary(alarm.Name)
			evt.AddRrule(buildRRule(sched.DaysOfWeek))
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("alarms_%s.ics", now.Format("20060102"))
	return buf, filename, nil
}

// ── 私有辅助方法 ──

func (s *exportService) loadAlarms(ctx context.Context, userID string) ([]model.Alarm, error) {
	alarms, err := s.repo.Alarm.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询闹钟失败", zap.Error(err))
		return nil, err
	}
	if len(alarms) == 0 {
		return nil, ErrExportNoAlarms
	}
	return alarms, nil
}

// nextOccurrence 计算单条计划在 now 之后的首次命中时刻
func nextOccurrence(sched model.Schedule, now time.Time) (time.Time, error) {
	hour, minute, err := parseTimeOfDay(sched.TimeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	for offset := 0; offset < 8; offset++ {
		day := now.AddDate(0, 0, offset)
		candidate := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
		if candidate.Before(now) {
			continue
		}
		if len(sched.DaysOfWeek) == 0 || sched.DaysOfWeek.Contains(isoWeekday(candidate)) {
			return candidate, nil
		}
	}
	return time.Time{}, fmt.Errorf("计划 %s 一周内无命中日", sched.ScheduleID)
}

// buildRRule 生成周重复规则；空生效日过滤表示每天
func buildRRule(days model.IntArray) string {
	if len(days) == 0 {
		return "FREQ=DAILY"
	}
	byDay := map[int]string{1: "MO", 2: "TU", 3: "WE", 4: "TH", 5: "FR", 6: "SA", 7: "SU"}
	codes := make([]string, 0, len(days))
	for _, d := range days {
		if code, ok := byDay[d]; ok {
			codes = append(codes, code)
		}
	}
	return "FREQ=WEEKLY;BYDAY=" + strings.Join(codes, ",")
}

func formatDaysOfWeek(days model.IntArray) string {
	if len(days) == 0 {
		return "每天"
	}
	names := map[int]string{1: "周一", 2: "周二", 3: "周三", 4: "周四", 5: "周五", 6: "周六", 7: "周日"}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		if name, ok := names[d]; ok {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "、")
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
