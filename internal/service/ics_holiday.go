package service

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"smart-alarm/backend/internal/model"
)

// ── 节假日 ICS 解析器 ──────────────────────────────────────────
//
// 职责：将标准 iCalendar (RFC 5545) 节假日订阅解析为 Holiday 列表。
//
// 设计决策：
//   - 节假日日历以全天事件 (DTSTART;VALUE=DATE) 为主，只取日期部分
//   - SUMMARY 作为节假日描述；无 SUMMARY 的事件跳过
//   - 多天假期（DTEND - DTSTART > 1 天）展开为逐日条目
//   - 同一日期重复出现时去重，保留首个描述
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout = 30 * time.Second
)

// FetchICSContent 从 URL 获取 ICS 内容
func FetchICSContent(rawURL string) (io.ReadCloser, error) {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	// 限制响应体大小，防止恶意 URL 返回超大内容导致 OOM
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// ParseHolidayICS 解析 ICS 内容并转为 Holiday 列表
func ParseHolidayICS(reader io.Reader, country, state string) ([]model.Holiday, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	seen := make(map[string]bool)
	var holidays []model.Holiday

	for _, evt := range cal.Events() {
		summary := evt.GetProperty(ics.ComponentPropertySummary)
		if summary == nil || strings.TrimSpace(summary.Value) == "" {
			continue
		}
		desc := strings.TrimSpace(summary.Value)

		start, err := parseICSDate(evt, ics.ComponentPropertyDtStart)
		if err != nil {
			continue
		}
		// DTEND 在全天事件中为排他边界；缺失视为单日
		end := start.AddDate(0, 0, 1)
		if e, err := parseICSDate(evt, ics.ComponentPropertyDtEnd); err == nil && e.After(start) {
			end = e
		}

		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			key := d.Format("20060102")
			if seen[key] {
				continue
			}
			seen[key] = true
			holidays = append(holidays, model.Holiday{
				Date:        d,
				Description: desc,
				Country:     country,
				State:       state,
			})
		}
	}

	sort.Slice(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})
	return holidays, nil
}

// parseICSDate 从 VEVENT 中解析日期属性，只保留日期部分 (UTC 零点)
func parseICSDate(evt *ics.VEvent, propName ics.ComponentProperty) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	formats := []string{
		"20060102",
		"20060102T150405Z",
		"20060102T150405",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, val); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
