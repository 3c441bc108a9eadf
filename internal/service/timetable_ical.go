package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// parseICalendar 将 iCalendar 的 VEVENT 转为导入行：
//   - DTSTART 的星期决定 day_of_week（0 = 周一）
//   - DTSTART / DTEND 换算到 loc 后取 HH:MM
//   - SUMMARY 作为科目
//   - 同 (星期, 开始, 结束, 科目) 的重复事件只保留一条
//
// 返回导入行与无法解析的事件数。
func parseICalendar(r io.Reader, tutorID string, loc *time.Location) ([]importRow, int, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, 0, fmt.Errorf("iCalendar 格式解析失败: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}

	seen := make(map[string]bool)
	rows := make([]importRow, 0)
	skipped := 0

	for _, evt := range cal.Events() {
		start, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
		if err != nil {
			skipped++
			continue
		}
		end, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
		if err != nil || !end.After(start) {
			skipped++
			continue
		}

		day := weekdayIndex(start.Weekday())
		subject := ""
		if p := evt.GetProperty(ics.ComponentPropertySummary); p != nil {
			subject = strings.TrimSpace(p.Value)
		}
		startHHMM, endHHMM := start.Format("15:04"), end.Format("15:04")

		key := fmt.Sprintf("%d|%s|%s|%s", day, startHHMM, endHHMM, subject)
		if seen[key] {
			continue
		}
		seen[key] = true

		rows = append(rows, importRow{
			TutorID:   tutorID,
			DayOfWeek: []byte(fmt.Sprintf("%d", day)),
			StartTime: startHHMM,
			EndTime:   endHHMM,
			Subject:   subject,
		})
	}
	return rows, skipped, nil
}

// weekdayIndex time.Weekday → 0 = 周一 … 6 = 周日
func weekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性，支持 UTC、TZID 与浮动时间
func parseICSDateTime(evt *ics.VEvent, prop ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	p := evt.GetProperty(prop)
	if p == nil {
		return time.Time{}, fmt.Errorf("缺少属性 %s", prop)
	}
	val := p.Value

	tzid := ""
	for k, v := range p.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			tzid = v[0]
		}
	}

	// 全天事件（仅日期）无法落入小时网格
	for _, layout := range []string{"20060102T150405Z", "20060102T150405"} {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
