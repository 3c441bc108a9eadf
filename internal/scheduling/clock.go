package scheduling

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock 一天内的时刻（24 小时制，精确到分钟）
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock 严格解析 "HH:MM"（两位小时、两位分钟）
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != ':' {
		return Clock{}, fmt.Errorf("时间格式应为 HH:MM: %q", s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h < 0 || h > 23 {
		return Clock{}, fmt.Errorf("小时无效: %q", s)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("分钟无效: %q", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// String 返回零填充的 "HH:MM"
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Before 比较两个时刻
func (c Clock) Before(o Clock) bool {
	if c.Hour != o.Hour {
		return c.Hour < o.Hour
	}
	return c.Minute < o.Minute
}

// IsClock 是否为合法的 "HH:MM"
func IsClock(s string) bool {
	_, err := ParseClock(s)
	return err == nil
}

// StartHour 宽松地取出开始时间的小时部分（第一个 ':' 之前的整数）。
// "9:30"、"09:15:00" 均返回 9；空串或无法解析时返回 false。
func StartHour(startTime string) (int, bool) {
	s := strings.TrimSpace(startTime)
	if s == "" {
		return 0, false
	}
	head, _, _ := strings.Cut(s, ":")
	h, err := strconv.Atoi(head)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}
