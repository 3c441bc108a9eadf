package scheduling

import (
	"fmt"
	"strings"
)

// Day 周排课表使用的星期（周一至周六）
type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
)

// WeekDays 排课可选的 6 个工作日，按显示顺序排列
var WeekDays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// DayNames 时间表网格的 7 列名称，下标即 day_of_week（0 = 周一）
var DayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DaysPerWeek 时间表网格的列数
const DaysPerWeek = 7

// ParseDay 解析星期名称（忽略大小写与首尾空白）
func ParseDay(s string) (Day, error) {
	name := strings.TrimSpace(s)
	for _, d := range WeekDays {
		if strings.EqualFold(name, string(d)) {
			return d, nil
		}
	}
	return "", &ValidationError{Field: "day", Reason: fmt.Sprintf("无法识别的星期 %q", s)}
}

// Valid 是否为可排课的星期
func (d Day) Valid() bool {
	return d.Index() >= 0
}

// Index 返回 0 起始的星期下标（0 = 周一），非法值返回 -1
func (d Day) Index() int {
	for i, wd := range WeekDays {
		if d == wd {
			return i
		}
	}
	return -1
}

// DayFromIndex 由下标还原星期，仅接受 0-5
func DayFromIndex(i int) (Day, bool) {
	if i < 0 || i >= len(WeekDays) {
		return "", false
	}
	return WeekDays[i], true
}
