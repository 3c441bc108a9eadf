package scheduling

import (
	"fmt"
	"sort"
)

const (
	defaultSubject = "Untitled"
	defaultTutor   = "Unknown Tutor"

	// PaletteSize 导师配色板大小，颜色下标按导师首次出现顺序循环分配
	PaletteSize = 8
)

// TimetableEntry 时间表条目的只读视图（来自 REST 数据源）
type TimetableEntry struct {
	ID                 string `json:"id"`
	TutorID            string `json:"tutor_id,omitempty"`
	TutorName          string `json:"tutor_name,omitempty"`
	DayOfWeek          *int   `json:"day_of_week"` // 0 = 周一
	StartTime          string `json:"start_time"`
	EndTime            string `json:"end_time"`
	Subject            string `json:"subject,omitempty"`
	ActiveStudentCount *int   `json:"active_student_count,omitempty"`
}

// DisplaySubject 科目缺省时显示 "Untitled"
func (e TimetableEntry) DisplaySubject() string {
	if e.Subject == "" {
		return defaultSubject
	}
	return e.Subject
}

// DisplayTutor 导师缺省时显示 "Unknown Tutor"
func (e TimetableEntry) DisplayTutor() string {
	if e.TutorName == "" {
		return defaultTutor
	}
	return e.TutorName
}

// HasStudents 仅用于着色：有在读学生为 true
func (e TimetableEntry) HasStudents() bool {
	return e.ActiveStudentCount != nil && *e.ActiveStudentCount > 0
}

// dayIndex 合法的 day_of_week 下标；缺失或越界返回 false
func (e TimetableEntry) dayIndex() (int, bool) {
	if e.DayOfWeek == nil {
		return 0, false
	}
	d := *e.DayOfWeek
	if d < 0 || d >= DaysPerWeek {
		return 0, false
	}
	return d, true
}

// HourRange 网格显示的小时区间（闭区间）
type HourRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultHourRange 9:00 – 22:00
var DefaultHourRange = HourRange{Min: 9, Max: 22}

// Validate 区间须落在 0-23 且 Min <= Max
func (r HourRange) Validate() error {
	if r.Min < 0 || r.Max > 23 || r.Min > r.Max {
		return fmt.Errorf("小时区间无效: %d-%d", r.Min, r.Max)
	}
	return nil
}

// Contains 小时是否在区间内
func (r HourRange) Contains(h int) bool {
	return h >= r.Min && h <= r.Max
}

// Hours 区间内的全部小时，升序
func (r HourRange) Hours() []int {
	if r.Min > r.Max {
		return nil
	}
	hours := make([]int, 0, r.Max-r.Min+1)
	for h := r.Min; h <= r.Max; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Grid 星期 × 小时 的投影结果
type Grid struct {
	Range HourRange
	// ByDay 每天的合法条目，已按开始时间排序
	ByDay [DaysPerWeek][]TimetableEntry
	// Colors 导师显示名 → 配色下标
	Colors map[string]int
	// Dropped day_of_week 缺失或越界而未进入任何一天的条目数
	Dropped int
	// Unplaced 星期合法，但开始小时无法解析或不在区间内的条目数
	Unplaced int

	cells [DaysPerWeek]map[int][]TimetableEntry
}

// Cell 返回某天某小时的全部条目（按开始时间排序）
func (g *Grid) Cell(day, hour int) []TimetableEntry {
	if day < 0 || day >= DaysPerWeek {
		return nil
	}
	return g.cells[day][hour]
}

// Hours 网格的行
func (g *Grid) Hours() []int {
	return g.Range.Hours()
}

// Len 进入网格单元格的条目总数
func (g *Grid) Len() int {
	n := 0
	for d := range g.cells {
		for _, entries := range g.cells[d] {
			n += len(entries)
		}
	}
	return n
}

// Project 将扁平的时间表条目投影为 星期 × 小时 网格。
//
// 纯函数，不修改入参：
//   - day_of_week 缺失或不在 0-6 的条目被丢弃（计入 Dropped）
//   - 每天内按 start_time 字符串升序稳定排序
//   - 仅按开始小时落格，跨小时的条目不会复制到后续行
//   - start_time 为空或无法解析的条目不出现在任何单元格（计入 Unplaced）
func Project(entries []TimetableEntry, hours HourRange) *Grid {
	g := &Grid{
		Range:  hours,
		Colors: make(map[string]int),
	}
	for d := range g.cells {
		g.cells[d] = make(map[int][]TimetableEntry)
	}

	sorted := SortEntries(entries)
	for _, e := range sorted {
		// 配色覆盖全部条目，星期无效的导师同样占用调色板位置
		tutor := e.DisplayTutor()
		if _, seen := g.Colors[tutor]; !seen {
			g.Colors[tutor] = len(g.Colors) % PaletteSize
		}

		d, ok := e.dayIndex()
		if !ok {
			g.Dropped++
			continue
		}
		g.ByDay[d] = append(g.ByDay[d], e)

		h, ok := StartHour(e.StartTime)
		if !ok || !hours.Contains(h) {
			g.Unplaced++
			continue
		}
		g.cells[d][h] = append(g.cells[d][h], e)
	}
	return g
}

// SortEntries 返回按 (day_of_week, start_time) 稳定排序的副本。
// day_of_week 缺失的条目排在最后。
func SortEntries(entries []TimetableEntry) []TimetableEntry {
	out := make([]TimetableEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		di, iok := out[i].dayIndex()
		dj, jok := out[j].dayIndex()
		if iok != jok {
			return iok
		}
		if di != dj {
			return di < dj
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}
