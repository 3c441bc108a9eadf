package scheduling

import (
	"strings"
	"sync"
)

// ScheduleEntry 周排课表中的一条排课（星期作为存储键，不在条目内）
type ScheduleEntry struct {
	Tutor   string `json:"tutor"`
	Subject string `json:"subject"`
	Time    string `json:"time"` // HH:MM

	tutorKey string
}

// NewScheduleEntry 在录入边界清洗字段并计算导师比较键
func NewScheduleEntry(tutor, subject, time string) ScheduleEntry {
	tutor = strings.TrimSpace(tutor)
	return ScheduleEntry{
		Tutor:    tutor,
		Subject:  strings.TrimSpace(subject),
		Time:     strings.TrimSpace(time),
		tutorKey: TutorKey(tutor),
	}
}

// TutorKey 导师身份的规范化比较键（去空白 + 小写）
func TutorKey(tutor string) string {
	return strings.ToLower(strings.TrimSpace(tutor))
}

// key 兼容未经 NewScheduleEntry 构造的字面量
func (e ScheduleEntry) key() string {
	if e.tutorKey != "" {
		return e.tutorKey
	}
	return TutorKey(e.Tutor)
}

// Validate 校验三个字段均非空且时间为 HH:MM
func (e ScheduleEntry) Validate() error {
	switch {
	case strings.TrimSpace(e.Tutor) == "":
		return &ValidationError{Field: "tutor", Reason: "不能为空"}
	case strings.TrimSpace(e.Subject) == "":
		return &ValidationError{Field: "subject", Reason: "不能为空"}
	case strings.TrimSpace(e.Time) == "":
		return &ValidationError{Field: "time", Reason: "不能为空"}
	}
	if _, err := ParseClock(e.Time); err != nil {
		return &ValidationError{Field: "time", Reason: err.Error()}
	}
	return nil
}

// ScheduleStore 单个排课会话的 星期 → 条目列表 映射。
//
// AddEntry 的"检查冲突 → 提交"在同一把锁内完成，并发调用不会重复占用同一时段。
// 每次提交都替换为新切片，已交给调用方的旧切片不会被修改。
type ScheduleStore struct {
	mu   sync.RWMutex
	days map[Day][]ScheduleEntry
}

// NewScheduleStore 创建空的排课表
func NewScheduleStore() *ScheduleStore {
	return &ScheduleStore{days: make(map[Day][]ScheduleEntry)}
}

// AddEntry 向指定星期追加条目。
// 返回 (true, nil) 表示已接受；(false, *ClashError) 表示冲突被拒；
// (false, *ValidationError) 表示输入非法。拒绝时状态不变。
func (s *ScheduleStore) AddEntry(day Day, entry ScheduleEntry) (bool, error) {
	if !day.Valid() {
		return false, &ValidationError{Field: "day", Reason: "无法识别的星期 " + string(day)}
	}
	entry = NewScheduleEntry(entry.Tutor, entry.Subject, entry.Time)
	if err := entry.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.days[day]
	for _, e := range current {
		if e.key() == entry.tutorKey && e.Time == entry.Time {
			return false, &ClashError{Day: day, Requested: entry, Existing: e}
		}
	}

	next := make([]ScheduleEntry, len(current), len(current)+1)
	copy(next, current)
	s.days[day] = append(next, entry)
	return true, nil
}

// EntriesForDay 返回该星期当前的条目列表（只读快照）
func (s *ScheduleStore) EntriesForDay(day Day) []ScheduleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entries, ok := s.days[day]; ok {
		return entries
	}
	return []ScheduleEntry{}
}

// Snapshot 返回所有非空星期的条目
func (s *ScheduleStore) Snapshot() map[Day][]ScheduleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Day][]ScheduleEntry, len(s.days))
	for d, entries := range s.days {
		if len(entries) > 0 {
			out[d] = entries
		}
	}
	return out
}

// Len 全部条目数
func (s *ScheduleStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, entries := range s.days {
		n += len(entries)
	}
	return n
}
