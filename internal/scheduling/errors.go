package scheduling

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 排课条目字段缺失或格式错误
	ErrValidation = errors.New("排课条目校验失败")
	// ErrClash 同一天同一导师同一时间已有排课
	ErrClash = errors.New("排课时间冲突")
)

// ValidationError 指明出错字段的校验错误
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ClashError 冲突详情：被拒绝的条目与已占用该时段的条目
type ClashError struct {
	Day       Day
	Requested ScheduleEntry
	Existing  ScheduleEntry
}

func (e *ClashError) Error() string {
	return fmt.Sprintf("%s already has a class at %s", e.Requested.Tutor, e.Requested.Time)
}

// Is 使 errors.Is(err, ErrClash) 成立
func (e *ClashError) Is(target error) bool {
	return target == ErrClash
}
