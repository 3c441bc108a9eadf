package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：时间表条目已被其他操作修改
var ErrOptimisticLock = errors.New("时间表条目已被其他操作修改，请刷新后重试")
