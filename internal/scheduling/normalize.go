package scheduling

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizedList 统一后的列表结果。
// 数据源可能直接返回数组，也可能返回 {"results": [...]} 分页信封。
type NormalizedList[T any] struct {
	Items []T
	// Count 信封中的总数；裸数组时等于 len(Items)
	Count int
	// Next 下一页地址，裸数组或最后一页时为空
	Next string
	// Paginated 是否来自分页信封
	Paginated bool
}

type listEnvelope[T any] struct {
	Count   *int    `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// NormalizeList 解析数组或分页信封，信封缺少 results 时得到空列表
func NormalizeList[T any](raw []byte) (NormalizedList[T], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return NormalizedList[T]{Items: []T{}}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return NormalizedList[T]{}, fmt.Errorf("解析列表失败: %w", err)
		}
		return NormalizedList[T]{Items: items, Count: len(items)}, nil
	}

	var env listEnvelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return NormalizedList[T]{}, fmt.Errorf("解析分页信封失败: %w", err)
	}
	out := NormalizedList[T]{Items: env.Results, Paginated: true}
	if out.Items == nil {
		out.Items = []T{}
	}
	out.Count = len(out.Items)
	if env.Count != nil {
		out.Count = *env.Count
	}
	if env.Next != nil {
		out.Next = *env.Next
	}
	return out, nil
}

// CoerceDayOfWeek 把上游的 day_of_week 原始值转换为整数下标。
// 接受数字与数字字符串；null、非整数或不在 0-6 的值返回 nil。
func CoerceDayOfWeek(raw json.RawMessage) *int {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	d := int(f)
	if d < 0 || d >= DaysPerWeek {
		return nil
	}
	return &d
}
