package util

import (
	"strconv"
)

// ParsePage 解析分页参数，非法值回落到默认值
func ParsePage(pageStr, limitStr string) (int, int) {
	page, limit := DefaultPage, DefaultLimit
	if v, err := strconv.Atoi(pageStr); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
		limit = v
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
