package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxUserID 用户ID上限（INT 最大值）
const MaxUserID = math.MaxInt32

// ParseUserID 解析并校验用户ID
func ParseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("user_id must be an integer: %q", raw)
	}
	if id <= 0 || id > MaxUserID {
		return 0, fmt.Errorf("user_id out of range: %d", id)
	}
	return id, nil
}

// ParseLimit 解析并校验推荐数量，空字符串返回默认值
func ParseLimit(raw string, def, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limit must be an integer: %q", raw)
	}
	if limit < 1 || limit > max {
		return 0, fmt.Errorf("limit must be between 1 and %d: %d", max, limit)
	}
	return limit, nil
}
