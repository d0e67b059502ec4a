package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput 用户ID或数量参数非法
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreUnavailable 数据库连接或查询失败，整个请求失败
	ErrStoreUnavailable = errors.New("store unavailable")
)

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
