// Package errors 提供统一错误辅助，不依赖 internal
package errors

import (
	"errors"
	"fmt"
)

// 常用哨兵错误（可按需扩展错误码）
var (
	ErrNotFound   = errors.New("not found")
	ErrInvalidArg = errors.New("invalid argument")
	// ErrInvalidInput 用户输入为空或无法解析，run 在 dispatch 前被拒绝
	ErrInvalidInput = errors.New("invalid lifestyle input")
	// ErrSessionNotFound 按 session id 查不到记录
	ErrSessionNotFound = errors.New("session not found")
	// ErrPersistence 持久化失败；仅影响当前 run 的完成步骤，之前已持久化的状态仍然有效
	ErrPersistence = errors.New("persistence failure")
)

// Wrap 包装错误并附加消息
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 带格式的 Wrap
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
