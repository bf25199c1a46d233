package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidResponse 模型输出无法解析或不符合 schema
	ErrInvalidResponse = errors.New("invalid response")
	// ErrProviderFailure 模型服务调用失败
	ErrProviderFailure = errors.New("provider failure")
)

// Kind 错误类别
type Kind int

const (
	KindInvalidResponse Kind = iota + 1
	KindProviderFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidResponse:
		return "invalid_response"
	case KindProviderFailure:
		return "provider_failure"
	default:
		return "unknown"
	}
}

// Error 抽取失败，可用 errors.Is 与 ErrInvalidResponse / ErrProviderFailure 比较
type Error struct {
	Op      string // analyze, transcribe, live_suggestion
	Kind    Kind
	Message string // 面向日志的细节，ProviderFailure 时为上游错误信息
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is 匹配对应的哨兵错误
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindInvalidResponse:
		return target == ErrInvalidResponse
	case KindProviderFailure:
		return target == ErrProviderFailure
	}
	return false
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidResponse(op, format string, args ...any) *Error {
	return &Error{Op: op, Kind: KindInvalidResponse, Message: fmt.Sprintf(format, args...)}
}

func providerFailure(op string, err error) *Error {
	return &Error{Op: op, Kind: KindProviderFailure, Message: err.Error(), Err: err}
}
