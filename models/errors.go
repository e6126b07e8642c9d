package models

import (
	"errors"
	"net/http"
)

// ErrorKind 是對外可見的錯誤分類，每一種對應一個 HTTP 狀態碼
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindConflict   ErrorKind = "conflict"
	KindNotFound   ErrorKind = "not_found"
	KindAuth       ErrorKind = "auth"
	KindUpstream   ErrorKind = "upstream"
)

// Error 帶有分類與一段可以直接回給使用者的訊息。
// Err 保留原始錯誤，只用於日誌。
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewConflictError(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewAuthError(message string, err error) *Error {
	return &Error{Kind: KindAuth, Message: message, Err: err}
}

func NewUpstreamError(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// KindOf 取得錯誤鏈上第一個 *Error 的分類，沒有分類的錯誤一律視為 upstream
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// StatusCode 回傳錯誤分類對應的 HTTP 狀態碼
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage 取得可以回給使用者的訊息。
// upstream 錯誤不會洩漏內部細節，改用 fallback。
func PublicMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUpstream {
		return e.Message
	}
	return fallback
}

// 存儲層回傳的 sentinel errors
var (
	ErrImageNotFound  = errors.New("image not found")
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidCursor  = errors.New("invalid pagination cursor")
	ErrBatchTooLarge  = errors.New("batch exceeds the per-request write limit")
)
