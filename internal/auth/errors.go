package auth

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCredentials はアカウントが存在しない場合とパスワード不一致の場合で共通のエラーです。
// どちらだったかは呼び出し側に伝えません。
var ErrInvalidCredentials = errors.New("invalid credentials")

// MsgInvalidCredentials はログイン失敗時に表示する唯一のメッセージです。
const MsgInvalidCredentials = "Login unsuccessful. Please check email and password."

// FieldError はフォーム項目ごとのエラーメッセージです。
type FieldError struct {
	Field   string
	Message string
}

// ValidationError は入力形式のエラーをまとめたものです。
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add はエラーを追加します。
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Empty はエラーが1件もないかを返します。
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// For は指定項目のメッセージを返します。
func (e *ValidationError) For(field string) []string {
	if e == nil {
		return nil
	}
	var out []string
	for _, f := range e.Fields {
		if f.Field == field {
			out = append(out, f.Message)
		}
	}
	return out
}

// ByField はテンプレートで扱いやすいよう項目名ごとにまとめたものを返します。
func (e *ValidationError) ByField() map[string][]string {
	out := make(map[string][]string)
	if e == nil {
		return out
	}
	for _, f := range e.Fields {
		out[f.Field] = append(out[f.Field], f.Message)
	}
	return out
}

// ConflictError はユーザー名・メールが既に登録済みであることを表します。
type ConflictError struct {
	ValidationError
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.ValidationError.Error()
}

// StorageError はアカウントストアへのアクセス失敗です。リクエスト単位で失敗扱いにします。
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("account store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError は err がストア障害かどうかを返します。
func IsStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}
