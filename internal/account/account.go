// Package account はユーザーアカウントのモデルと永続化インターフェースを提供します。
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// 一意制約の対象フィールド
const (
	FieldUsername = "username"
	FieldEmail    = "email"
)

// ErrDuplicateKey は一意制約に違反した場合に返されます。
var ErrDuplicateKey = errors.New("duplicate key")

// DuplicateKeyError はどのフィールドが重複したかを保持します。
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key: %s already exists", e.Field)
}

// Is は errors.Is(err, ErrDuplicateKey) を成立させます。
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// Account は登録済みユーザー1名分のレコードです。
// PasswordHash には常にハッシュ値のみが入ります。
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewAccount は作成時の入力です。ID はストアが採番します。
type NewAccount struct {
	Username     string
	Email        string
	PasswordHash string
}

// Store はアカウントの永続化を担います。
// Find 系は該当なしの場合 (nil, nil) を返します。
// 更新・削除は提供しません。
type Store interface {
	Create(ctx context.Context, in NewAccount) (string, error)
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
}

// NormalizeUsername は前後の空白を取り除きます（大文字小文字は区別します）。
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// NormalizeEmail は前後の空白を取り除き小文字に揃えます。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
