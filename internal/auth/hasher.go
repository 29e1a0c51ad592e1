// Package auth は認証フロー（登録・ログイン・セッション・アクセス制御）を提供します。
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes は bcrypt が照合に使う入力の上限です。これを超える部分は無視されるため受け付けません。
const MaxPasswordBytes = 72

// Hasher はパスワードの一方向ハッシュ化と照合を行います。
type Hasher interface {
	// Hash はソルト付きハッシュを生成します。同じ入力でも毎回異なる値になります。
	Hash(plaintext string) (string, error)
	// Verify は plaintext が hash と一致するかを返します。不正な hash は不一致扱いです。
	Verify(plaintext, hash string) bool
}

// BcryptHasher は bcrypt による Hasher 実装です。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は BcryptHasher を作成します。範囲外の cost は既定値に丸めます。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash はパスワードをハッシュ化します。
// bcrypt は72バイトを超える入力を拒否するため、その場合もエラーになります。
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify はパスワードを照合します。
// 上限を超える plaintext は先頭72バイトが一致しても不一致とします。
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	if len(plaintext) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
