package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yourusername/login-system/internal/account"
)

// Authenticator はログインフローの資格情報検証を行います。
// セッションの確立は呼び出し側（Sessions.Establish）が担います。
type Authenticator struct {
	store   account.Store
	hasher  Hasher
	metrics *Metrics
	logger  *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthenticator は Authenticator を作成します。
func NewAuthenticator(store account.Store, hasher Hasher, metrics *Metrics, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{store: store, hasher: hasher, metrics: metrics, logger: logger}
}

// Authenticate はメールアドレスとパスワードを検証し、一致したアカウントを返します。
// 該当アカウントなしとパスワード不一致はどちらも ErrInvalidCredentials です。
func (a *Authenticator) Authenticate(ctx context.Context, in LoginInput) (*account.Account, error) {
	in.Email = account.NormalizeEmail(in.Email)
	if verr := validateStruct(in); !verr.Empty() {
		a.metrics.login(resultInvalid)
		return nil, verr
	}

	acc, err := a.store.FindByEmail(ctx, in.Email)
	if err != nil {
		a.metrics.login(resultError)
		a.logger.Error("account store failure during login", "error", err)
		return nil, &StorageError{Op: "find by email", Err: err}
	}

	if acc == nil {
		// 応答時間からアカウントの有無が推測されないよう、ダミーのハッシュで照合しておく
		a.hasher.Verify(in.Password, a.dummy())
		a.metrics.login(resultRejected)
		return nil, ErrInvalidCredentials
	}
	if !a.hasher.Verify(in.Password, acc.PasswordHash) {
		a.metrics.login(resultRejected)
		a.logger.Info("login rejected", "account_id", acc.ID)
		return nil, ErrInvalidCredentials
	}

	a.metrics.login(resultSuccess)
	return acc, nil
}

func (a *Authenticator) dummy() string {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.Hash("login-system-dummy-password")
		if err == nil {
			a.dummyHash = hash
		}
	})
	return a.dummyHash
}
