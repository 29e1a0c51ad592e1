package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/yourusername/login-system/internal/account"
)

const (
	SessionCookieName    = "ls_session"
	sessionKeyAccount    = "account_id"
	sessionKeyIssuedAt   = "issued_at"
	sessionKeyLastActive = "last_activity"
	sessionKeyCSRF       = "csrf_token"
)

// SessionOptions はセッションの有効期限設定です。
type SessionOptions struct {
	MaxLifetime time.Duration
	IdleTimeout time.Duration
	Clock       clockwork.Clock
}

// Sessions はセッションに保存されたアカウントIDとアカウントを対応付けます。
type Sessions struct {
	store       account.Store
	maxLifetime time.Duration
	idleTimeout time.Duration
	clock       clockwork.Clock
	logger      *slog.Logger
}

// NewSessions は Sessions を作成します。
func NewSessions(store account.Store, opts SessionOptions, logger *slog.Logger) *Sessions {
	if opts.MaxLifetime <= 0 {
		opts.MaxLifetime = 12 * time.Hour
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 30 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{
		store:       store,
		maxLifetime: opts.MaxLifetime,
		idleTimeout: opts.IdleTimeout,
		clock:       opts.Clock,
		logger:      logger,
	}
}

// MaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func (s *Sessions) MaxAgeSeconds() int {
	return int(s.maxLifetime.Seconds())
}

// Resolve は ID に対応するアカウントを返します。
// ID が空・不正・既に存在しない場合は (nil, nil) です。
func (s *Sessions) Resolve(ctx context.Context, id string) (*account.Account, error) {
	if id == "" {
		return nil, nil
	}
	acc, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "find by id", Err: err}
	}
	return acc, nil
}

// Current は現在のリクエストのセッションからアカウントを解決します。
// 期限切れや解決できないセッションは破棄し、未ログインとして扱います。
func (s *Sessions) Current(c *gin.Context) (*account.Account, error) {
	session := sessions.Default(c)
	id, ok := session.Get(sessionKeyAccount).(string)
	if !ok || id == "" {
		return nil, nil
	}

	now := s.clock.Now()
	issuedAt := readUnix(session.Get(sessionKeyIssuedAt))
	lastActive := readUnix(session.Get(sessionKeyLastActive))
	if issuedAt.IsZero() || now.Sub(issuedAt) > s.maxLifetime {
		s.logger.Debug("session expired", "account_id", id)
		return nil, s.unbind(c)
	}
	if lastActive.IsZero() || now.Sub(lastActive) > s.idleTimeout {
		s.logger.Debug("session idle timeout", "account_id", id)
		return nil, s.unbind(c)
	}

	acc, err := s.Resolve(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, s.unbind(c)
	}

	session.Set(sessionKeyLastActive, now.Unix())
	if err := session.Save(); err != nil {
		return nil, err
	}
	return acc, nil
}

// Establish はセッションをアカウントに結び付けます。
// 以前のセッション内容は破棄し、CSRF トークンも作り直します。
func (s *Sessions) Establish(c *gin.Context, id string) error {
	token, err := generateToken()
	if err != nil {
		return err
	}

	session := sessions.Default(c)
	now := s.clock.Now()
	session.Clear()
	session.Set(sessionKeyAccount, id)
	session.Set(sessionKeyIssuedAt, now.Unix())
	session.Set(sessionKeyLastActive, now.Unix())
	session.Set(sessionKeyCSRF, token)
	return session.Save()
}

// Clear はセッションとアカウントの結び付きを解除します。CSRF トークンも破棄します。
func (s *Sessions) Clear(c *gin.Context) error {
	session := sessions.Default(c)
	session.Delete(sessionKeyCSRF)
	return s.unbind(c)
}

// unbind はアカウントの結び付きだけを外します。
// 期限切れ検出時に使い、表示済みフォームの CSRF トークンはそのまま有効にしておきます。
func (s *Sessions) unbind(c *gin.Context) error {
	session := sessions.Default(c)
	session.Delete(sessionKeyAccount)
	session.Delete(sessionKeyIssuedAt)
	session.Delete(sessionKeyLastActive)
	return session.Save()
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}
