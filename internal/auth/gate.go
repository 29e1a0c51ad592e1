package auth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/login-system/internal/account"
)

// ContextPrincipalKey は gin.Context 上でログイン中アカウントを共有するためのキーです。
const ContextPrincipalKey = "auth.principal"

// MsgLoginRequired はアクセス制御でログイン画面へ戻したときのメッセージです。
const MsgLoginRequired = "Please log in to access this page."

type principalKey struct{}

// WithPrincipal は ctx にログイン中アカウントを載せます。
func WithPrincipal(ctx context.Context, acc *account.Account) context.Context {
	return context.WithValue(ctx, principalKey{}, acc)
}

// PrincipalFrom は ctx からログイン中アカウントを取り出します。未ログインなら nil です。
func PrincipalFrom(ctx context.Context) *account.Account {
	acc, _ := ctx.Value(principalKey{}).(*account.Account)
	return acc
}

// CurrentPrincipal は LoadPrincipal が解決したアカウントを返します。
func CurrentPrincipal(c *gin.Context) *account.Account {
	v, ok := c.Get(ContextPrincipalKey)
	if !ok {
		return nil
	}
	acc, _ := v.(*account.Account)
	return acc
}

// GateOptions はアクセス制御の遷移先とエラー時の応答を指定します。
type GateOptions struct {
	LoginPath   string
	LandingPath string
	// OnError はストア障害などでセッションを解決できなかったときに呼ばれます。
	OnError func(c *gin.Context, err error)
	// OnForbidden は CSRF 検証に失敗したときに呼ばれます。
	OnForbidden func(c *gin.Context)
}

// Gate はリクエスト単位のログイン状態の解決とアクセス制御を行います。
type Gate struct {
	sessions *Sessions
	opts     GateOptions
}

// NewGate は Gate を作成します。
func NewGate(sessions *Sessions, opts GateOptions) *Gate {
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if opts.LandingPath == "" {
		opts.LandingPath = "/home"
	}
	if opts.OnError == nil {
		opts.OnError = func(c *gin.Context, err error) {
			_ = c.AbortWithError(http.StatusInternalServerError, err)
		}
	}
	if opts.OnForbidden == nil {
		opts.OnForbidden = func(c *gin.Context) {
			c.AbortWithStatus(http.StatusForbidden)
		}
	}
	return &Gate{sessions: sessions, opts: opts}
}

// LoadPrincipal はセッションからアカウントを解決し、リクエストのコンテキストに載せます。
func (g *Gate) LoadPrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, err := g.sessions.Current(c)
		if err != nil {
			g.opts.OnError(c, err)
			return
		}
		c.Set(ContextPrincipalKey, acc)
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), acc))
		c.Next()
	}
}

// RequireLogin は未ログインのリクエストをログイン画面へリダイレクトします。
// GET/HEAD の場合は元のパスを next パラメーターとして渡します。
func (g *Gate) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentPrincipal(c) != nil {
			c.Next()
			return
		}

		if err := AddFlash(c, FlashInfo, MsgLoginRequired); err != nil {
			g.opts.OnError(c, err)
			return
		}
		target := g.opts.LoginPath
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
		}
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

// RedirectIfAuthenticated はログイン済みのリクエストをランディングページへ送ります。
func (g *Gate) RedirectIfAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentPrincipal(c) == nil {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, g.opts.LandingPath)
		c.Abort()
	}
}

// LandingPath はログイン後の既定の遷移先です。
func (g *Gate) LandingPath() string {
	return g.opts.LandingPath
}

// LoginPath はログイン画面のパスです。
func (g *Gate) LoginPath() string {
	return g.opts.LoginPath
}
