package web

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/login-system/internal/auth"
	"github.com/yourusername/login-system/internal/logging"
)

// RouterOptions はルーター全体の設定です。
type RouterOptions struct {
	SessionSecret  []byte
	SessionMaxAge  int  // 秒
	SecureCookies  bool // 本番では true
	AllowedOrigins []string
	Logger         *slog.Logger
	// MetricsHandler が nil でなければ /metrics に登録します。
	MetricsHandler http.Handler
}

// NewRouter はミドルウェアとルーティングを設定した gin.Engine を返します。
func NewRouter(h *Handler, opts RouterOptions) (*gin.Engine, error) {
	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	router := gin.New()
	router.Use(logging.Middleware(opts.Logger), gin.Recovery())
	router.SetHTMLTemplate(tmpl)

	// セッションストアの設定（クッキー署名鍵は必須）
	store := cookie.NewStore(opts.SessionSecret)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   opts.SessionMaxAge,
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(auth.SessionCookieName, store))

	if len(opts.AllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = opts.AllowedOrigins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-CSRF-Token"}
		router.Use(cors.New(corsConfig))
	}

	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	h.Routes(router)
	return router, nil
}
