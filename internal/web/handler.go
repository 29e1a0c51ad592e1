package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/login-system/internal/account"
	"github.com/yourusername/login-system/internal/auth"
)

// 画面に表示する文言
const (
	MsgAccountCreated = "Your account has been created! You can now log in."
	MsgLoggedOut      = "You have been logged out."
	msgServerError    = "Something went wrong on our side. Please try again later."
	msgFormExpired    = "Your form has expired. Please reload the page and try again."
)

// Handler は登録・ログイン・ログアウト・ホーム画面のハンドラーです。
type Handler struct {
	registrar     *auth.Registrar
	authenticator *auth.Authenticator
	sessions      *auth.Sessions
	gate          *auth.Gate
	logger        *slog.Logger
}

// NewHandler は Handler を作成します。アクセス制御の失敗時応答はこの Handler の画面を使います。
func NewHandler(registrar *auth.Registrar, authenticator *auth.Authenticator, sessions *auth.Sessions, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		registrar:     registrar,
		authenticator: authenticator,
		sessions:      sessions,
		logger:        logger,
	}
	h.gate = auth.NewGate(sessions, auth.GateOptions{
		LoginPath:   "/login",
		LandingPath: "/home",
		OnError:     h.Failure,
		OnForbidden: h.Forbidden,
	})
	return h
}

// Routes はルーティングを登録します。
func (h *Handler) Routes(router gin.IRouter) {
	router.GET("/health", h.Health)

	pages := router.Group("")
	pages.Use(h.gate.LoadPrincipal(), h.gate.VerifyCSRF())
	{
		pages.GET("/", h.Index)

		anonymous := pages.Group("")
		anonymous.Use(h.gate.RedirectIfAuthenticated())
		{
			anonymous.GET("/signup", h.SignupPage)
			anonymous.POST("/signup", h.Signup)
			anonymous.GET("/login", h.LoginPage)
			anonymous.POST("/login", h.Login)
		}

		pages.GET("/logout", h.Logout)
		pages.GET("/home", h.gate.RequireLogin(), h.Home)
	}
}

// Index は GET / のハンドラーです。
func (h *Handler) Index(c *gin.Context) {
	c.Redirect(http.StatusFound, h.gate.LoginPath())
}

// SignupPage は GET /signup のハンドラーです。
func (h *Handler) SignupPage(c *gin.Context) {
	h.render(c, http.StatusOK, "signup.html", signupData(nil, nil))
}

// Signup は POST /signup のハンドラーです。
func (h *Handler) Signup(c *gin.Context) {
	var in auth.RegistrationInput
	// 形式の検証は Registrar が行うため、バインドの失敗は空入力として扱う
	_ = c.ShouldBind(&in)
	// 再表示する値を検証に使った値とそろえる
	in.Username = account.NormalizeUsername(in.Username)
	in.Email = account.NormalizeEmail(in.Email)

	_, err := h.registrar.Register(c.Request.Context(), in)
	var conflict *auth.ConflictError
	var verr *auth.ValidationError
	switch {
	case err == nil:
		if err := auth.AddFlash(c, auth.FlashSuccess, MsgAccountCreated); err != nil {
			h.fail(c, err)
			return
		}
		c.Redirect(http.StatusSeeOther, h.gate.LoginPath())
	case errors.As(err, &conflict):
		h.render(c, http.StatusUnprocessableEntity, "signup.html", signupData(&in, conflict.ByField()))
	case errors.As(err, &verr):
		h.render(c, http.StatusUnprocessableEntity, "signup.html", signupData(&in, verr.ByField()))
	default:
		h.fail(c, err)
	}
}

// LoginPage は GET /login のハンドラーです。
func (h *Handler) LoginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", loginData(nil, nil, "", c.Query("next")))
}

// Login は POST /login のハンドラーです。
func (h *Handler) Login(c *gin.Context) {
	var in auth.LoginInput
	_ = c.ShouldBind(&in)
	in.Email = account.NormalizeEmail(in.Email)
	next := c.Query("next")
	if next == "" {
		next = c.PostForm("next")
	}

	acc, err := h.authenticator.Authenticate(c.Request.Context(), in)
	var verr *auth.ValidationError
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.render(c, http.StatusUnprocessableEntity, "login.html", loginData(&in, nil, auth.MsgInvalidCredentials, next))
		return
	case errors.As(err, &verr):
		h.render(c, http.StatusUnprocessableEntity, "login.html", loginData(&in, verr.ByField(), "", next))
		return
	default:
		h.fail(c, err)
		return
	}

	if err := h.sessions.Establish(c, acc.ID); err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("login succeeded", "account_id", acc.ID)
	c.Redirect(http.StatusSeeOther, auth.SafeRedirect(next, h.gate.LandingPath()))
}

// Logout は GET /logout のハンドラーです。
func (h *Handler) Logout(c *gin.Context) {
	if acc := auth.CurrentPrincipal(c); acc != nil {
		h.logger.Info("logout", "account_id", acc.ID)
	}
	if err := h.sessions.Clear(c); err != nil {
		h.fail(c, err)
		return
	}
	if err := auth.AddFlash(c, auth.FlashInfo, MsgLoggedOut); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.gate.LoginPath())
}

// Home は GET /home のハンドラーです。RequireLogin の後ろに置きます。
func (h *Handler) Home(c *gin.Context) {
	h.render(c, http.StatusOK, "home.html", gin.H{"Title": "Home"})
}

// Health はヘルスチェックエンドポイントのハンドラーです。
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "login-system",
	})
}

// Forbidden は CSRF 検証失敗時の応答です。
func (h *Handler) Forbidden(c *gin.Context) {
	h.logger.Warn("csrf verification failed", "path", c.Request.URL.Path, "client_ip", c.ClientIP())
	c.HTML(http.StatusForbidden, "error.html", gin.H{
		"Title":   "Forbidden",
		"Message": msgFormExpired,
	})
	c.Abort()
}

// Failure はストア障害などリクエスト単位で回復できないエラーの応答です。
func (h *Handler) Failure(c *gin.Context, err error) {
	h.fail(c, err)
}

func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	token, err := auth.CSRFToken(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	flashes, err := auth.PopFlashes(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	data["CSRFToken"] = token
	data["Flashes"] = flashes
	data["Principal"] = auth.CurrentPrincipal(c)
	c.HTML(status, name, data)
}

func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	if auth.IsStorageError(err) {
		h.logger.Error("account store unavailable", "path", c.Request.URL.Path, "error", err)
	} else {
		h.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"Title":   "Server Error",
		"Message": msgServerError,
	})
	c.Abort()
}

func signupData(in *auth.RegistrationInput, errs map[string][]string) gin.H {
	form := map[string]string{}
	if in != nil {
		form[auth.FieldUsername] = in.Username
		form[auth.FieldEmail] = in.Email
	}
	if errs == nil {
		errs = map[string][]string{}
	}
	return gin.H{"Title": "Sign Up", "Form": form, "Errors": errs}
}

func loginData(in *auth.LoginInput, errs map[string][]string, failed, next string) gin.H {
	form := map[string]string{}
	if in != nil {
		form[auth.FieldEmail] = in.Email
	}
	if errs == nil {
		errs = map[string][]string{}
	}
	return gin.H{
		"Title":       "Login",
		"Form":        form,
		"Errors":      errs,
		"LoginFailed": failed,
		"Next":        auth.SafeRedirect(next, ""),
	}
}
