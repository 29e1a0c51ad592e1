package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/login-system/internal/account"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testHasher() *BcryptHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}

// countingStore は呼び出し回数を数え、任意でエラーを返す account.Store です。
type countingStore struct {
	inner   account.Store
	calls   atomic.Int32
	creates atomic.Int32
	findErr error
	// createErr が設定されていれば Create はストアに書き込まずにそれを返す
	createErr error
}

func newCountingStore() *countingStore {
	return &countingStore{inner: account.NewMemoryStore()}
}

func (s *countingStore) Create(ctx context.Context, in account.NewAccount) (string, error) {
	s.calls.Add(1)
	s.creates.Add(1)
	if s.createErr != nil {
		return "", s.createErr
	}
	return s.inner.Create(ctx, in)
}

func (s *countingStore) FindByUsername(ctx context.Context, username string) (*account.Account, error) {
	s.calls.Add(1)
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.inner.FindByUsername(ctx, username)
}

func (s *countingStore) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	s.calls.Add(1)
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.inner.FindByEmail(ctx, email)
}

func (s *countingStore) FindByID(ctx context.Context, id string) (*account.Account, error) {
	s.calls.Add(1)
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.inner.FindByID(ctx, id)
}

var errStoreDown = errors.New("store unavailable")

// newSessionRouter は署名クッキーのセッションを有効にした gin.Engine を返します。
func newSessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte(strings.Repeat("k", 32)))
	store.Options(sessions.Options{Path: "/", HttpOnly: true})
	router.Use(sessions.Sessions(SessionCookieName, store))
	return router
}

// client はレスポンスのクッキーを次のリクエストに引き継ぎます。
type client struct {
	router  http.Handler
	cookies map[string]*http.Cookie
}

func newClient(router http.Handler) *client {
	return &client{router: router, cookies: make(map[string]*http.Cookie)}
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range cl.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	cl.router.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(cl.cookies, ck.Name)
			continue
		}
		cl.cookies[ck.Name] = ck
	}
	return rec
}

func (cl *client) get(path string) *httptest.ResponseRecorder {
	return cl.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (cl *client) postForm(path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return cl.do(req)
}
