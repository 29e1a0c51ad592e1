package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// CSRFFormField はフォームに埋め込む hidden 項目名です。
	CSRFFormField = "csrf_token"
	csrfHeader    = "X-CSRF-Token"
)

// CSRFToken はセッションの CSRF トークンを返します。未発行なら発行して保存します。
func CSRFToken(c *gin.Context) (string, error) {
	session := sessions.Default(c)
	if token, ok := session.Get(sessionKeyCSRF).(string); ok && token != "" {
		return token, nil
	}
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	session.Set(sessionKeyCSRF, token)
	if err := session.Save(); err != nil {
		return "", err
	}
	return token, nil
}

// VerifyCSRF はフォーム項目 csrf_token（または X-CSRF-Token ヘッダー）を検証するミドルウェアです。
func (g *Gate) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		session := sessions.Default(c)
		expected, ok := session.Get(sessionKeyCSRF).(string)
		if !ok || expected == "" {
			g.opts.OnForbidden(c)
			return
		}

		received := c.PostForm(CSRFFormField)
		if received == "" {
			received = c.GetHeader(csrfHeader)
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			g.opts.OnForbidden(c)
			return
		}

		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
