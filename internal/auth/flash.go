package auth

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// フラッシュメッセージの種類
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
	FlashInfo    = "info"
)

var flashCategories = []string{FlashSuccess, FlashDanger, FlashInfo}

// Flash は次の画面表示で一度だけ表示するメッセージです。
type Flash struct {
	Category string
	Message  string
}

// AddFlash はメッセージをセッションに積みます。
func AddFlash(c *gin.Context, category, message string) error {
	session := sessions.Default(c)
	session.AddFlash(message, category)
	return session.Save()
}

// PopFlashes は積まれたメッセージを取り出して削除します。
func PopFlashes(c *gin.Context) ([]Flash, error) {
	session := sessions.Default(c)
	var out []Flash
	for _, category := range flashCategories {
		for _, v := range session.Flashes(category) {
			if msg, ok := v.(string); ok {
				out = append(out, Flash{Category: category, Message: msg})
			}
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, session.Save()
}
