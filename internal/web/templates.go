// Package web は認証フローの HTTP ハンドラーと画面テンプレートを提供します。
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

// LoadTemplates は埋め込みテンプレートを読み込みます。
func LoadTemplates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.html")
}
