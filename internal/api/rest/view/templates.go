package view

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Имена страниц для gin.Context.HTML
const (
	PageLanding   = "landing.tmpl"
	PageDashboard = "dashboard.tmpl"
	PagePackages  = "packages.tmpl"
	PageProfile   = "profile.tmpl"
	PageAuth      = "auth.tmpl"
)

// Templates разбирает все встроенные шаблоны
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.tmpl")
}

// MustTemplates как Templates, но паникует при ошибке разбора
func MustTemplates() *template.Template {
	return template.Must(Templates())
}

// Render рендерит страницу в w. Используется вне gin, например в тестах.
func Render(w io.Writer, name string, page Page) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, name, page)
}
