package view

import (
	"embed"
	"errors"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates renders pages through base.html. It implements echo.Renderer.
type Templates struct {
	templates map[string]*template.Template
}

func NewTemplates() (*Templates, error) {
	t := &Templates{templates: map[string]*template.Template{}}
	for _, name := range []string{"home.html", "article.html", "admin.html", "error.html"} {
		tmpl, err := template.ParseFS(templateFS, "templates/"+name, "templates/base.html")
		if err != nil {
			return nil, err
		}
		t.templates[name] = tmpl
	}
	return t, nil
}

// Name is the template that renders p.
func (p Page) Name() string {
	return string(p.View) + ".html"
}

func (t *Templates) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.templates[name]
	if !ok {
		return errors.New("template not found: " + name)
	}
	return tmpl.ExecuteTemplate(w, "base.html", data)
}
