package handler

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// View names.
const (
	ViewJoin  = "member/join"
	ViewLogin = "member/login"
	ViewJS    = "common/js"
)

//go:embed views
var viewFS embed.FS

// Renderer is an echo.Renderer over the embedded views.  A view is named by
// its path under views/ without the .html suffix.
type Renderer struct {
	views map[string]*template.Template
}

// NewRenderer parses every embedded view once.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{views: map[string]*template.Template{}}
	for _, name := range []string{ViewJoin, ViewLogin, ViewJS} {
		t, err := template.ParseFS(viewFS, "views/"+name+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "parse view %s", name)
		}
		r.views[name] = t
	}
	return r, nil
}

// MustRenderer is NewRenderer for process start-up, where the embedded
// views can only be broken by a bad build.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.views[strings.TrimSuffix(name, ".html")]
	if !ok {
		return errors.Errorf("unknown view %q", name)
	}
	return t.Execute(w, data)
}

// joinView feeds member/join.  Passwords are never echoed back.
type joinView struct {
	Form   joinForm
	Errors map[string]string
}

type joinForm struct {
	Account  string
	Username string
	Email    string
	Phone    string
}

type loginView struct {
	Joined string
}

// jsView feeds common/js: an alert followed by a redirect, or by a step
// back in history when Redirect is empty.
type jsView struct {
	Message  string
	Redirect string
}
