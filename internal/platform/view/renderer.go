package view

import (
	"embed"
	"fmt"
	"io"
	"io/fs"

	"github.com/flosch/pongo2/v6"
	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// StaticFS serves the stylesheet and script used by the pages.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer renders pongo2 templates for echo's c.Render.
type Renderer struct {
	set *pongo2.TemplateSet
}

// NewRenderer loads the embedded page templates. Globals are visible to
// every template.
func NewRenderer(globals map[string]any) (*Renderer, error) {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		return nil, fmt.Errorf("template fs: %w", err)
	}

	set := pongo2.NewSet("onboarding", pongo2.NewFSLoader(sub))
	set.Globals = make(pongo2.Context, len(globals))
	for k, v := range globals {
		set.Globals[k] = v
	}
	registerFilters()

	return &Renderer{set: set}, nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tpl, err := r.set.FromCache(name)
	if err != nil {
		return fmt.Errorf("load template %s: %w", name, err)
	}

	ctx := pongo2.Context{}
	switch d := data.(type) {
	case nil:
	case pongo2.Context:
		ctx = d
	case map[string]any:
		ctx = pongo2.Context(d)
	default:
		return fmt.Errorf("render %s: unsupported data type %T", name, data)
	}

	if err := tpl.ExecuteWriter(ctx, w); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

func registerFilters() {
	if !pongo2.FilterExists("plaintext") {
		_ = pongo2.RegisterFilter("plaintext", filterPlainText)
	}
}

func filterPlainText(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsSafeValue(PlainText(in.String())), nil
}
