package http

import (
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"strconv"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

var templateFuncs = template.FuncMap{
	"studentURL": studentURL,
}

// studentURL builds the address of a per-student action, e.g.
// /Student/Edit?id=s1&pk=100.
func studentURL(action, id string, pk int) string {
	q := url.Values{}
	q.Set(queryParamID, id)
	q.Set(queryParamPK, strconv.Itoa(pk))
	return "/Student/" + action + "?" + q.Encode()
}

// loadTemplates parses the embedded templates, or every *.html file under
// dir when dir is set.
func loadTemplates(dir string) (*template.Template, error) {
	tmpl := template.New("").Funcs(templateFuncs)
	if dir == "" {
		return tmpl.ParseFS(embeddedTemplates, "templates/*.html")
	}

	parsed, err := tmpl.ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("load templates from %s: %w", dir, err)
	}
	return parsed, nil
}
