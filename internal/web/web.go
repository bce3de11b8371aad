// Package web embeds the static landing page.
package web

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"time"
)

//go:embed static
var content embed.FS

const indexPage = "index.html"

// Static returns the files under static/ with that prefix stripped.
func Static() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Handler serves the static files; mount it under /static/. The index page
// is served in place rather than redirected to the directory, which is what
// http.FileServer would do.
func Handler() http.Handler {
	static := Static()
	files := http.StripPrefix("/static/", http.FileServer(http.FS(static)))
	loaded := time.Now()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/static/")
		if name != "" && name != indexPage {
			files.ServeHTTP(w, r)
			return
		}
		data, err := fs.ReadFile(static, indexPage)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, indexPage, loaded, bytes.NewReader(data))
	})
}
