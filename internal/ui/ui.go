package ui

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed assets
var Assets embed.FS

// GetFS returns the UI filesystem rooted at the assets directory
func GetFS() fs.FS {
	sub, err := fs.Sub(Assets, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// AssetHandler serves the embedded client. The root redirects to the login
// page, which forwards to index.html once a session exists.
func AssetHandler() http.HandlerFunc {
	assetsFS := GetFS()

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		if r.URL.Path == "/" || r.URL.Path == "" {
			http.Redirect(w, r, "/login.html", http.StatusFound)
			return
		}

		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		content, err := fs.ReadFile(assetsFS, name)
		if err != nil {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		switch path.Ext(name) {
		case ".html":
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		case ".css":
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		case ".js":
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		}
		w.Write(content)
	}
}
