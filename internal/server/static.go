package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	custommiddleware "autoparts/internal/middleware"
)

// newSPAHandler serves the built frontend from dir. Unknown paths get
// index.html so client-side routes work on reload. It returns nil when dir
// has no index.html.
func newSPAHandler(dir string) http.Handler {
	if dir == "" {
		return nil
	}
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return nil
	}

	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			custommiddleware.MethodNotAllowedJSON(w, r)
			return
		}

		clean := path.Clean("/" + r.URL.Path)
		if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
}

// notFound answers unknown /api paths with the JSON envelope and hands
// everything else to the frontend
func (s *Server) notFound(spa http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if spa == nil || r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			custommiddleware.NotFoundJSON(w, r)
			return
		}
		spa.ServeHTTP(w, r)
	}
}
