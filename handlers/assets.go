package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/storage"
)

const presignTTL = 15 * time.Minute

// RegisterAssets serves /uploads. Object storage answers with a presigned
// redirect; otherwise files are served from dir.
func RegisterAssets(r *gin.Engine, store storage.Storage, dir string) {
	p, ok := store.(storage.Presigner)
	if !ok {
		r.Static("/uploads", dir)
		return
	}
	r.GET("/uploads/:owner/:name", func(c *gin.Context) {
		ref := storage.Ref(c.Param("owner"), c.Param("name"))
		if _, _, ok := storage.Split(ref); !ok {
			apiError(c, http.StatusNotFound, "not found", nil)
			return
		}
		u, err := p.PresignedURL(c.Request.Context(), ref, presignTTL)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, u)
	})
}

// RegisterFrontend serves the single-page app from dir for every route that
// matched nothing else. Unknown /api paths still get a JSON 404.
func RegisterFrontend(r *gin.Engine, dir string) {
	index := filepath.Join(dir, "index.html")
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.Method != http.MethodGet {
			apiError(c, http.StatusNotFound, "not found", nil)
			return
		}
		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
		if serveFile(c, name) {
			return
		}
		if !serveFile(c, index) {
			apiError(c, http.StatusNotFound, "not found", nil)
		}
	})
}

// serveFile writes the regular file at name and reports whether it existed.
// name must already be cleaned.
func serveFile(c *gin.Context, name string) bool {
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		return false
	}
	http.ServeContent(c.Writer, c.Request, fi.Name(), fi.ModTime(), f)
	return true
}
