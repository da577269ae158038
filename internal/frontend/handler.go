package frontend

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/ZanzyTHEbar/clearance-scorer/internal/errors"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/security"
	"github.com/gin-gonic/gin"
)

// Options configures the entry page handler
type Options struct {
	Version           string
	DefaultCompletion float64
}

// NewHandler serves static assets from distFS and renders the entry page for
// every other path. Run it behind security.CSPMiddleware so the page gets a nonce.
func NewHandler(distFS fs.FS, indexTemplate *template.Template, opts Options) gin.HandlerFunc {
	fileServer := http.FileServer(http.FS(distFS))

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if strings.HasPrefix(path, "/assets/") {
			c.Header("Cache-Control", "public, max-age=86400")
			fileServer.ServeHTTP(c.Writer, c.Request)
			return
		}

		// Unknown API paths and non-GET requests must not fall through to the page
		if strings.HasPrefix(path, "/api/") || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			apperrors.Abort(c, apperrors.NewNotFoundError("route", path))
			return
		}

		nonce := security.GetNonce(c)
		if nonce == "" {
			slog.Warn("CSP nonce not found in context, generating new one")
			var err error
			nonce, err = security.GenerateNonce()
			if err != nil {
				apperrors.Abort(c, apperrors.NewInternalError("failed to generate nonce", err))
				return
			}
		}

		data := IndexData{Nonce: nonce, Version: opts.Version, DefaultCompletion: opts.DefaultCompletion}
		if err := RenderIndex(c, indexTemplate, data); err != nil {
			slog.Error("Failed to render index.html", "error", err, "path", path)
			apperrors.Abort(c, apperrors.NewInternalError("failed to render page", err))
		}
	}
}
