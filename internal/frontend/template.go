package frontend

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

var (
	scriptTagRegex = regexp.MustCompile(`<script([^>]*)>`)
	styleTagRegex  = regexp.MustCompile(`<link([^>]*rel=["']stylesheet["'][^>]*)>`)
)

// IndexData is what the entry page template is rendered with
type IndexData struct {
	Nonce             string
	Version           string
	DefaultCompletion float64
}

// LoadIndexTemplate loads index.html from distFS and prepares it for per-request nonces
func LoadIndexTemplate(distFS fs.FS) (*template.Template, error) {
	indexFile, err := distFS.Open("index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to open index.html: %w", err)
	}
	defer indexFile.Close()

	htmlContent, err := io.ReadAll(indexFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read index.html: %w", err)
	}

	tmpl, err := template.New("index").Parse(processHTMLForNonce(string(htmlContent)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return tmpl, nil
}

// processHTMLForNonce adds a nonce placeholder to script and stylesheet tags
func processHTMLForNonce(html string) string {
	html = scriptTagRegex.ReplaceAllString(html, `<script nonce="{{.Nonce}}"$1>`)
	html = styleTagRegex.ReplaceAllString(html, `<link nonce="{{.Nonce}}"$1>`)
	return html
}

// RenderIndex writes the entry page. Nothing is written if the template fails.
func RenderIndex(c *gin.Context, tmpl *template.Template, data IndexData) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	return nil
}
