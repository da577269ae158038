// Package frontend embeds the operator entry page and serves it.
package frontend

import (
	"embed"
	"io/fs"
)

//go:embed dist
var distFS embed.FS

// GetDistFS returns the embedded page and its assets rooted at dist
func GetDistFS() (fs.FS, error) {
	return fs.Sub(distFS, "dist")
}
