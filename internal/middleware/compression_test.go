package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(c *Compression) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(c.Handler())
	r.GET("/big", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, strings.Repeat("清场 ", 1000))
	})
	r.GET("/small", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/binary", func(ctx *gin.Context) {
		ctx.Data(http.StatusOK, "image/png", bytes.Repeat([]byte{1}, 4096))
	})
	return r
}

func get(r http.Handler, path string, acceptGzip bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if acceptGzip {
		req.Header.Set("Accept-Encoding", "gzip, deflate")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCompressesLargeText(t *testing.T) {
	c := NewCompression(DefaultCompressionConfig())
	w := get(newRouter(c), "/big", true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("清场 ", 1000), string(body))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats["compressed_requests"])
	assert.Less(t, stats["ratio"].(float64), 1.0)
}

func TestSkipsIneligibleResponses(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		acceptGzip bool
	}{
		{name: "client without gzip", path: "/big", acceptGzip: false},
		{name: "below min size", path: "/small", acceptGzip: true},
		{name: "binary content", path: "/binary", acceptGzip: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompression(DefaultCompressionConfig())
			w := get(newRouter(c), tt.path, tt.acceptGzip)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Header().Get("Content-Encoding"))
			assert.Equal(t, int64(0), c.Stats()["compressed_requests"])
		})
	}
}

func TestDisabledCompression(t *testing.T) {
	c := NewCompression(CompressionConfig{Enabled: false, MinSize: 1})
	w := get(newRouter(c), "/big", true)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, int64(0), c.Stats()["eligible_requests"])
}

func TestInvalidLevelFallsBack(t *testing.T) {
	c := NewCompression(CompressionConfig{Enabled: true, MinSize: 1, Level: 42})
	assert.Equal(t, gzip.DefaultCompression, c.config.Level)

	w := get(newRouter(c), "/big", true)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestOuterMiddlewareWritesAfterCompression(t *testing.T) {
	gin.SetMode(gin.TestMode)
	big := strings.Repeat("x", 4096)

	c := NewCompression(DefaultCompressionConfig())
	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		ctx.Next()
		if !ctx.Writer.Written() {
			ctx.String(http.StatusInternalServerError, big)
		}
	})
	r.Use(c.Handler())
	r.GET("/late", func(ctx *gin.Context) {
		ctx.Abort()
	})

	w := get(r, "/late", true)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, big, w.Body.String())
	assert.Equal(t, int64(0), c.Stats()["compressed_requests"])
}
