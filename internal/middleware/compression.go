// Package middleware holds transport-level gin middleware shared by the API,
// the chart pages and the console.
package middleware

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	Enabled bool `mapstructure:"enabled"`
	MinSize int  `mapstructure:"min_size"` // bytes, checked against the first write
	Level   int  `mapstructure:"level"`    // gzip level, 1-9
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		Enabled: true,
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
	}
}

// compressibleTypes are the content types worth gzipping. Chart pages and the
// console are HTML, everything under /api is JSON.
var compressibleTypes = []string{
	"application/json",
	"text/html",
	"text/plain",
	"text/css",
	"application/javascript",
	"text/javascript",
}

// Compression gzips large text responses for clients that accept it
type Compression struct {
	config CompressionConfig
	pool   sync.Pool

	total      atomic.Int64
	compressed atomic.Int64
	bytesIn    atomic.Int64
	bytesOut   atomic.Int64
}

// NewCompression creates the middleware. An out-of-range level falls back to
// the gzip default.
func NewCompression(config CompressionConfig) *Compression {
	if config.Level < gzip.HuffmanOnly || config.Level > gzip.BestCompression {
		config.Level = gzip.DefaultCompression
	}
	c := &Compression{config: config}
	c.pool.New = func() interface{} {
		gz, _ := gzip.NewWriterLevel(nil, config.Level)
		return gz
	}
	return c
}

// Handler returns the gin middleware
func (c *Compression) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !c.config.Enabled || ctx.Request.Method == "HEAD" ||
			!strings.Contains(ctx.GetHeader("Accept-Encoding"), "gzip") {
			ctx.Next()
			return
		}

		c.total.Add(1)
		w := &gzipWriter{ResponseWriter: ctx.Writer, owner: c}
		ctx.Writer = w
		ctx.Header("Vary", "Accept-Encoding")

		// Outer middleware such as the error handler may still write after
		// this returns, so hand them the original writer.
		defer func() {
			ctx.Writer = w.ResponseWriter
			if w.gz == nil {
				return
			}
			_ = w.gz.Close()
			c.pool.Put(w.gz)
			c.compressed.Add(1)
			c.bytesIn.Add(w.raw)
			c.bytesOut.Add(int64(w.ResponseWriter.Size()))
		}()

		ctx.Next()
	}
}

// Stats reports how much traffic was compressed
func (c *Compression) Stats() map[string]interface{} {
	in, out := c.bytesIn.Load(), c.bytesOut.Load()
	ratio := 0.0
	if in > 0 {
		ratio = float64(out) / float64(in)
	}
	return map[string]interface{}{
		"enabled":             c.config.Enabled,
		"eligible_requests":   c.total.Load(),
		"compressed_requests": c.compressed.Load(),
		"bytes_in":            in,
		"bytes_out":           out,
		"ratio":               ratio,
	}
}

func (c *Compression) shouldCompress(header string, size int) bool {
	if size < c.config.MinSize {
		return false
	}
	for _, ct := range compressibleTypes {
		if strings.Contains(header, ct) {
			return true
		}
	}
	return false
}

// gzipWriter decides on the first write whether the body is compressed.
// gin sends headers lazily so they can still be changed at that point.
type gzipWriter struct {
	gin.ResponseWriter
	owner   *Compression
	gz      *gzip.Writer
	decided bool
	raw     int64
}

func (w *gzipWriter) Write(data []byte) (int, error) {
	if !w.decided {
		w.decided = true
		h := w.Header()
		if h.Get("Content-Encoding") == "" && w.owner.shouldCompress(h.Get("Content-Type"), len(data)) {
			h.Set("Content-Encoding", "gzip")
			h.Del("Content-Length")
			w.gz = w.owner.pool.Get().(*gzip.Writer)
			w.gz.Reset(w.ResponseWriter)
		}
	}

	if w.gz == nil {
		return w.ResponseWriter.Write(data)
	}
	n, err := w.gz.Write(data)
	w.raw += int64(n)
	return n, err
}

func (w *gzipWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *gzipWriter) Flush() {
	if w.gz != nil {
		_ = w.gz.Flush()
	}
	w.ResponseWriter.Flush()
}
