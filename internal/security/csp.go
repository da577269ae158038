package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const nonceKey = "csp-nonce"

// GenerateNonce generates a cryptographically secure random nonce
func GenerateNonce() (string, error) {
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(nonceBytes), nil
}

// CSPMiddleware generates a per-request nonce for the entry page and sets a
// policy that only runs scripts carrying it
func CSPMiddleware(reportURI string) gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce, err := GenerateNonce()
		if err != nil {
			c.AbortWithStatusJSON(500, gin.H{"error": "internal server error"})
			return
		}

		c.Set(nonceKey, nonce)

		policy := buildCSPPolicy(nonce)
		c.Header("Content-Security-Policy", policy)
		if reportURI != "" {
			c.Header("Content-Security-Policy-Report-Only", policy+"; report-uri "+reportURI)
		}

		c.Next()
	}
}

// ChartCSPMiddleware sets the policy for rendered chart pages. Those pages
// load echarts from assetsHost and initialise it with an inline script.
func ChartCSPMiddleware(assetsHost string) gin.HandlerFunc {
	origin := "'self'"
	if u, err := url.Parse(assetsHost); err == nil && u.Scheme != "" && u.Host != "" {
		origin = u.Scheme + "://" + u.Host
	}
	policy := strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-inline' " + origin,
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"frame-ancestors 'self'",
		"base-uri 'self'",
	}, "; ")

	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", policy)
		c.Next()
	}
}

// GetNonce retrieves the nonce from the Gin context
func GetNonce(c *gin.Context) string {
	if nonce, exists := c.Get(nonceKey); exists {
		if nonceStr, ok := nonce.(string); ok {
			return nonceStr
		}
	}
	return ""
}

func buildCSPPolicy(nonce string) string {
	return fmt.Sprintf(
		"default-src 'self'; "+
			"script-src 'self' 'nonce-%s'; "+
			"style-src 'self' 'nonce-%s'; "+
			"img-src 'self' data:; "+
			"font-src 'self' data:; "+
			"connect-src 'self'; "+
			"frame-src 'self'; "+
			"frame-ancestors 'none'; "+
			"base-uri 'self'; "+
			"form-action 'self'",
		nonce, nonce,
	)
}
