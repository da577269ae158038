package security

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	apperrors "github.com/ZanzyTHEbar/clearance-scorer/internal/errors"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxTextLength     int           `mapstructure:"max_text_length" json:"max_text_length"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes" json:"max_body_bytes"`
	MaxRequestsPerMin int           `mapstructure:"max_requests_per_min" json:"max_requests_per_min"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins" json:"allowed_origins"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
	LimiterIdleTTL    time.Duration `mapstructure:"limiter_idle_ttl" json:"limiter_idle_ttl"`
	EnableHSTS        bool          `mapstructure:"enable_hsts" json:"enable_hsts"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxTextLength:     200,
		MaxBodyBytes:      64 << 10,
		MaxRequestsPerMin: 120,
		AllowedOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
		RequestTimeout:    15 * time.Second,
		LimiterIdleTTL:    time.Hour,
	}
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SecurityMiddleware bundles request hardening and per-IP rate limiting
type SecurityMiddleware struct {
	config SecurityConfig

	mu         sync.Mutex
	ipLimiters map[string]*ipLimiter

	// OnRateLimited is called for every rejected request when set
	OnRateLimited func(ip string)
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	return &SecurityMiddleware{
		config:     config,
		ipLimiters: make(map[string]*ipLimiter),
	}
}

// Config returns the active configuration
func (sm *SecurityMiddleware) Config() SecurityConfig {
	return sm.config
}

var (
	scriptPattern     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ValidateText checks one free-text field from an entry
func (sm *SecurityMiddleware) ValidateText(field, input string) error {
	if n := utf8.RuneCountInString(input); n > sm.config.MaxTextLength {
		return fmt.Errorf("%s exceeds maximum length of %d characters", field, sm.config.MaxTextLength)
	}
	if strings.ContainsRune(input, 0) {
		return fmt.Errorf("%s contains invalid characters", field)
	}
	if !utf8.ValidString(input) {
		return fmt.Errorf("%s contains invalid UTF-8 encoding", field)
	}
	return nil
}

// SanitizeInput strips markup and collapses whitespace
func (sm *SecurityMiddleware) SanitizeInput(input string) string {
	input = scriptPattern.ReplaceAllString(input, "")
	input = htmlTagPattern.ReplaceAllString(input, "")
	input = whitespacePattern.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// SanitizeEntry cleans the free-text fields of an entry in place and
// rejects fields that cannot be stored. Catalog fields are checked later by
// the session itself.
func (sm *SecurityMiddleware) SanitizeEntry(e *session.Entry) error {
	fields := map[string]*string{
		"employee_id":        &e.EmployeeID,
		"operation_remark":   &e.Remark,
		"other_error_remark": &e.OtherErrorRemark,
	}

	invalid := make(map[string]string)
	for name, p := range fields {
		if err := sm.ValidateText(name, *p); err != nil {
			invalid[name] = err.Error()
			continue
		}
		*p = sm.SanitizeInput(*p)
	}

	if len(invalid) > 0 {
		return apperrors.NewValidationErrorWithMap("input validation failed", invalid)
	}
	return nil
}

func (sm *SecurityMiddleware) limiterFor(ip string, now time.Time) *rate.Limiter {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	l, ok := sm.ipLimiters[ip]
	if !ok {
		perMin := sm.config.MaxRequestsPerMin
		burst := perMin / 2
		if burst < 5 {
			burst = 5
		}
		l = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(float64(perMin)/60.0), burst)}
		sm.ipLimiters[ip] = l
	}
	l.lastSeen = now
	return l.limiter
}

// RateLimitByIP implements per-IP rate limiting
func (sm *SecurityMiddleware) RateLimitByIP(c *gin.Context) {
	if sm.config.MaxRequestsPerMin <= 0 {
		c.Next()
		return
	}

	ip := c.ClientIP()
	if !sm.limiterFor(ip, time.Now()).Allow() {
		if sm.OnRateLimited != nil {
			sm.OnRateLimited(ip)
		}
		c.Header("Retry-After", "60")
		apperrors.Abort(c, apperrors.NewRateLimitError("60s"))
		return
	}

	c.Next()
}

// SecurityHeaders adds the baseline security headers
func (sm *SecurityMiddleware) SecurityHeaders(c *gin.Context) {
	c.Header("X-Frame-Options", "SAMEORIGIN")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

	if sm.config.EnableHSTS || c.Request.TLS != nil {
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}

	c.Next()
}

// ValidateContentType rejects bodies that are not JSON
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
		c.Next()
		return
	}

	contentType := strings.ToLower(c.GetHeader("Content-Type"))
	if c.Request.ContentLength != 0 && contentType != "" && !strings.Contains(contentType, "application/json") {
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
			"error": "unsupported content type",
		})
		return
	}

	c.Next()
}

// LimitBody caps the request body size
func (sm *SecurityMiddleware) LimitBody(c *gin.Context) {
	if sm.config.MaxBodyBytes > 0 && c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, sm.config.MaxBodyBytes)
	}
	c.Next()
}

// RequestTimeout enforces request timeout
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	if sm.config.RequestTimeout <= 0 {
		c.Next()
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// CORS builds the CORS middleware for the configured origins. It returns nil
// when no origin is allowed.
func (sm *SecurityMiddleware) CORS() gin.HandlerFunc {
	if len(sm.config.AllowedOrigins) == 0 {
		return nil
	}

	return cors.New(cors.Config{
		AllowOrigins:     sm.config.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-Cache", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

// Cleanup drops limiters for IPs not seen within the idle TTL until ctx is done
func (sm *SecurityMiddleware) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				sm.cleanupOldLimiters(now)
			}
		}
	}()
}

func (sm *SecurityMiddleware) cleanupOldLimiters(now time.Time) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for ip, l := range sm.ipLimiters {
		if now.Sub(l.lastSeen) > sm.config.LimiterIdleTTL {
			delete(sm.ipLimiters, ip)
			removed++
		}
	}
	return removed
}

// TrackedIPs returns how many client IPs currently hold a limiter
func (sm *SecurityMiddleware) TrackedIPs() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.ipLimiters)
}
