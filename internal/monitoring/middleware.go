package monitoring

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware ensures every request has a correlation id, reusing
// the caller's when it sends one
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
			c.Request.Header.Set(RequestIDHeader, id)
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// MonitoringMiddleware creates Gin middleware for request monitoring
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncrementRequest()

		ip := c.ClientIP()
		userAgent := c.GetHeader("User-Agent")
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		metrics.RecordResponseTime(duration)
		metrics.RecordRequestByStatus(statusCode)

		if statusCode >= 400 {
			metrics.IncrementError()
		}

		logger.RequestLogger(method, path, ip, userAgent, statusCode, duration)

		if statusCode >= 500 {
			for _, err := range c.Errors {
				logger.APIErrorLogger(err.Err, method, path, ip, statusCode)
			}
			logger.SystemLogger("server_error", fmt.Sprintf("Status %d for %s %s", statusCode, method, path))
		}

		if duration > 2*time.Second {
			logger.PerformanceLogger("slow_request", duration.Seconds(), "seconds")
		}
	}
}

// SecurityMonitoringMiddleware logs requests that look like probing
func SecurityMonitoringMiddleware(logger *Logger, maxBodyBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		details := make(map[string]interface{})

		if containsInjectionPatterns(c.Request.URL.RawQuery) {
			details["type"] = "potential_injection"
			details["query"] = c.Request.URL.RawQuery
		}

		if c.Request.Method == http.MethodPost && maxBodyBytes > 0 && c.Request.ContentLength > maxBodyBytes {
			details["type"] = "large_request_body"
			details["size_bytes"] = c.Request.ContentLength
		}

		if ua := c.GetHeader("User-Agent"); containsSuspiciousUserAgent(ua) {
			details["type"] = "suspicious_user_agent"
			details["user_agent"] = ua
		}

		if len(details) > 0 {
			logger.SecurityLogger("suspicious_activity_detected", c.ClientIP(), c.GetHeader("User-Agent"), details)
		}

		c.Next()
	}
}

var injectionPatterns = []string{
	"union select",
	"union all",
	"drop table",
	"delete from",
	"';--",
	"<script",
	"javascript:",
	"../",
}

func containsInjectionPatterns(query string) bool {
	q := strings.ToLower(query)
	for _, pattern := range injectionPatterns {
		if strings.Contains(q, pattern) {
			return true
		}
	}
	return false
}

var suspiciousAgents = []string{
	"sqlmap",
	"nmap",
	"masscan",
	"zmap",
	"dirbuster",
	"gobuster",
	"nikto",
	"acunetix",
	"nessus",
}

func containsSuspiciousUserAgent(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, agent := range suspiciousAgents {
		if strings.Contains(ua, agent) {
			return true
		}
	}
	return false
}

// HealthHandler reports liveness with a metrics summary. Each probe adds one
// named value to the response.
func HealthHandler(metrics *Metrics, version string, probes map[string]func() interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   version,
			"metrics":   metrics.GetStats(),
		}
		for name, probe := range probes {
			body[name] = probe()
		}
		c.JSON(http.StatusOK, body)
	}
}
