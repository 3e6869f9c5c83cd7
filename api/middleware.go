package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/LhacenMed/admin-dashboard/internal/service/account"
	"github.com/LhacenMed/admin-dashboard/pkg/logger"
	"github.com/LhacenMed/admin-dashboard/pkg/metrics"
	"github.com/gin-gonic/gin"
)

const (
	actorKey     = "actor"
	deviceHeader = "X-Device-ID"
)

type TokenParser interface {
	Parse(raw string) (domain.Actor, error)
}

type StatusGate interface {
	Access(ctx context.Context, actor domain.Actor, required domain.AccountStatus, fallback string) account.AccessDecision
}

// RequireAuth resolves the bearer token into the request actor.
func RequireAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		actor, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

// RequireStatus lets a company through only when its approval status equals required.
func RequireStatus(gate StatusGate, required domain.AccountStatus, fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		decision := gate.Access(c.Request.Context(), actor, required, fallback)
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": decision.Reason, "redirect": decision.Redirect})
			return
		}
		c.Next()
	}
}

// RequestLogger logs every request once it has been served.
func RequestLogger(log logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.ObserveHTTP(c.Request.Method, route, strconv.Itoa(status), elapsed.Seconds())

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", elapsed,
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request failed", append(fields, "error", c.Errors.String())...)
		case len(c.Errors) > 0:
			log.Warn("request rejected", append(fields, "error", c.Errors.String())...)
		default:
			log.Debug("request served", fields...)
		}
	}
}

func actorFrom(c *gin.Context) (domain.Actor, bool) {
	value, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := value.(domain.Actor)
	return actor, ok
}

func deviceFrom(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(deviceHeader))
}
