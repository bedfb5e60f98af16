package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/entity"
	"github.com/schoolyard/schoolyard/infrastructure/http/response"
	"github.com/schoolyard/schoolyard/infrastructure/service/ratelimit"
)

type RateLimitMiddleware struct {
	limiter   ratelimit.RateLimitService
	publisher outbound.AuditPublisher
	logger    *logrus.Logger
	limit     int
	window    time.Duration
}

func NewRateLimitMiddleware(limiter ratelimit.RateLimitService, publisher outbound.AuditPublisher, logger *logrus.Logger, limit int, window time.Duration) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter:   limiter,
		publisher: publisher,
		logger:    logger,
		limit:     limit,
		window:    window,
	}
}

// RateLimit rejects callers over the per-IP budget. A rejection is itself a
// security-relevant action, so it is published to the audit queue.
func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		clientIP := ClientIP(r)
		key := fmt.Sprintf("ratelimit:ip:%s", clientIP)

		allowed, err := m.limiter.CheckLimit(ctx, key, m.limit, m.window)
		if err != nil {
			// The limiter is advisory; never fail a request because it
			// is unreachable.
			m.logger.WithError(err).WithField("ip", clientIP).Warn("rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			event := entity.NewAuditEvent("", r.Header.Get("X-Tenant-ID"), entity.ActionRateLimitExceeded, entity.AuditStatusFailure)
			event.IPAddress = clientIP
			event.UserAgent = r.UserAgent()
			event.Details = "request rate limit exceeded"
			m.publisher.Publish(ctx, event)

			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(m.window.Seconds())))
			response.Error(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}

		if err := m.limiter.Increment(ctx, key, m.window); err != nil {
			m.logger.WithError(err).WithField("ip", clientIP).Warn("rate limit increment failed")
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP resolves the caller address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
