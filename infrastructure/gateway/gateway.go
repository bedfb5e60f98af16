package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/infrastructure/gateway/breaker"
	"github.com/schoolyard/schoolyard/infrastructure/http/response"
)

// Upstream is one downstream service behind the gateway. Prefix is the
// public path segment under /api; Name keys the circuit breaker.
type Upstream struct {
	Name   string
	Prefix string
	Target string
}

// Gateway is the front door: it authenticates bearer tokens, consults the
// circuit breaker registry before forwarding, and records transport
// outcomes back into the breaker.
type Gateway struct {
	breakers    *breaker.Registry
	tokens      outbound.TokenService
	logger      *logrus.Logger
	environment string
	timeout     time.Duration
}

func New(breakers *breaker.Registry, tokens outbound.TokenService, logger *logrus.Logger, environment string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{
		breakers:    breakers,
		tokens:      tokens,
		logger:      logger,
		environment: environment,
		timeout:     timeout,
	}
}

// Handler builds the gateway router for the given upstreams.
func (g *Gateway) Handler(upstreams []Upstream) (http.Handler, error) {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, "ok", map[string]interface{}{
			"gateway":   "online",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	for _, up := range upstreams {
		handler, err := g.serviceHandler(up)
		if err != nil {
			return nil, err
		}
		router.PathPrefix("/api/" + up.Prefix).Handler(handler)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Resource not found")
	})

	return router, nil
}

func (g *Gateway) serviceHandler(up Upstream) (http.Handler, error) {
	target, err := url.Parse(up.Target)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL for %s: %w", up.Name, err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = &http.Transport{
		// Downstream timeout must be shorter than any client timeout so a
		// hung upstream cannot pile up gateway connections.
		ResponseHeaderTimeout: g.timeout,
	}

	prefix := "/api/" + up.Prefix
	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		r.URL.Path = strings.TrimPrefix(r.URL.Path, prefix)
		if r.URL.Path == "" {
			r.URL.Path = "/"
		}
		r.Host = target.Host
	}

	proxy.ModifyResponse = func(*http.Response) error {
		g.breakers.ReportSuccess(up.Name)
		return nil
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		g.breakers.ReportFailure(up.Name)
		g.logger.WithError(err).WithFields(logrus.Fields{
			"service": up.Name,
			"path":    r.URL.Path,
		}).Warn("upstream transport failure")
		g.unavailable(w, up.Name, err)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.authorize(w, r, up) {
			return
		}

		if !g.breakers.Allow(up.Name) {
			response.ServiceUnavailable(w,
				fmt.Sprintf("%s service temporarily unavailable. Please try again later.", up.Name))
			return
		}

		proxy.ServeHTTP(w, r)
	}), nil
}

// authorize enforces the bearer token except on the unauthenticated auth
// entry points (login/register posts and the OAuth redirects).
func (g *Gateway) authorize(w http.ResponseWriter, r *http.Request, up Upstream) bool {
	if isPublicAuthPath(r) {
		return true
	}

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		response.Unauthorized(w, "Authentication required")
		return false
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	claims, err := g.tokens.ValidateAccessToken(token)
	if err != nil {
		response.Unauthorized(w, "Invalid or expired token")
		return false
	}

	// Forward the verified identity to the upstream.
	r.Header.Set("X-User-ID", claims.UserID)
	if claims.TenantID != "" {
		r.Header.Set("X-Tenant-ID", claims.TenantID)
	}
	r.Header.Set("X-User-Role", claims.Role)
	return true
}

func isPublicAuthPath(r *http.Request) bool {
	if !strings.HasPrefix(r.URL.Path, "/api/auth") {
		return false
	}
	if r.Method == http.MethodPost {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/auth/google") ||
		strings.HasPrefix(r.URL.Path, "/api/auth/outlook")
}

func (g *Gateway) unavailable(w http.ResponseWriter, service string, err error) {
	message := fmt.Sprintf("%s service unavailable", service)
	if g.environment == "development" && err != nil {
		response.Error(w, http.StatusServiceUnavailable, message+": "+err.Error())
		return
	}
	response.ServiceUnavailable(w, message)
}
