package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/startupstarter/admin/shared/middleware"
)

const authPrefix = "/v1/auth"

// hopHeaders are connection-scoped and never forwarded.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Upstreams maps the public API onto the backend services.
type Upstreams struct {
	Auth  string
	Admin string
}

// For picks auth-service for /v1/auth and its subtree, admin-service otherwise.
func (u Upstreams) For(path string) string {
	if path == authPrefix || strings.HasPrefix(path, authPrefix+"/") {
		return u.Auth
	}
	return u.Admin
}

type Proxy struct {
	upstreams Upstreams
	client    *http.Client
}

func NewProxy(upstreams Upstreams, timeout time.Duration) *Proxy {
	return &Proxy{upstreams: upstreams, client: &http.Client{Timeout: timeout}}
}

// Handle forwards the request unchanged apart from hop-by-hop headers and
// the X-Request-ID and X-Forwarded-For headers.
func (p *Proxy) Handle(c *gin.Context) {
	log := middleware.LoggerFrom(c)
	target := p.upstreams.For(c.Request.URL.Path) + c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		target += "?" + c.Request.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, c.Request.Body)
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create upstream request")
		return
	}
	req.ContentLength = c.Request.ContentLength
	copyHeaders(req.Header, c.Request.Header)
	req.Header.Set(middleware.RequestIDHeader, middleware.GetRequestID(c))
	req.Header.Set("X-Forwarded-For", forwardedFor(c.Request))
	req.Header.Set("X-Forwarded-Host", c.Request.Host)

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.Abort()
			return
		}
		log.Warn("Upstream request failed", "target", target, "error", err)
		middleware.RespondWithError(c, http.StatusBadGateway, "Upstream service unavailable")
		return
	}
	defer resp.Body.Close()

	copyHeaders(c.Writer.Header(), resp.Header)
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		log.Warn("Failed to stream upstream response", "target", target, "error", err)
	}
}

// copyHeaders replaces dst values key by key so upstream headers win over
// the ones set by gateway middleware.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		dst.Del(key)
		for _, v := range values {
			dst.Add(key, v)
		}
	}
	for _, h := range hopHeaders {
		dst.Del(h)
	}
}

func forwardedFor(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if prior := r.Header.Get("X-Forwarded-For"); prior != "" {
		return prior + ", " + ip
	}
	return ip
}
