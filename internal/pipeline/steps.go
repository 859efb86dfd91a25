package pipeline

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/donaldgifford/storefront-query/internal/metrics"
	"github.com/donaldgifford/storefront-query/internal/oauth1"
)

// TokenSource yields the current bearer token without blocking.
type TokenSource interface {
	Current() (string, bool)
}

// FallbackFunc yields the token sent while no bearer token is held.
type FallbackFunc func() string

// Bearer sets "Authorization: Bearer <token>" from tokens, read on every
// request. When no token is held, the token from fallback (if any) is used
// instead; otherwise the request goes out unauthenticated and a 401 from
// the backend becomes the refresh trigger. fallback is called per request
// so it can follow the selected store.
func Bearer(tokens TokenSource, fallback FallbackFunc) Step {
	return Step{
		Name: "auth",
		Transform: func(req *http.Request) (*http.Request, error) {
			tok, ok := tokens.Current()
			if (!ok || tok == "") && fallback != nil {
				tok = strings.TrimSpace(fallback())
			}
			if tok == "" {
				return req, nil
			}
			out := req.Clone(req.Context())
			out.Header.Set("Authorization", "Bearer "+tok)
			return out, nil
		},
	}
}

// OAuth1 signs the request URL with creds. The request URL must already be
// absolute and final: no later step may change it.
func OAuth1(signer *oauth1.Signer, creds oauth1.Credentials) Step {
	return Step{
		Name: "auth",
		Transform: func(req *http.Request) (*http.Request, error) {
			h, err := signer.Sign(req.Method, req.URL.String(), creds)
			if err != nil {
				return nil, err
			}
			out := req.Clone(req.Context())
			out.Header.Set("Authorization", h)
			return out, nil
		},
	}
}

// Logging logs each request at debug level, and failures at warn.
// The Authorization header is never logged.
func Logging(log *slog.Logger, backend string) Step {
	return Step{
		Name: "logging",
		Observe: func(req *http.Request, resp *http.Response, err error, elapsed time.Duration) {
			attrs := []any{
				"backend", backend,
				"method", req.Method,
				"path", req.URL.Path,
				"duration_ms", elapsed.Milliseconds(),
			}
			switch {
			case err != nil:
				log.Warn("backend request failed", append(attrs, "error", err)...)
			case resp.StatusCode >= http.StatusBadRequest:
				log.Warn("backend request rejected", append(attrs, "status", resp.StatusCode)...)
			default:
				log.Debug("backend request", append(attrs, "status", resp.StatusCode)...)
			}
		},
	}
}

// Metrics records backend request duration and count.
func Metrics(backend string) Step {
	return Step{
		Name: "metrics",
		Observe: func(_ *http.Request, resp *http.Response, err error, elapsed time.Duration) {
			status := "error"
			if err == nil {
				status = strconv.Itoa(resp.StatusCode)
			}
			metrics.BackendRequestDuration.WithLabelValues(backend, status).Observe(elapsed.Seconds())
			metrics.BackendRequestsTotal.WithLabelValues(backend, status).Inc()
		},
	}
}

// RewriteBaseURL resolves relative request URLs against base. The base
// path is kept as a prefix, so "/v1/search" against
// "https://vs.example.com/api" becomes "https://vs.example.com/api/v1/search".
func RewriteBaseURL(base string) (Step, error) {
	u, err := url.Parse(base)
	if err != nil {
		return Step{}, fmt.Errorf("parsing base url %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Step{}, fmt.Errorf("base url %q is not absolute", base)
	}
	prefix := strings.TrimRight(u.Path, "/")

	return Step{
		Name: "rewrite",
		Transform: func(req *http.Request) (*http.Request, error) {
			out := req.Clone(req.Context())
			out.URL.Scheme = u.Scheme
			out.URL.Host = u.Host
			out.URL.Path = prefix + "/" + strings.TrimLeft(req.URL.Path, "/")
			out.URL.RawPath = ""
			out.Host = u.Host
			return out, nil
		},
	}, nil
}
