package http

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const apiPrefix = "/api"

// NewGatewayProxy forwards /api/* to target with the prefix stripped. The
// gateway only accepts calls that look like they come from its own origin.
func NewGatewayProxy(target *url.URL, log *zap.Logger) *httputil.ReverseProxy {
	origin := target.Scheme + "://" + target.Host
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = stripPrefix(pr.Out.URL.Path)
			pr.Out.URL.RawPath = stripPrefix(pr.Out.URL.RawPath)
			pr.SetURL(target)
			pr.Out.Header.Set("Origin", origin)
			pr.Out.Header.Set("Referer", origin+"/")
			log.Info("proxying", zap.String("method", pr.In.Method), zap.String("path", pr.Out.URL.Path))
		},
		ModifyResponse: func(resp *http.Response) error {
			// The dev server answers CORS itself.
			for k := range resp.Header {
				if strings.HasPrefix(k, "Access-Control-") {
					resp.Header.Del(k)
				}
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("proxy error", zap.String("path", r.URL.Path), zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"Proxy error"}`))
		},
	}
}

func stripPrefix(p string) string {
	if p == "" {
		return p
	}
	out := strings.TrimPrefix(p, apiPrefix)
	if out == "" {
		return "/"
	}
	return out
}
