package http

import (
	"fmt"
	"net/url"

	"edubot/internal/domain"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	APIBaseURL    string
	AllowedOrigin string
}

func InitRouter(handler *Handler, cfg RouterConfig) (*gin.Engine, error) {
	target, err := url.Parse(cfg.APIBaseURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", cfg.APIBaseURL)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(handler.Log), CORSMiddleware(cfg.AllowedOrigin))

	r.GET("/healthz", handler.Healthz)

	// Gateway pass-through for the browser front end
	proxy := NewGatewayProxy(target, handler.Log)
	r.Any(apiPrefix+"/*path", func(c *gin.Context) {
		proxy.ServeHTTP(c.Writer, c.Request)
	})

	// Local pseudo-stream of query answers
	streaming := r.Group("/stream")
	streaming.Use(AuthMiddleware(domain.RoleStudent, domain.RoleAdmin, domain.RoleUser))
	{
		streaming.POST("/query", handler.StreamQuery)
	}

	return r, nil
}
