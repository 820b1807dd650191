package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type CorsHandler struct {
	origins []string
}

// NewCorsHandler allows every origin when origins is empty or contains "*".
func NewCorsHandler(origins []string) *CorsHandler {
	return &CorsHandler{origins: origins}
}

func (h *CorsHandler) allowAll() bool {
	if len(h.origins) == 0 {
		return true
	}
	for _, o := range h.origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (h *CorsHandler) allowed(origin string) bool {
	if h.allowAll() {
		return true
	}
	for _, o := range h.origins {
		if strings.EqualFold(strings.TrimRight(o, "/"), origin) {
			return true
		}
	}
	return false
}

// CheckOrigin is used by the WebSocket upgrader. Requests without an Origin
// header are not from browsers and pass.
func (h *CorsHandler) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || h.allowed(origin)
}

func (h *CorsHandler) CorsMiddleware(c *gin.Context) {
	origin := c.GetHeader("Origin")
	switch {
	case h.allowAll():
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	case origin != "" && h.allowed(origin):
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Add("Vary", "Origin")
	}
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(200)
		return
	}
	c.Next()
}
