package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed []string
		want    bool
	}{
		{
			name:    "exact match",
			origin:  "http://localhost:3000",
			allowed: []string{"http://localhost:3000"},
			want:    true,
		},
		{
			name:    "wildcard allows everything",
			origin:  "https://anything.example",
			allowed: []string{"*"},
			want:    true,
		},
		{
			name:    "suffix wildcard match",
			origin:  "https://app.millscan.example",
			allowed: []string{"https://app.millscan.*"},
			want:    true,
		},
		{
			name:    "no match",
			origin:  "https://evil.example",
			allowed: []string{"http://localhost:3000"},
			want:    false,
		},
		{
			name:    "empty origin",
			origin:  "",
			allowed: []string{"http://localhost:3000"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAllowedOrigin(tt.origin, tt.allowed); got != tt.want {
				t.Errorf("isAllowedOrigin(%q, %v) = %v, want %v", tt.origin, tt.allowed, got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	newRouter := func(allowed []string) *gin.Engine {
		router := gin.New()
		router.Use(CORSMiddleware(allowed))
		router.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})
		return router
	}

	t.Run("sets headers for allowed origins", func(t *testing.T) {
		router := newRouter([]string{"http://localhost:3000"})

		req, _ := http.NewRequest("GET", "/ping", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
	})

	t.Run("omits headers for other origins", func(t *testing.T) {
		router := newRouter([]string{"http://localhost:3000"})

		req, _ := http.NewRequest("GET", "/ping", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("short-circuits preflight requests", func(t *testing.T) {
		router := newRouter([]string{"*"})

		req, _ := http.NewRequest("OPTIONS", "/ping", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNoContent)
		}
	})
}
