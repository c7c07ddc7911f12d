package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-message-board/internal/domain"
	"github.com/tbourn/go-message-board/internal/http/middleware"
	"github.com/tbourn/go-message-board/internal/services"
)

func Test_fail_5xx_LogsAndBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// capture logs from LoggerFrom(c)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	// simulate RequestID + request-scoped logger
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-500")
		c.Set("logger", &logger)
		c.Next()
	})

	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "store unavailable")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-500" || resp.Code != ErrCodeStoreUnavailable || resp.Message != "store unavailable" {
		t.Fatalf("unexpected body: %+v", resp)
	}

	// ensure something was logged at error level
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func Test_Fail_Banned_LogsIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(middleware.Identity())
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-4xx")
		c.Set("logger", &logger)
		c.Next()
	})
	r.POST("/messages", func(c *gin.Context) {
		Fail(c, http.StatusForbidden, ErrCodeBanned, "user is banned")
	})
	r.GET("/missing", func(c *gin.Context) {
		Fail(c, http.StatusNotFound, ErrCodeNotFound, "route not found")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/messages", nil)
	req.Header.Set(middleware.HeaderUserID, "mallory")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status=%d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json 403: %v", err)
	}
	if er.RequestID != "rid-4xx" || er.UserID != "mallory" || er.Code != ErrCodeBanned || er.Message != "user is banned" {
		t.Fatalf("unexpected 403 body: %+v", er)
	}
	if !strings.Contains(buf.String(), `"user":"mallory"`) || !strings.Contains(buf.String(), "banned identity refused") {
		t.Fatalf("expected ban log with identity, got: %s", buf.String())
	}

	// Anonymous 404: no identity in the body and nothing logged.
	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if strings.Contains(w.Body.String(), "user_id") {
		t.Fatalf("anonymous error should omit user_id: %s", w.Body.String())
	}
	if buf.Len() != 0 {
		t.Fatalf("4xx should not log, got: %s", buf.String())
	}
}

func Test_SuccessHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		write  func(c *gin.Context)
		status int
		body   string
	}{
		{"created", func(c *gin.Context) { created(c, 7) }, http.StatusCreated, `{"id":7}`},
		{"scored", func(c *gin.Context) { scored(c, -1) }, http.StatusOK, `{"points":-1}`},
		{"reacted", func(c *gin.Context) { reacted(c, domain.Smiley) }, http.StatusOK, `{"emoji":"SMILEY"}`},
		{"acked", acked, http.StatusNoContent, ""},
		{
			"listed empty page",
			func(c *gin.Context) { listed(c, &services.Page{Page: 1, PageSize: 20}) },
			http.StatusOK,
			`"messages":[]`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", tc.write)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
			if w.Code != tc.status {
				t.Fatalf("status=%d want %d", w.Code, tc.status)
			}
			if tc.body == "" {
				if w.Body.Len() != 0 {
					t.Fatalf("expected empty body, got %s", w.Body.String())
				}
				return
			}
			if !strings.Contains(w.Body.String(), tc.body) {
				t.Fatalf("body %s does not contain %s", w.Body.String(), tc.body)
			}
		})
	}
}
