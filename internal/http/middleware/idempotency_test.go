package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// memIdemStore is an in-memory IdempotencyStore keyed by user|route|key.
type memIdemStore struct {
	mu      sync.Mutex
	data    map[string]StoredResponse
	lookups int
	saves   int
	lookErr error
	saveErr error
}

func newMemIdemStore() *memIdemStore {
	return &memIdemStore{data: map[string]StoredResponse{}}
}

func (s *memIdemStore) Lookup(_ context.Context, userID, route, key string, _ time.Time) (StoredResponse, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.lookErr != nil {
		return StoredResponse{}, false, s.lookErr
	}
	r, ok := s.data[userID+"|"+route+"|"+key]
	return r, ok, nil
}

func (s *memIdemStore) Save(_ context.Context, userID, route, key string, resp StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data[userID+"|"+route+"|"+key] = resp
	return nil
}

// newIdemRouter wires Identity + Idempotency in front of a counting handler.
func newIdemRouter(store IdempotencyStore, status int, body string) (*gin.Engine, *int) {
	gin.SetMode(gin.TestMode)
	calls := 0
	r := gin.New()
	r.Use(RequestID(), Identity(), Idempotency(IdempotencyOptions{}, store))
	h := func(c *gin.Context) {
		calls++
		if body == "" {
			c.Status(status)
			return
		}
		c.Data(status, "application/json; charset=utf-8", []byte(body))
	}
	r.POST("/messages", h)
	r.POST("/messages/:id/likes", h)
	r.GET("/messages", h)
	return r, &calls
}

func idemReq(method, path, user, key string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if user != "" {
		req.Header.Set(HeaderUserID, user)
	}
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	return req
}

func TestHelpers_GetIdempotencyKey_IsReplay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected empty key when not set")
	}
	if IsReplay(c) {
		t.Fatalf("expected IsReplay=false by default")
	}
	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key must read as absent")
	}
	c.Set(ctxKeyIdemKey, "k1")
	if k, ok := GetIdempotencyKey(c); k != "k1" || !ok {
		t.Fatalf("GetIdempotencyKey = %q,%v", k, ok)
	}
	c.Set(ctxKeyIdemReplay, true)
	if !IsReplay(c) {
		t.Fatalf("expected IsReplay=true")
	}
	c.Set(ctxKeyIdemReplay, "yes")
	if IsReplay(c) {
		t.Fatalf("expected IsReplay=false for non-bool")
	}
}

func TestIdempotency_PassThrough(t *testing.T) {
	tests := []struct {
		name   string
		method string
		user   string
		key    string
	}{
		{"no_key", http.MethodPost, "alice", ""},
		{"anonymous", http.MethodPost, "", "k1"},
		{"not_post", http.MethodGet, "alice", "k1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemIdemStore()
			r, calls := newIdemRouter(store, http.StatusCreated, `{"id":1}`)
			for i := 0; i < 2; i++ {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, idemReq(tt.method, "/messages", tt.user, tt.key))
				if w.Header().Get(HeaderIdempotencyReplayed) != "" {
					t.Fatalf("unexpected replay header")
				}
			}
			if *calls != 2 || store.lookups != 0 || store.saves != 0 {
				t.Fatalf("calls=%d lookups=%d saves=%d", *calls, store.lookups, store.saves)
			}
		})
	}
}

func TestIdempotency_NilStorePassesThrough(t *testing.T) {
	r, calls := newIdemRouter(nil, http.StatusCreated, `{"id":1}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, idemReq(http.MethodPost, "/messages", "alice", "k1"))
	if w.Code != http.StatusCreated || *calls != 1 {
		t.Fatalf("code=%d calls=%d", w.Code, *calls)
	}
}

func TestIdempotency_InvalidKey(t *testing.T) {
	for name, key := range map[string]string{
		"too_long": strings.Repeat("a", 201),
		"pattern":  "bad key!",
	} {
		t.Run(name, func(t *testing.T) {
			store := newMemIdemStore()
			r, calls := newIdemRouter(store, http.StatusCreated, `{"id":1}`)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, idemReq(http.MethodPost, "/messages", "alice", key))
			if w.Code != http.StatusBadRequest || *calls != 0 {
				t.Fatalf("code=%d calls=%d", w.Code, *calls)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["code"] != "bad_idempotency_key" {
				t.Fatalf("body=%s err=%v", w.Body.String(), err)
			}
		})
	}
}

func TestIdempotency_CustomPattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(), Idempotency(IdempotencyOptions{MaxLen: 4, Pattern: regexp.MustCompile(`^[0-9]+$`)}, newMemIdemStore()))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for key, want := range map[string]int{
		"1234":  http.StatusNoContent,
		"12345": http.StatusBadRequest,
		"ab":    http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, idemReq(http.MethodPost, "/x", "alice", key))
		if w.Code != want {
			t.Fatalf("key %q: code=%d want %d", key, w.Code, want)
		}
	}
}

func TestIdempotency_ReplaysStoredBody(t *testing.T) {
	store := newMemIdemStore()
	r, calls := newIdemRouter(store, http.StatusCreated, `{"id":7}`)
	before := testutil.ToFloat64(idemReplays)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, idemReq(http.MethodPost, "/messages", "alice", "k1"))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, idemReq(http.MethodPost, "/messages", "alice", "k1"))

	if *calls != 1 {
		t.Fatalf("handler ran %d times; want 1", *calls)
	}
	if second.Code != http.StatusCreated || second.Body.String() != `{"id":7}` {
		t.Fatalf("replay = %d %s", second.Code, second.Body.String())
	}
	if second.Header().Get(HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("missing replay header")
	}
	if first.Header().Get(HeaderIdempotencyReplayed) != "" {
		t.Fatalf("first response must not be marked as replay")
	}
	if got := testutil.ToFloat64(idemReplays); got != before+1 {
		t.Fatalf("replays counter = %v; want %v", got, before+1)
	}
}

func TestIdempotency_ReplaysEmptyBody(t *testing.T) {
	store := newMemIdemStore()
	r, calls := newIdemRouter(store, http.StatusNoContent, "")

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, idemReq(http.MethodPost, "/messages/3/likes", "alice", "k1"))
		if w.Code != http.StatusNoContent {
			t.Fatalf("attempt %d code=%d", i, w.Code)
		}
	}
	if *calls != 1 {
		t.Fatalf("handler ran %d times; want 1", *calls)
	}
}

func TestIdempotency_ScopedByUserAndRoute(t *testing.T) {
	store := newMemIdemStore()
	r, calls := newIdemRouter(store, http.StatusCreated, `{"ok":true}`)

	r.ServeHTTP(httptest.NewRecorder(), idemReq(http.MethodPost, "/messages", "alice", "k1"))
	r.ServeHTTP(httptest.NewRecorder(), idemReq(http.MethodPost, "/messages", "bob", "k1"))
	r.ServeHTTP(httptest.NewRecorder(), idemReq(http.MethodPost, "/messages/1/likes", "alice", "k1"))
	r.ServeHTTP(httptest.NewRecorder(), idemReq(http.MethodPost, "/messages/2/likes", "alice", "k1"))

	if *calls != 4 {
		t.Fatalf("handler ran %d times; want 4", *calls)
	}
	if len(store.data) != 4 {
		t.Fatalf("stored %d records; want 4", len(store.data))
	}
}

func TestIdempotency_NonSuccessNotSaved(t *testing.T) {
	store := newMemIdemStore()
	r, calls := newIdemRouter(store, http.StatusForbidden, `{"code":"banned"}`)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, idemReq(http.MethodPost, "/messages", "alice", "k1"))
		if w.Code != http.StatusForbidden {
			t.Fatalf("code=%d", w.Code)
		}
	}
	if *calls != 2 || store.saves != 0 {
		t.Fatalf("calls=%d saves=%d", *calls, store.saves)
	}
}

func TestIdempotency_StoreErrorsDoNotBlock(t *testing.T) {
	store := newMemIdemStore()
	store.lookErr = errors.New("db down")
	store.saveErr = errors.New("db down")
	r, calls := newIdemRouter(store, http.StatusCreated, `{"id":1}`)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, idemReq(http.MethodPost, "/messages", "alice", "k1"))
		if w.Code != http.StatusCreated {
			t.Fatalf("code=%d", w.Code)
		}
	}
	if *calls != 2 {
		t.Fatalf("handler ran %d times; want 2", *calls)
	}
}
