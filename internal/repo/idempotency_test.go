package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-message-board/internal/domain"
)

func newIdemDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid schema leakage across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

const route = "POST /messages"

func TestGetIdempotency_BlankKey_ReturnsNotFound(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	rec, err := GetIdempotency(context.Background(), db, "u1", route, "   ", time.Now().UTC())
	if rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for blank key, got (%v, %v)", rec, err)
	}
}

func TestGetIdempotency_ExpiredOrMissing_ReturnsNotFound(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	exp := &domain.Idempotency{
		ID:        "expired",
		UserID:    "u1",
		Route:     route,
		Key:       "k1",
		Status:    201,
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}

	if rec, err := GetIdempotency(context.Background(), db, "u1", route, "k1", now); rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for expired, got (%v, %v)", rec, err)
	}
	if rec, err := GetIdempotency(context.Background(), db, "u1", route, "missing", now); rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for missing, got (%v, %v)", rec, err)
	}
}

func TestGetIdempotency_ScopedByUserAndRoute(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	ctx := context.Background()
	if _, err := CreateIdempotency(ctx, db, "u1", route, "k", 201, []byte(`{"id":0}`), time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}
	now := time.Now().UTC()

	rec, err := GetIdempotency(ctx, db, "u1", route, "k", now)
	if err != nil || rec.Status != 201 || string(rec.Body) != `{"id":0}` {
		t.Fatalf("readback = %+v, %v", rec, err)
	}
	if _, err := GetIdempotency(ctx, db, "u2", route, "k", now); err != ErrNotFound {
		t.Fatalf("other user must not see the record, got %v", err)
	}
	if _, err := GetIdempotency(ctx, db, "u1", "POST /users/:name/reports", "k", now); err != ErrNotFound {
		t.Fatalf("other route must not see the record, got %v", err)
	}
}

func TestCreateIdempotency_SuccessAndDuplicate(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	ttl := 90 * time.Minute
	start := time.Now().UTC()

	rec, err := CreateIdempotency(context.Background(), db, "u9", route, "k9", 201, []byte(`{"id":9}`), ttl)
	if err != nil {
		t.Fatalf("CreateIdempotency error: %v", err)
	}
	if rec == nil || rec.ID == "" || rec.UserID != "u9" || rec.Route != route || rec.Key != "k9" || rec.Status != 201 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !(rec.ExpiresAt.After(start) && rec.ExpiresAt.Before(start.Add(2*time.Hour))) {
		t.Fatalf("unexpected ExpiresAt: %v", rec.ExpiresAt)
	}

	_, err = CreateIdempotency(context.Background(), db, "u9", route, "k9", 200, nil, ttl)
	if err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

// Generic DB error path: attempt insert without migrating the table.
func TestCreateIdempotency_Error_NoTable(t *testing.T) {
	db := newIdemDB(t)
	_, err := CreateIdempotency(context.Background(), db, "uX", route, "kX", 200, nil, time.Minute)
	if err == nil {
		t.Fatalf("expected error when table is missing")
	}
	if err == ErrDuplicate {
		t.Fatalf("expected non-duplicate error, got ErrDuplicate")
	}
}

func TestPurgeExpiredIdempotency(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	ctx := context.Background()
	now := time.Now().UTC()

	for i, exp := range []time.Time{now.Add(-time.Minute), now.Add(-time.Hour), now.Add(time.Hour)} {
		rec := &domain.Idempotency{
			ID: fmt.Sprintf("r%d", i), UserID: "u", Route: route, Key: fmt.Sprintf("k%d", i),
			Status: 201, CreatedAt: now, ExpiresAt: exp,
		}
		if err := db.Create(rec).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	n, err := PurgeExpiredIdempotency(ctx, db, now)
	if err != nil || n != 2 {
		t.Fatalf("purge = %d, %v; want 2", n, err)
	}
	var left int64
	db.Model(&domain.Idempotency{}).Count(&left)
	if left != 1 {
		t.Fatalf("left = %d; want 1", left)
	}
}

func TestResetIdempotency_FileDBAcrossRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "board.db")

	open := func() *gorm.DB {
		db, err := OpenSQLite(path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		return db
	}

	first := open()
	if _, err := CreateIdempotency(ctx, first, "u1", route, "k", 201, []byte(`{"id":0}`), time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sqlDB, _ := first.DB()
	_ = sqlDB.Close()

	// A restarted board must not replay id 0 from the previous board.
	second := open()
	t.Cleanup(func() {
		if s, err := second.DB(); err == nil {
			_ = s.Close()
		}
	})
	n, err := ResetIdempotency(ctx, second)
	if err != nil || n != 1 {
		t.Fatalf("reset = %d, %v; want 1", n, err)
	}
	if _, err := GetIdempotency(ctx, second, "u1", route, "k", time.Now().UTC()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after reset, got %v", err)
	}
}
