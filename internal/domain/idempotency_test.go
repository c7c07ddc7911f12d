package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestIdempotency_TableName(t *testing.T) {
	if got := (Idempotency{}).TableName(); got != "idempotency" {
		t.Fatalf("TableName() = %q; want %q", got, "idempotency")
	}
}

func TestIdempotency_Migration_UniqueKeyAndBody(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasTable(&Idempotency{}) {
		t.Fatalf("expected table %q", Idempotency{}.TableName())
	}
	if !m.HasIndex(&Idempotency{}, "ux_user_route_key") {
		t.Fatalf("expected composite index ux_user_route_key")
	}

	now := time.Now().UTC()
	rec := &Idempotency{
		ID:        "id-1",
		UserID:    "alice",
		Route:     "POST /api/v1/messages",
		Key:       "k1",
		Status:    201,
		Body:      []byte(`{"id":0}`),
		ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Status != 201 || string(got.Body) != `{"id":0}` || got.Route != rec.Route {
		t.Fatalf("unexpected row: %+v", got)
	}

	dup := &Idempotency{
		ID:        "id-2",
		UserID:    "alice",
		Route:     "POST /api/v1/messages",
		Key:       "k1",
		Status:    201,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected UNIQUE violation on (user_id, route, key)")
	}

	// Same key on another route is a different record.
	other := *dup
	other.Route = "POST /api/v1/messages/:id/likes"
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("insert other route: %v", err)
	}
}
