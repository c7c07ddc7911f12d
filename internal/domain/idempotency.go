package domain

import "time"

// Idempotency records the response produced for a mutating request so that a
// retry carrying the same Idempotency-Key replays it instead of sending a
// second command to the store. Records are keyed by (user_id, route, key).
//
// Body holds the exact JSON bytes written to the client (empty for 204).
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_route_key,priority:1"`
	Route     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_route_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_route_key,priority:3"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	Body      []byte    `gorm:"type:BLOB"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
