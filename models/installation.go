package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONMap is a free-form JSON object stored in a JSONB column
type JSONMap map[string]any

// Value implements driver.Valuer for JSONB storage
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB retrieval
func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = JSONMap{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}
	return json.Unmarshal(data, m)
}

// BotInstallation is the per-journal enablement and configuration record for
// a bot. It is the authority consulted before any invocation - presence in
// the registry alone is not sufficient. Uninstall is soft: the row is
// disabled, never deleted, so historical actions keep a valid reference.
type BotInstallation struct {
	ID         string    `json:"id"          db:"id"`
	BotID      string    `json:"bot_id"      db:"bot_id"`
	JournalID  string    `json:"journal_id"  db:"journal_id"`
	IsEnabled  bool      `json:"is_enabled"  db:"is_enabled"`
	IsDefault  bool      `json:"is_default"  db:"is_default"`
	IsRequired bool      `json:"is_required" db:"is_required"`
	Config     JSONMap   `json:"config"      db:"config"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}
