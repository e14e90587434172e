package migrations

import (
	"time"

	"gorm.io/gorm"
)

// Run applies the console's schema.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&catalogSentinelRecord{},
	)
}

// Catalog sentinel schema mirrors the catalogsync Postgres adapter.
type catalogSentinelRecord struct {
	Key       string    `gorm:"primaryKey;column:key;size:128"`
	Value     string    `gorm:"column:value"`
	Version   int64     `gorm:"column:version"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (catalogSentinelRecord) TableName() string { return "catalog_sentinels" }
