package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	_ Store   = (*Postgres)(nil)
	_ Batcher = (*Postgres)(nil)
)

// entryRow is the single table backing the key/value store.
type entryRow struct {
	Key   string `gorm:"column:entry_key;primaryKey"`
	Value []byte `gorm:"column:value;not null"`
}

func (entryRow) TableName() string {
	return "ledger_entries"
}

var upsertEntry = clause.OnConflict{
	Columns:   []clause.Column{{Name: "entry_key"}},
	DoUpdates: clause.AssignmentColumns([]string{"value"}),
}

// Postgres stores entries in PostgreSQL through gorm.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres wraps an opened gorm connection.
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the entries table when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&entryRow{})
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var row entryRow
	err := p.db.WithContext(ctx).Where("entry_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.Value, true, nil
}

func (p *Postgres) Insert(ctx context.Context, key string, value []byte) error {
	row := entryRow{Key: key, Value: value}
	return p.db.WithContext(ctx).Clauses(upsertEntry).Create(&row).Error
}

// InsertBatch upserts every entry inside one database transaction.
func (p *Postgres) InsertBatch(ctx context.Context, entries []Entry) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			row := entryRow{Key: e.Key, Value: e.Value}
			if err := tx.Clauses(upsertEntry).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
