package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Blob is one stored value.
type Blob struct {
	Key       string `gorm:"column:blob_key;primaryKey;size:255"`
	Value     []byte
	UpdatedAt time.Time
}

// TableName overrides the default table name.
func (Blob) TableName() string { return "docstacker_blobs" }

// SQL keeps values in a single table through gorm.
type SQL struct {
	db *gorm.DB
}

// OpenSQL opens a sqlite or postgres database and migrates the blob table.
func OpenSQL(driver, dsn string) (*SQL, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = ":memory:"
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		if dsn == "" {
			return nil, errors.New("store: postgres needs a dsn")
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// A pooled in-memory sqlite database is one database per connection.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	s := NewSQL(db)
	if err := s.AutoMigrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSQL wraps an open gorm database. Call AutoMigrate before use.
func NewSQL(db *gorm.DB) *SQL {
	return &SQL{db: db}
}

// AutoMigrate creates or updates the blob table.
func (s *SQL) AutoMigrate() error {
	if err := s.db.AutoMigrate(&Blob{}); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var b Blob
	err := s.db.WithContext(ctx).Where("blob_key = ?", key).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %q: %w", key, err)
	}
	return b.Value, nil
}

func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	b := Blob{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blob_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&b).Error
	if err != nil {
		return fmt.Errorf("store: put %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("blob_key = ?", key).Delete(&Blob{}).Error; err != nil {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
