package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/storefront-promo/internal/logger"
	"github.com/example/storefront-promo/internal/models"
)

// PostgresStore keeps settings documents in a jsonb table.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore wraps an opened gorm connection.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Connect opens the database, creating it first when missing, and migrates
// the settings table.
func Connect(dsn string) (*gorm.DB, error) {
	if err := ensureDatabase(dsn); err != nil {
		return nil, fmt.Errorf("ensure database: %w", err)
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := conn.AutoMigrate(&models.SettingsDocument{}); err != nil {
		return nil, fmt.Errorf("migrate settings documents: %w", err)
	}

	logger.Log.Info("postgres settings store ready")
	return conn, nil
}

// Probe counts the documents in collection.
func (s *PostgresStore) Probe(ctx context.Context, collection string) (int, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.SettingsDocument{}).
		Where("collection = ?", collection).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count %s documents: %w", collection, err)
	}
	return int(total), nil
}

// Get reads one document. A missing row is reported as exists == false.
func (s *PostgresStore) Get(ctx context.Context, collection, key string) (map[string]any, bool, error) {
	var doc models.SettingsDocument
	err := s.db.WithContext(ctx).
		First(&doc, "collection = ? AND key = ?", collection, key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s/%s: %w", collection, key, err)
	}

	fields := make(map[string]any)
	if err := json.Unmarshal([]byte(doc.Data), &fields); err != nil {
		return nil, false, fmt.Errorf("decode %s/%s: %w", collection, key, err)
	}
	return fields, true, nil
}

// Put replaces the document at collection/key.
func (s *PostgresStore) Put(ctx context.Context, collection, key string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}

	doc := models.SettingsDocument{Collection: collection, Key: key, Data: string(data)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", collection, key, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureDatabase(dsn string) error {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return err
	}

	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		return nil
	}

	parsed.Path = "/postgres"
	sqlDB, err := sql.Open("postgres", parsed.String())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	var exists bool
	if err := sqlDB.QueryRow("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	logger.Log.Infof("creating database %s", dbName)
	_, err = sqlDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbName))
	return err
}
