package kv

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document is the single table backing the postgres store.
type Document struct {
	Bucket string `gorm:"primaryKey;size:64"`
	Key    string `gorm:"primaryKey;size:256"`
	Value  []byte
}

func (Document) TableName() string { return "kv_documents" }

// PostgresStore keeps documents in one upsert-per-write table.
type PostgresStore struct {
	db    *gorm.DB
	locks *keyedLocks
}

func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, errors.Wrap(err, "migrate kv_documents")
	}
	return &PostgresStore{
		db:    db,
		locks: newKeyedLocks(),
	}, nil
}

func (s *PostgresStore) Get(ctx context.Context, bucket, key string) ([]byte, bool, error) {
	var doc Document
	err := s.db.WithContext(ctx).
		Where("bucket = ? AND key = ?", bucket, key).
		Take(&doc).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "select document")
	}
	return doc.Value, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, bucket, key string, value []byte) error {
	doc := Document{Bucket: bucket, Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bucket"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&doc).Error
	return errors.Wrap(err, "upsert document")
}

func (s *PostgresStore) Delete(ctx context.Context, bucket, key string) error {
	err := s.db.WithContext(ctx).
		Delete(&Document{}, "bucket = ? AND key = ?", bucket, key).Error
	return errors.Wrap(err, "delete document")
}

func (s *PostgresStore) Keys(ctx context.Context, bucket string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&Document{}).
		Where("bucket = ?", bucket).
		Pluck("key", &keys).Error
	if err != nil {
		return nil, errors.Wrap(err, "list bucket")
	}
	return keys, nil
}

func (s *PostgresStore) Lock(bucket, key string) func() {
	return s.locks.Lock(bucket, key)
}
