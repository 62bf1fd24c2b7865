package kv

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FSStore keeps one JSON file per key under <base>/<bucket>/<key>.json.
// Writes go through a temp file and rename so readers never observe a
// torn document.
type FSStore struct {
	base  string
	locks *keyedLocks
}

func NewFSStore(base string) (*FSStore, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, errors.Wrap(err, "create storage directory")
	}
	return &FSStore{
		base:  base,
		locks: newKeyedLocks(),
	}, nil
}

func (s *FSStore) path(bucket, key string) string {
	return filepath.Join(s.base, bucket, key+".json")
}

func (s *FSStore) Get(ctx context.Context, bucket, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(bucket, key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "read document")
	}
	return data, true, nil
}

func (s *FSStore) Put(ctx context.Context, bucket, key string, value []byte) error {
	dir := filepath.Join(s.base, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create bucket directory")
	}

	tmp, err := os.CreateTemp(dir, key+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "write document")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close temp file")
	}

	if err := os.Rename(tmpName, s.path(bucket, key)); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "replace document")
	}
	return nil
}

func (s *FSStore) Delete(ctx context.Context, bucket, key string) error {
	err := os.Remove(s.path(bucket, key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "delete document")
	}
	return nil
}

func (s *FSStore) Keys(ctx context.Context, bucket string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.base, bucket))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "list bucket")
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}

func (s *FSStore) Lock(bucket, key string) func() {
	return s.locks.Lock(bucket, key)
}
