package history

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jask/palette/internal/database"
	"github.com/jask/palette/internal/database/repository"
)

// SQLiteStorage persists values in the kv_store table.
type SQLiteStorage struct {
	db   *sql.DB
	repo *repository.KVRepo
	mu   sync.Mutex
}

// OpenSQLiteStorage migrates and opens the database at path.
func OpenSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := database.OpenMigrated(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStorage(db), nil
}

// NewSQLiteStorage wraps an already migrated database.
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db, repo: repository.NewKVRepo(db)}
}

func (s *SQLiteStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Get(ctx, key)
}

func (s *SQLiteStorage) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Upsert(ctx, key, value, database.Now())
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

var _ Storage = (*SQLiteStorage)(nil)
