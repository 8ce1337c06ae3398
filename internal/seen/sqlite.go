package seen

import (
	"context"
	"fmt"

	"github.com/abdulachik/weibobot/internal/db"
	"github.com/abdulachik/weibobot/internal/domain"
)

// SQLiteStore keeps the history in the seen_posts table.
type SQLiteStore struct {
	store *db.Store
	path  string
	ids   *Set
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens and migrates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	store, err := db.NewStore(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return NewSQLiteStore(store, path), nil
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(store *db.Store, path string) *SQLiteStore {
	return &SQLiteStore{store: store, path: path, ids: NewSet()}
}

// Load reads every recorded id ordered by insertion.
func (s *SQLiteStore) Load(ctx context.Context) ([]string, error) {
	ids, err := s.store.ListSeenPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seen posts: %w", err)
	}
	s.ids = NewSet(ids...)
	return s.ids.Slice(), nil
}

// Contains reports whether id is recorded.
func (s *SQLiteStore) Contains(id string) bool {
	return s.ids.Has(normalizeID(id))
}

// Append inserts the new ids in a single committed transaction.
func (s *SQLiteStore) Append(ctx context.Context, ids ...string) error {
	fresh := s.ids.Missing(normalizeIDs(ids))
	if len(fresh) == 0 {
		return nil
	}

	if err := s.insert(ctx, fresh); err != nil {
		return &domain.StorageWriteError{Location: s.path, Err: err}
	}

	for _, id := range fresh {
		s.ids.Add(id)
	}
	return nil
}

func (s *SQLiteStore) insert(ctx context.Context, ids []string) error {
	tx, err := s.store.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	q := s.store.WithTx(tx)
	for _, id := range ids {
		if _, err := q.InsertSeenPost(ctx, id); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Len returns the number of recorded ids.
func (s *SQLiteStore) Len() int { return s.ids.Len() }

// Location returns the database path.
func (s *SQLiteStore) Location() string { return s.path }

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.store.Close() }
