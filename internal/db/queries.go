package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the seen_posts statements.
type Queries struct {
	db DBTX
}

// New returns Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries that run inside tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const insertSeenPost = `INSERT OR IGNORE INTO seen_posts (post_id) VALUES (?)`

// InsertSeenPost records postID. It returns false if it was already present.
func (q *Queries) InsertSeenPost(ctx context.Context, postID string) (bool, error) {
	res, err := q.db.ExecContext(ctx, insertSeenPost, postID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const listSeenPosts = `SELECT post_id FROM seen_posts ORDER BY seq`

// ListSeenPosts returns all recorded ids in discovery order.
func (q *Queries) ListSeenPosts(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listSeenPosts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

const countSeenPosts = `SELECT COUNT(*) FROM seen_posts`

// CountSeenPosts returns the number of recorded ids.
func (q *Queries) CountSeenPosts(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countSeenPosts).Scan(&n)
	return n, err
}
