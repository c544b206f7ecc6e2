package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rcliao/wikiserve/internal/model"
)

// History lists the revisions of one path, newest first.
func (s *SQLiteStore) History(ctx context.Context, p HistoryParams) ([]model.Revision, error) {
	clean, err := normalizePath(p.Path)
	if err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.path, r.deleted, c.sha, c.parent, c.message, c.author_name, c.author_email, c.created_at
		 FROM revisions r INNER JOIN commits c ON c.seq = r.commit_seq
		 WHERE r.path = ?
		 ORDER BY r.commit_seq DESC
		 LIMIT ?`, clean, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revs []model.Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, ErrNotFound
	}
	return revs, nil
}

// Commits lists commits newest first, each with the paths it touched.
func (s *SQLiteStore) Commits(ctx context.Context, limit int) ([]model.Commit, error) {
	query := `SELECT c.seq, c.sha, c.parent, c.message, c.author_name, c.author_email, c.created_at
	          FROM commits c ORDER BY c.seq DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commits []model.Commit
	var seqs []int64
	for rows.Next() {
		var seq int64
		c, err := scanCommit(rows, &seq)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i, seq := range seqs {
		paths, err := s.commitPaths(ctx, seq)
		if err != nil {
			return nil, err
		}
		commits[i].Paths = paths
	}
	return commits, nil
}

func (s *SQLiteStore) commitPaths(ctx context.Context, seq int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM revisions WHERE commit_seq = ? ORDER BY path`, seq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRevision(row scanner) (model.Revision, error) {
	var r model.Revision
	var parent sql.NullString
	var createdAt string

	err := row.Scan(&r.Path, &r.Deleted, &r.ID, &parent, &r.Message,
		&r.Author.Name, &r.Author.Email, &createdAt)
	if err != nil {
		return r, err
	}
	if parent.Valid {
		r.Parent = parent.String
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return r, nil
}

func scanCommit(row scanner, seq *int64) (model.Commit, error) {
	var c model.Commit
	var parent sql.NullString
	var createdAt string

	err := row.Scan(seq, &c.ID, &parent, &c.Message, &c.Author.Name, &c.Author.Email, &createdAt)
	if err != nil {
		return c, err
	}
	if parent.Valid {
		c.Parent = parent.String
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return c, nil
}
