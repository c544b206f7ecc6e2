package store

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/wikiserve/internal/model"
	"github.com/rcliao/wikiserve/internal/wikipath"
)

// versionPattern matches a full commit id.
var versionPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// IsVersion reports whether s has the shape of a commit id.
func IsVersion(s string) bool {
	return versionPattern.MatchString(s)
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	path    string
	writeMu sync.Mutex
	now     func() time.Time
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:   db,
		path: dbPath,
		now:  time.Now,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) newID() string {
	return ulid.Make().String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS commits (
		seq          INTEGER PRIMARY KEY AUTOINCREMENT,
		sha          TEXT NOT NULL UNIQUE,
		parent       TEXT,
		message      TEXT NOT NULL DEFAULT '',
		author_name  TEXT NOT NULL DEFAULT '',
		author_email TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS revisions (
		id          TEXT PRIMARY KEY,
		commit_seq  INTEGER NOT NULL REFERENCES commits(seq),
		path        TEXT NOT NULL,
		dir         TEXT NOT NULL,
		base        TEXT NOT NULL,
		data        BLOB,
		deleted     INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_revisions_path ON revisions(path, commit_seq DESC);
	CREATE INDEX IF NOT EXISTS idx_revisions_dir ON revisions(dir);
	CREATE INDEX IF NOT EXISTS idx_revisions_commit ON revisions(commit_seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// normalizePath cleans p into the slash-separated, root-relative form
// revisions are stored under.
func normalizePath(p string) (string, error) {
	p = strings.Trim(p, "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	return clean, nil
}

func normalizeDir(d string) string {
	d = strings.Trim(d, "/")
	if d == "" {
		return ""
	}
	return path.Clean(d)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// seqFor maps a commit id to its sequence number. An empty version means
// the newest commit.
func (s *SQLiteStore) seqFor(ctx context.Context, q querier, version string) (int64, error) {
	var seq sql.NullInt64
	var err error
	if version == "" {
		err = q.QueryRowContext(ctx, `SELECT MAX(seq) FROM commits`).Scan(&seq)
	} else {
		err = q.QueryRowContext(ctx, `SELECT seq FROM commits WHERE sha = ?`, strings.ToLower(version)).Scan(&seq)
	}
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !seq.Valid) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lookup commit: %w", err)
	}
	return seq.Int64, nil
}

// entry is one live path in the tree at some commit.
type entry struct {
	path      string
	dir       string
	base      string
	data      []byte
	sha       string
	message   string
	author    model.Author
	createdAt time.Time
}

func (e entry) page() (*model.Page, bool) {
	f, ok := model.FormatForPath(e.base)
	if !ok {
		return nil, false
	}
	return &model.Page{
		Name:      strings.TrimSuffix(e.base, path.Ext(e.base)),
		Dir:       e.dir,
		Path:      e.path,
		Format:    f,
		RawData:   string(e.data),
		Version:   e.sha,
		Message:   e.message,
		Author:    e.author,
		UpdatedAt: e.createdAt,
	}, true
}

type treeFilter struct {
	dir  *string
	like string
}

// tree returns the live entries as of commit seq, ordered by path.
func (s *SQLiteStore) tree(ctx context.Context, seq int64, f treeFilter) ([]entry, error) {
	where := []string{"r.deleted = 0"}
	args := []interface{}{seq}
	if f.dir != nil {
		where = append(where, "r.dir = ?")
		args = append(args, *f.dir)
	}
	if f.like != "" {
		where = append(where, `CAST(r.data AS TEXT) LIKE ? ESCAPE '\'`)
		args = append(args, f.like)
	}

	query := fmt.Sprintf(`
		SELECT r.path, r.dir, r.base, r.data, c.sha, c.message, c.author_name, c.author_email, c.created_at
		FROM revisions r
		INNER JOIN (
			SELECT path, MAX(commit_seq) AS s
			FROM revisions WHERE commit_seq <= ?
			GROUP BY path
		) latest ON r.path = latest.path AND r.commit_seq = latest.s
		INNER JOIN commits c ON c.seq = r.commit_seq
		WHERE %s
		ORDER BY r.path`, strings.Join(where, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []entry
	for rows.Next() {
		var e entry
		var createdAt string
		if err := rows.Scan(&e.path, &e.dir, &e.base, &e.data, &e.sha, &e.message,
			&e.author.Name, &e.author.Email, &createdAt); err != nil {
			return nil, err
		}
		e.createdAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// canonicalName folds the differences page name matching ignores: case and
// hyphens standing in for spaces.
func canonicalName(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "-", " "))
}

func pageMatch(name, base string) bool {
	stem := strings.TrimSuffix(base, path.Ext(base))
	return canonicalName(stem) == canonicalName(name)
}

func (s *SQLiteStore) ResolvePage(ctx context.Context, name string, dir *string, exact bool, version string) (*model.Page, error) {
	if name == "" {
		return nil, ErrNotFound
	}
	seq, err := s.seqFor(ctx, s.db, version)
	if err != nil {
		return nil, err
	}

	var f treeFilter
	switch {
	case dir != nil:
		d := normalizeDir(*dir)
		f.dir = &d
	case exact:
		root := ""
		f.dir = &root
	}

	entries, err := s.tree(ctx, seq, f)
	if err != nil {
		return nil, fmt.Errorf("resolve page: %w", err)
	}
	for _, e := range entries {
		if !pageMatch(name, e.base) {
			continue
		}
		if p, ok := e.page(); ok {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *SQLiteStore) ResolveFile(ctx context.Context, p string, version string) (*model.File, error) {
	clean, err := normalizePath(p)
	if err != nil {
		return nil, ErrNotFound
	}
	seq, err := s.seqFor(ctx, s.db, version)
	if err != nil {
		return nil, err
	}

	var data []byte
	var deleted bool
	var sha string
	err = s.db.QueryRowContext(ctx,
		`SELECT r.data, r.deleted, c.sha FROM revisions r
		 INNER JOIN commits c ON c.seq = r.commit_seq
		 WHERE r.path = ? AND r.commit_seq <= ?
		 ORDER BY r.commit_seq DESC LIMIT 1`, clean, seq).Scan(&data, &deleted, &sha)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}
	if deleted {
		return nil, ErrNotFound
	}

	return &model.File{
		Path:     clean,
		MimeType: mimeType(clean, data),
		RawData:  data,
		Version:  sha,
	}, nil
}

func mimeType(p string, data []byte) string {
	if t := mime.TypeByExtension(path.Ext(p)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

func (s *SQLiteStore) UpdatePage(ctx context.Context, page *model.Page, name string, format model.Format, content string, meta model.CommitMeta) (string, error) {
	if page == nil {
		return "", ErrNotFound
	}
	if !model.ValidFormat(format) {
		return "", fmt.Errorf("invalid format %q", format)
	}
	if name == "" {
		name = page.Name
	}

	newPath := wikipath.Join(page.Dir, name+format.Ext())
	changes := []Change{{Path: newPath, Data: []byte(content)}}
	if newPath == page.Path {
		return s.Commit(ctx, meta, changes)
	}
	changes = append(changes, Change{Path: page.Path, Delete: true})
	return s.commit(ctx, meta, changes, func(ctx context.Context) error {
		return s.pageTaken(ctx, page.Dir, name, page.Path)
	})
}

func (s *SQLiteStore) WritePage(ctx context.Context, dir, name string, format model.Format, content string, meta model.CommitMeta) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("page name is required")
	}
	if !model.ValidFormat(format) {
		return "", fmt.Errorf("invalid format %q", format)
	}

	d := normalizeDir(dir)
	changes := []Change{{Path: wikipath.Join(d, name+format.Ext()), Data: []byte(content)}}
	return s.commit(ctx, meta, changes, func(ctx context.Context) error {
		return s.pageTaken(ctx, d, name, "")
	})
}

// pageTaken returns ErrExists when a live page in dir matches name, other
// than the one stored at self.
func (s *SQLiteStore) pageTaken(ctx context.Context, dir, name, self string) error {
	seq, err := s.seqFor(ctx, s.db, "")
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	d := normalizeDir(dir)
	entries, err := s.tree(ctx, seq, treeFilter{dir: &d})
	if err != nil {
		return fmt.Errorf("check page %s: %w", name, err)
	}
	for _, e := range entries {
		if e.path == self || !pageMatch(name, e.base) {
			continue
		}
		if _, ok := e.page(); ok {
			return fmt.Errorf("page %s: %w", wikipath.Join(d, name), ErrExists)
		}
	}
	return nil
}

// WriteFile commits data at p, replacing whatever is there.
func (s *SQLiteStore) WriteFile(ctx context.Context, p string, data []byte, meta model.CommitMeta) (string, error) {
	return s.Commit(ctx, meta, []Change{{Path: p, Data: data}})
}

// DeletePath commits the removal of p. Paths that are not live are
// reported as ErrNotFound.
func (s *SQLiteStore) DeletePath(ctx context.Context, p string, meta model.CommitMeta) (string, error) {
	return s.Commit(ctx, meta, []Change{{Path: p, Delete: true}})
}

func (s *SQLiteStore) Commit(ctx context.Context, meta model.CommitMeta, changes []Change) (string, error) {
	return s.commit(ctx, meta, changes, nil)
}

// commit writes changes as one commit. check, when set, runs under the write
// lock before anything is written.
func (s *SQLiteStore) commit(ctx context.Context, meta model.CommitMeta, changes []Change, check func(context.Context) error) (string, error) {
	if len(changes) == 0 {
		return "", ErrEmptyCommit
	}

	normalized := make([]Change, len(changes))
	for i, c := range changes {
		clean, err := normalizePath(c.Path)
		if err != nil {
			return "", fmt.Errorf("%q: %w", c.Path, err)
		}
		c.Path = clean
		normalized[i] = c
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i].Path < normalized[j].Path })

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if check != nil {
		if err := check(ctx); err != nil {
			return "", err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var parent sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT sha FROM commits ORDER BY seq DESC LIMIT 1`).Scan(&parent)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("read head: %w", err)
	}

	for _, c := range normalized {
		if !c.Delete {
			continue
		}
		var deleted bool
		err := tx.QueryRowContext(ctx,
			`SELECT deleted FROM revisions WHERE path = ? ORDER BY commit_seq DESC LIMIT 1`, c.Path).Scan(&deleted)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && deleted) {
			return "", fmt.Errorf("delete %s: %w", c.Path, ErrNotFound)
		}
		if err != nil {
			return "", err
		}
	}

	now := s.now().UTC()
	sha := commitID(parent.String, meta, now, normalized)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO commits (sha, parent, message, author_name, author_email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sha, parent, meta.Message, meta.Name, meta.Email, now.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert commit: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return "", err
	}

	for _, c := range normalized {
		dir, base := path.Split(c.Path)
		var data []byte
		if !c.Delete {
			data = c.Data
			if data == nil {
				data = []byte{}
			}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO revisions (id, commit_seq, path, dir, base, data, deleted)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.newID(), seq, c.Path, strings.TrimSuffix(dir, "/"), base, data, c.Delete)
		if err != nil {
			return "", fmt.Errorf("insert revision: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return sha, nil
}

// commitID hashes a commit the way git names objects: 40 hex characters that
// change whenever the parent, metadata or any change differs.
func commitID(parent string, meta model.CommitMeta, at time.Time, changes []Change) string {
	h := sha1.New()
	fmt.Fprintf(h, "parent %s\nauthor %s <%s>\ntime %s\n\n%s\n",
		parent, meta.Name, meta.Email, at.Format(time.RFC3339Nano), meta.Message)
	for _, c := range changes {
		if c.Delete {
			fmt.Fprintf(h, "D %s\n", c.Path)
			continue
		}
		fmt.Fprintf(h, "M %s %x\n", c.Path, sha1.Sum(c.Data))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Head returns the newest commit id.
func (s *SQLiteStore) Head(ctx context.Context) (string, error) {
	var sha string
	err := s.db.QueryRowContext(ctx, `SELECT sha FROM commits ORDER BY seq DESC LIMIT 1`).Scan(&sha)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return sha, err
}

func (s *SQLiteStore) ListPages(ctx context.Context, p ListParams) ([]model.Page, error) {
	seq, err := s.seqFor(ctx, s.db, p.Version)
	if errors.Is(err, ErrNotFound) && p.Version == "" {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var f treeFilter
	if p.Dir != "" {
		d := normalizeDir(p.Dir)
		f.dir = &d
	}
	entries, err := s.tree(ctx, seq, f)
	if err != nil {
		return nil, err
	}

	var pages []model.Page
	for _, e := range entries {
		pg, ok := e.page()
		if !ok {
			continue
		}
		pages = append(pages, *pg)
		if p.Limit > 0 && len(pages) >= p.Limit {
			break
		}
	}
	return pages, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
