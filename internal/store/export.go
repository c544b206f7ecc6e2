package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/rcliao/wikiserve/internal/model"
)

// ExportedChange is one path of an exported commit. Content that is not
// valid UTF-8 is base64 encoded and Encoding says so.
type ExportedChange struct {
	Path     string `json:"path" yaml:"path"`
	Content  string `json:"content,omitempty" yaml:"content,omitempty"`
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Delete   bool   `json:"delete,omitempty" yaml:"delete,omitempty"`
}

// ExportedCommit is a commit with its full changes, in replay order.
type ExportedCommit struct {
	model.Commit `yaml:",inline"`
	Changes      []ExportedChange `json:"changes" yaml:"changes"`
}

// ExportAll returns every commit oldest first with the content it wrote.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]ExportedCommit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, sha, parent, message, author_name, author_email, created_at
		 FROM commits ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExportedCommit
	var seqs []int64
	for rows.Next() {
		var seq int64
		c, err := scanCommit(rows, &seq)
		if err != nil {
			return nil, err
		}
		out = append(out, ExportedCommit{Commit: c})
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i, seq := range seqs {
		changes, err := s.exportChanges(ctx, seq)
		if err != nil {
			return nil, err
		}
		out[i].Changes = changes
	}
	return out, nil
}

func (s *SQLiteStore) exportChanges(ctx context.Context, seq int64) ([]ExportedChange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, data, deleted FROM revisions WHERE commit_seq = ? ORDER BY path`, seq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []ExportedChange
	for rows.Next() {
		var c ExportedChange
		var data []byte
		if err := rows.Scan(&c.Path, &data, &c.Delete); err != nil {
			return nil, err
		}
		if !c.Delete {
			if utf8.Valid(data) {
				c.Content = string(data)
			} else {
				c.Content = base64.StdEncoding.EncodeToString(data)
				c.Encoding = "base64"
			}
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// Import replays exported commits in order. Commit ids are not preserved:
// each replayed commit gets a new id chained onto the current head.
func (s *SQLiteStore) Import(ctx context.Context, commits []ExportedCommit) (int, error) {
	imported := 0
	for _, ec := range commits {
		changes := make([]Change, 0, len(ec.Changes))
		for _, c := range ec.Changes {
			ch := Change{Path: c.Path, Delete: c.Delete}
			if !c.Delete {
				switch c.Encoding {
				case "":
					ch.Data = []byte(c.Content)
				case "base64":
					data, err := base64.StdEncoding.DecodeString(c.Content)
					if err != nil {
						return imported, fmt.Errorf("decode %s: %w", c.Path, err)
					}
					ch.Data = data
				default:
					return imported, fmt.Errorf("unknown encoding %q for %s", c.Encoding, c.Path)
				}
			}
			changes = append(changes, ch)
		}

		meta := model.CommitMeta{Message: ec.Message, Author: ec.Author}
		if _, err := s.Commit(ctx, meta, changes); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
