package store

import (
	"context"
	"os"

	"github.com/rcliao/wikiserve/internal/model"
)

// Stats holds database statistics.
type Stats struct {
	DBPath      string     `json:"db_path"`
	DBSizeBytes int64      `json:"db_size_bytes"`
	Commits     int        `json:"commits"`
	Revisions   int        `json:"revisions"`
	LivePaths   int        `json:"live_paths"`
	Pages       int        `json:"pages"`
	Head        string     `json:"head,omitempty"`
	Dirs        []DirStats `json:"dirs"`
}

// DirStats holds per-directory page counts.
type DirStats struct {
	Dir   string `json:"dir"`
	Pages int    `json:"pages"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path}

	// DB file size
	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commits`).Scan(&st.Commits)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM revisions`).Scan(&st.Revisions)
	st.Head, _ = s.Head(ctx)

	seq, err := s.seqFor(ctx, s.db, "")
	if err != nil {
		return st, nil
	}
	entries, err := s.tree(ctx, seq, treeFilter{})
	if err != nil {
		return st, err
	}

	st.LivePaths = len(entries)
	perDir := map[string]int{}
	var order []string
	for _, e := range entries {
		if _, ok := model.FormatForPath(e.base); !ok {
			continue
		}
		st.Pages++
		d := e.dir
		if d == "" {
			d = "/"
		}
		if _, seen := perDir[d]; !seen {
			order = append(order, d)
		}
		perDir[d]++
	}
	for _, d := range order {
		st.Dirs = append(st.Dirs, DirStats{Dir: d, Pages: perDir[d]})
	}

	return st, nil
}
