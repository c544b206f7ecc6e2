package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/wikiserve/internal/model"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search finds latest pages whose content contains query, case-insensitively.
// Each hit carries the number of lines that match. Hits come back in path
// order; ranking is the caller's concern.
func (s *SQLiteStore) Search(ctx context.Context, query string) ([]model.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	seq, err := s.seqFor(ctx, s.db, "")
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// SQLite's LIKE only folds ASCII case, so it can only narrow the scan
	// for ASCII queries. Everything else is matched by countLines alone.
	var f treeFilter
	if isASCII(query) {
		f.like = "%" + likeEscaper.Replace(query) + "%"
	}
	entries, err := s.tree(ctx, seq, f)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	needle := strings.ToLower(query)
	var hits []model.SearchHit
	for _, e := range entries {
		pg, ok := e.page()
		if !ok {
			continue
		}
		count := countLines(pg.RawData, needle)
		if count == 0 {
			continue
		}
		hits = append(hits, model.SearchHit{Name: pg.URLPath(), Count: count})
	}
	return hits, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// countLines counts the lines of text containing needle, which must
// already be lower-cased.
func countLines(text, needle string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(strings.ToLower(line), needle) {
			n++
		}
	}
	return n
}
