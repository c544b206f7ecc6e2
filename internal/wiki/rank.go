package wiki

import (
	"context"
	"sort"

	"github.com/rcliao/wikiserve/internal/model"
)

// Rank orders search hits by match count, highest first, then by name. The
// input is left untouched.
func Rank(hits []model.SearchHit) []model.SearchHit {
	out := make([]model.SearchHit, len(hits))
	copy(out, hits)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Searcher is the part of the store that answers text queries.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SearchHit, error)
}

// Search runs query against s and returns the ranked hits.
func Search(ctx context.Context, s Searcher, query string) ([]model.SearchHit, error) {
	hits, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return Rank(hits), nil
}
