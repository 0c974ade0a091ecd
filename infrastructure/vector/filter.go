package vector

import (
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/gitrag/gitrag/domain/search"
)

// buildFilter translates the store-neutral filter into a Qdrant filter.
// Equality conditions become must-clauses; the tag set becomes one any-of
// keyword match.
func buildFilter(f search.Filter) *qdrant.Filter {
	var must []*qdrant.Condition

	for _, c := range f.Conditions() {
		must = append(must, matchCondition(c.Key(), c.Value()))
	}
	if tags := f.TagsAny(); len(tags) > 0 {
		must = append(must, qdrant.NewMatchKeywords("tags", tags...))
	}

	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

func matchCondition(key string, value any) *qdrant.Condition {
	switch v := value.(type) {
	case bool:
		return qdrant.NewMatchBool(key, v)
	case string:
		return qdrant.NewMatch(key, v)
	case int:
		return qdrant.NewMatchInt(key, int64(v))
	case int64:
		return qdrant.NewMatchInt(key, v)
	default:
		return qdrant.NewMatch(key, fmt.Sprintf("%v", v))
	}
}
