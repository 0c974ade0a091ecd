package search

import "sort"

// Condition is one equality predicate over a payload key.
type Condition struct {
	key   string
	value any
}

// Key returns the payload key.
func (c Condition) Key() string { return c.key }

// Value returns the required value.
func (c Condition) Value() any { return c.value }

// Filter is a store-neutral AND-filter: every equality condition must hold,
// and when a tag set is present at least one tag must match.
type Filter struct {
	conditions []Condition
	tagsAny    []string
}

// NewFilter creates an empty Filter.
func NewFilter() Filter { return Filter{} }

// MustEqual returns a copy with an added equality condition.
func (f Filter) MustEqual(key string, value any) Filter {
	conditions := make([]Condition, len(f.conditions), len(f.conditions)+1)
	copy(conditions, f.conditions)
	f.conditions = append(conditions, Condition{key: key, value: value})
	return f
}

// AnyTag returns a copy requiring at least one of the given tags. Tags are
// deduplicated and sorted so equal filters compare equal.
func (f Filter) AnyTag(tags []string) Filter {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	sorted := make([]string, 0, len(set))
	for t := range set {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)
	f.tagsAny = sorted
	return f
}

// Conditions returns the equality conditions in insertion order.
func (f Filter) Conditions() []Condition {
	out := make([]Condition, len(f.conditions))
	copy(out, f.conditions)
	return out
}

// TagsAny returns the any-of tag set.
func (f Filter) TagsAny() []string {
	out := make([]string, len(f.tagsAny))
	copy(out, f.tagsAny)
	return out
}

// FilterFor builds the retrieval filter for a query: only latest points, on
// the given branch, narrowed by each provided field.
func FilterFor(q Query, defaultBranch string) Filter {
	branch := q.Branch()
	if branch == "" {
		branch = defaultBranch
	}
	f := NewFilter().
		MustEqual("is_latest", true).
		MustEqual("branch", branch)

	if q.Repo() != "" {
		f = f.MustEqual("repo", q.Repo())
	}
	if q.StackType() != "" {
		f = f.MustEqual("stack_type", q.StackType())
	}
	if q.ComponentType() != "" {
		f = f.MustEqual("component_type", q.ComponentType())
	}
	if q.ScreenName() != "" {
		f = f.MustEqual("screen_name", q.ScreenName())
	}
	if tags := q.Tags(); len(tags) > 0 {
		f = f.AnyTag(tags)
	}
	return f
}
