// Package search provides the query-side domain model: search queries,
// store-neutral filters, and result hits.
package search

// DefaultLimit is the number of hits returned when no limit is requested.
const DefaultLimit = 5

// Query is a semantic search request. Immutable value object built with
// functional options.
type Query struct {
	text          string
	limit         int
	branch        string
	repo          string
	stackType     string
	componentType string
	screenName    string
	tags          []string
}

// QueryOption configures a Query.
type QueryOption func(*Query)

// WithLimit caps the number of hits.
func WithLimit(limit int) QueryOption {
	return func(q *Query) {
		if limit > 0 {
			q.limit = limit
		}
	}
}

// WithBranch restricts hits to one branch.
func WithBranch(branch string) QueryOption {
	return func(q *Query) { q.branch = branch }
}

// WithRepo restricts hits to one repository.
func WithRepo(repo string) QueryOption {
	return func(q *Query) { q.repo = repo }
}

// WithStackType restricts hits to one stack type.
func WithStackType(stackType string) QueryOption {
	return func(q *Query) { q.stackType = stackType }
}

// WithComponentType restricts hits to one component type.
func WithComponentType(componentType string) QueryOption {
	return func(q *Query) { q.componentType = componentType }
}

// WithScreenName restricts hits to one screen.
func WithScreenName(screenName string) QueryOption {
	return func(q *Query) { q.screenName = screenName }
}

// WithTags requires at least one of the given tags.
func WithTags(tags []string) QueryOption {
	return func(q *Query) {
		copied := make([]string, len(tags))
		copy(copied, tags)
		q.tags = copied
	}
}

// NewQuery creates a Query for the given text.
func NewQuery(text string, opts ...QueryOption) Query {
	q := Query{text: text, limit: DefaultLimit}
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// Text returns the query text.
func (q Query) Text() string { return q.text }

// Limit returns the maximum number of hits.
func (q Query) Limit() int { return q.limit }

// Branch returns the branch restriction, or "".
func (q Query) Branch() string { return q.branch }

// Repo returns the repository restriction, or "".
func (q Query) Repo() string { return q.repo }

// StackType returns the stack-type restriction, or "".
func (q Query) StackType() string { return q.stackType }

// ComponentType returns the component-type restriction, or "".
func (q Query) ComponentType() string { return q.componentType }

// ScreenName returns the screen restriction, or "".
func (q Query) ScreenName() string { return q.screenName }

// Tags returns the any-of tag restriction.
func (q Query) Tags() []string {
	out := make([]string, len(q.tags))
	copy(out, q.tags)
	return out
}
