package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrag/gitrag/domain/chunk"
	"github.com/gitrag/gitrag/domain/index"
)

func TestNewQueryDefaults(t *testing.T) {
	q := NewQuery("initialize context function")

	assert.Equal(t, "initialize context function", q.Text())
	assert.Equal(t, DefaultLimit, q.Limit())
	assert.Empty(t, q.Branch())
	assert.Empty(t, q.Tags())
}

func TestNewQueryOptions(t *testing.T) {
	q := NewQuery("controller",
		WithLimit(1),
		WithBranch("develop"),
		WithRepo("repo1"),
		WithScreenName("main"),
		WithTags([]string{"activity", "fragment"}),
	)

	assert.Equal(t, 1, q.Limit())
	assert.Equal(t, "develop", q.Branch())
	assert.Equal(t, "repo1", q.Repo())
	assert.Equal(t, "main", q.ScreenName())
	assert.Equal(t, []string{"activity", "fragment"}, q.Tags())
}

func TestWithLimitIgnoresNonPositive(t *testing.T) {
	q := NewQuery("x", WithLimit(0))
	assert.Equal(t, DefaultLimit, q.Limit())
}

func TestFilterForAlwaysPinsLatestAndBranch(t *testing.T) {
	f := FilterFor(NewQuery("x"), "main")

	conds := f.Conditions()
	require.Len(t, conds, 2)
	assert.Equal(t, "is_latest", conds[0].Key())
	assert.Equal(t, true, conds[0].Value())
	assert.Equal(t, "branch", conds[1].Key())
	assert.Equal(t, "main", conds[1].Value())
	assert.Empty(t, f.TagsAny())
}

func TestFilterForAddsProvidedFields(t *testing.T) {
	q := NewQuery("x",
		WithBranch("develop"),
		WithRepo("repo1"),
		WithStackType("android_app"),
		WithComponentType("activity"),
		WithScreenName("detail"),
		WithTags([]string{"nav", "activity", "nav"}),
	)

	f := FilterFor(q, "main")

	keys := make([]string, 0)
	for _, c := range f.Conditions() {
		keys = append(keys, c.Key())
	}
	assert.Equal(t, []string{"is_latest", "branch", "repo", "stack_type", "component_type", "screen_name"}, keys)
	assert.Equal(t, "develop", f.Conditions()[1].Value())
	assert.Equal(t, []string{"activity", "nav"}, f.TagsAny())
}

func testPayload() index.Payload {
	c := chunk.NewChunk("repo1", "file_b.py", chunk.ClassSymbol("Controller"), "python",
		"class Controller: pass", chunk.SigHash("class_definition", "Controller"),
		chunk.NewRange(1, 1, 0, 22))
	return index.NewPayload(c, "repo1", "main", "abc123")
}

func TestHitWithTexts(t *testing.T) {
	h := NewHit("id-1", 0.92, testPayload())
	assert.Empty(t, h.BlockText())

	hydrated := h.WithTexts("class Controller:\n    def run(self): pass\n", "def run(self): pass\n")
	assert.Equal(t, "def run(self): pass\n", hydrated.FocusText())
	assert.Empty(t, h.BlockText())
}
