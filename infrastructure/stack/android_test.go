package stack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrag/gitrag/domain/chunk"
	"github.com/gitrag/gitrag/domain/index"
	"github.com/gitrag/gitrag/infrastructure/chunking"
	"github.com/gitrag/gitrag/internal/config"
)

const navGraphXML = `<?xml version="1.0" encoding="utf-8"?>
<navigation xmlns:android="http://schemas.android.com/apk/res/android"
    xmlns:app="http://schemas.android.com/apk/res-auto"
    android:id="@+id/main_nav"
    app:startDestination="@id/home">
    <fragment
        android:id="@+id/home"
        android:name="com.example.HomeFragment">
        <action
            android:id="@+id/action_home_to_detail"
            app:destination="@id/detail" />
    </fragment>
    <fragment
        android:id="@+id/detail"
        android:name="com.example.DetailFragment" />
</navigation>
`

const layoutXML = `<?xml version="1.0" encoding="utf-8"?>
<layout xmlns:android="http://schemas.android.com/apk/res/android">
    <data>
        <variable name="vm" type="com.example.VM" />
    </data>
    <LinearLayout android:id="@+id/container">
        <TextView android:id="@+id/title" />
        <fragment
            android:id="@+id/map"
            android:name="com.example.MapFragment" />
    </LinearLayout>
</layout>
`

const manifestXML = `<?xml version="1.0" encoding="utf-8"?>
<manifest xmlns:android="http://schemas.android.com/apk/res/android"
    package="com.example">
    <application android:name=".App">
        <activity android:name=".MainActivity">
            <intent-filter>
                <action android:name="android.intent.action.MAIN" />
            </intent-filter>
        </activity>
        <service android:name=".SyncService" />
    </application>
</manifest>
`

const mainActivityKt = `package com.example

class MainActivity : AppCompatActivity() {
    override fun onCreate(savedInstanceState: Bundle?) {
        super.onCreate(savedInstanceState)
        setContentView(R.layout.activity_main)
        findNavController().navigate(R.id.detail)
        startActivity(Intent(this, SettingsActivity::class.java))
        val user = UserApi.fetchUser(id)
    }
}
`

func edgeTargets(edges []index.Edge, edgeType index.EdgeType) []string {
	var out []string
	for _, e := range edges {
		if e.Type == edgeType {
			out = append(out, e.Target)
		}
	}
	return out
}

func TestNavEdges(t *testing.T) {
	info, ok := parseNav(navGraphXML)
	require.True(t, ok)
	assert.Equal(t, "@+id/main_nav", info.graphID)

	edges := navEdges(info)

	destinations := edgeTargets(edges, index.EdgeNavDestination)
	assert.ElementsMatch(t, []string{"home", "detail"}, destinations)

	for _, e := range edges {
		if e.Type == index.EdgeNavDestination && e.Target == "home" {
			assert.Equal(t, true, e.Meta["start"])
		}
	}

	actions := edgeTargets(edges, index.EdgeNavAction)
	require.Equal(t, []string{"detail"}, actions)
}

func TestLayoutParsing(t *testing.T) {
	info, ok := parseLayout(layoutXML)
	require.True(t, ok)

	assert.Equal(t, []string{"com.example.VM"}, info.viewModels)
	assert.Equal(t, []string{"com.example.MapFragment"}, info.fragments)
	assert.Contains(t, info.viewIDs, "@+id/container")

	edges := layoutEdges(info)
	assert.Equal(t, []string{"com.example.VM"}, edgeTargets(edges, index.EdgeUsesViewModel))
}

func TestManifestParsing(t *testing.T) {
	info, ok := parseManifest(manifestXML)
	require.True(t, ok)

	assert.Equal(t, ".App", info.appName)
	require.Len(t, info.components, 2)
	assert.Equal(t, "activity", info.components[0].kind)
	assert.Equal(t, ".MainActivity", info.components[0].name)
	assert.Equal(t, []string{"android.intent.action.MAIN"}, info.components[0].actions)
	assert.Equal(t, "service", info.components[1].kind)
	assert.Empty(t, info.components[1].actions)
}

func TestSourceEdges(t *testing.T) {
	edges := sourceEdges(mainActivityKt)

	assert.Equal(t, []string{"layout/activity_main.xml"}, edgeTargets(edges, index.EdgeBindsLayout))
	assert.ElementsMatch(t, []string{"detail", "settingsactivity"}, edgeTargets(edges, index.EdgeNavigatesTo))
	assert.Equal(t, []string{"userapi.fetchuser"}, edgeTargets(edges, index.EdgeCallsAPI))
}

func TestSourceEdges_JavaIntent(t *testing.T) {
	src := `startActivity(new Intent(this, DetailActivity.class));`
	edges := sourceEdges(src)
	assert.Equal(t, []string{"detailactivity"}, edgeTargets(edges, index.EdgeNavigatesTo))
}

func TestChunkPlugin_Supports(t *testing.T) {
	p := NewAndroidChunkPlugin()

	assert.True(t, p.Supports("app/src/main/res/layout/activity_main.xml", StackTypeAndroid))
	assert.True(t, p.Supports("app/src/main/res/navigation/main_nav.xml", ""))
	assert.True(t, p.Supports("app/src/main/AndroidManifest.xml", StackTypeAndroid))

	assert.False(t, p.Supports("app/src/main/res/values/strings.xml", StackTypeAndroid))
	assert.False(t, p.Supports("app/src/main/res/layout/activity_main.xml", "web_app"))
	assert.False(t, p.Supports("src/Main.kt", StackTypeAndroid))
}

func TestChunkPlugin_ExtraChunks(t *testing.T) {
	p := NewAndroidChunkPlugin()

	chunks, err := p.ExtraChunks(navGraphXML, "app/src/main/res/navigation/main_nav.xml", "repo1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	ch := chunks[0]
	assert.Equal(t, "android:navgraph:main_nav", ch.Symbol())
	assert.Equal(t, "xml", ch.Language())
	assert.Contains(t, ch.Content(), "destinations: @+id/home, @+id/detail")
	assert.Equal(t, 1, ch.Range().StartLine())

	// Garbage XML produces no synthetic chunk and no error.
	chunks, err = p.ExtraChunks("{not xml", "app/src/main/res/layout/a.xml", "repo1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestPayloadPlugin_LayoutChunk(t *testing.T) {
	p := NewAndroidPayloadPlugin()
	require.True(t, p.Supports("any", StackTypeAndroid))
	require.False(t, p.Supports("any", ""))

	rng := chunk.NewRange(1, 12, 0, len(layoutXML))
	ch := chunk.NewChunk("repo1", "app/src/main/res/layout/activity_main.xml",
		"range:0001-0012", chunking.GenericLanguage, layoutXML, chunk.GenericSigHash("range:0001-0012"), rng)
	payload := index.NewPayload(ch, "repo1", "main", "abc")

	require.NoError(t, p.Enrich(ch, &payload))

	assert.Equal(t, StackTypeAndroid, payload.StackType)
	assert.Equal(t, "activity_main", payload.LayoutFile)
	assert.Equal(t, "activity_main", payload.ScreenName)
	assert.Equal(t, []string{"layout"}, payload.Tags)
	assert.Equal(t, []string{"com.example.VM"}, edgeTargets(payload.Edges, index.EdgeUsesViewModel))
	assert.Contains(t, payload.StackMeta["view_ids"], "container")
}

func TestPayloadPlugin_ClassChunk(t *testing.T) {
	p := NewAndroidPayloadPlugin()

	rng := chunk.NewRange(3, 11, 20, len(mainActivityKt))
	ch := chunk.NewChunk("repo1", "app/src/main/java/com/example/MainActivity.kt",
		"class:MainActivity", "kotlin", mainActivityKt, chunk.SigHash("class_declaration", "MainActivity"), rng)
	payload := index.NewPayload(ch, "repo1", "main", "abc")

	require.NoError(t, p.Enrich(ch, &payload))

	assert.Equal(t, "activity", payload.ComponentType)
	assert.Equal(t, "mainactivity", payload.ScreenName)
	assert.Equal(t, []string{"layout/activity_main.xml"}, edgeTargets(payload.Edges, index.EdgeBindsLayout))
	assert.Contains(t, edgeTargets(payload.Edges, index.EdgeNavigatesTo), "detail")
}

func TestPayloadPlugin_SyntheticChunkStackText(t *testing.T) {
	p := NewAndroidPayloadPlugin()

	summary := "<navigation ... />\ndestinations: @+id/home"
	rng := chunk.NewRange(1, 2, 0, len(summary))
	ch := chunk.NewChunk("repo1", "app/src/main/res/navigation/main_nav.xml",
		"android:navgraph:main_nav", "xml", summary, chunk.GenericSigHash("android:navgraph:main_nav"), rng)
	payload := index.NewPayload(ch, "repo1", "main", "abc")

	require.NoError(t, p.Enrich(ch, &payload))

	assert.Equal(t, summary, payload.StackText)
	assert.Equal(t, "main_nav", payload.NavGraphID)
	assert.Equal(t, []string{"navgraph"}, payload.Tags)
}

// End-to-end through the chunker with both plugins, per the Android
// indexing scenario.
func TestAndroidChunkingPipeline(t *testing.T) {
	chunker := chunking.NewChunker(config.NewChunkingConfig(), nil, NewAndroidChunkPlugin())

	chunks := chunker.Chunks(context.Background(), navGraphXML,
		"app/src/main/res/navigation/main_nav.xml", "repo1", StackTypeAndroid)

	var synthetic *chunk.Chunk
	for i := range chunks {
		if chunks[i].Symbol() == "android:navgraph:main_nav" {
			synthetic = &chunks[i]
		}
	}
	require.NotNil(t, synthetic)

	payload := index.NewPayload(*synthetic, "repo1", "main", "abc")
	require.NoError(t, NewAndroidPayloadPlugin().Enrich(*synthetic, &payload))

	// The summary point carries the graph's structural edges and text.
	assert.ElementsMatch(t, []string{"home", "detail"},
		edgeTargets(payload.Edges, index.EdgeNavDestination))
	assert.Equal(t, []string{"detail"}, edgeTargets(payload.Edges, index.EdgeNavAction))
	assert.Equal(t, "main_nav", payload.NavGraphID)
	assert.Equal(t, synthetic.Content(), payload.StackText)
}
