package service

import (
	"context"
	"log/slog"

	"github.com/gitrag/gitrag/domain/chunk"
	"github.com/gitrag/gitrag/domain/diff"
	"github.com/gitrag/gitrag/domain/index"
	"github.com/gitrag/gitrag/domain/repository"
	"github.com/gitrag/gitrag/domain/search"
	"github.com/gitrag/gitrag/infrastructure/chunking"
	"github.com/gitrag/gitrag/infrastructure/git"
	"github.com/gitrag/gitrag/infrastructure/persistence"
	"github.com/gitrag/gitrag/infrastructure/vector"
)

// eventBuffer bounds how far an indexing run can get ahead of a slow stream
// consumer.
const eventBuffer = 16

// Indexer runs full and incremental indexing for one repository, streaming
// progress events.
type Indexer struct {
	repoID         string
	stackType      string
	branch         string
	gateway        git.Gateway
	chunker        *chunking.Chunker
	embedder       search.Embedder
	store          VectorStore
	registry       repository.Registry
	state          *persistence.StateFile
	payloadPlugins []chunking.PayloadPlugin
	logger         *slog.Logger
}

// IndexerDeps bundles the collaborators of one indexing run.
type IndexerDeps struct {
	Gateway        git.Gateway
	Chunker        *chunking.Chunker
	Embedder       search.Embedder
	Store          VectorStore
	Registry       repository.Registry
	State          *persistence.StateFile
	PayloadPlugins []chunking.PayloadPlugin
	Logger         *slog.Logger
}

// NewIndexer creates an Indexer for one repository.
func NewIndexer(repoID, stackType, branch string, deps IndexerDeps) *Indexer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		repoID:         repoID,
		stackType:      stackType,
		branch:         branch,
		gateway:        deps.Gateway,
		chunker:        deps.Chunker,
		embedder:       deps.Embedder,
		store:          deps.Store,
		registry:       deps.Registry,
		state:          deps.State,
		payloadPlugins: deps.PayloadPlugins,
		logger:         logger.With(slog.String("repo", repoID)),
	}
}

// FullIndex indexes the entire tree at HEAD. The returned channel is closed
// after the terminal event.
func (ix *Indexer) FullIndex(ctx context.Context) <-chan index.Event {
	events := make(chan index.Event, eventBuffer)
	go func() {
		defer close(events)
		ix.runFull(ctx, events)
	}()
	return events
}

// Update indexes the changes since the last indexed commit: commit mode when
// HEAD moved, working-tree mode otherwise. The returned channel is closed
// after the terminal event.
func (ix *Indexer) Update(ctx context.Context) <-chan index.Event {
	events := make(chan index.Event, eventBuffer)
	go func() {
		defer close(events)
		ix.runUpdate(ctx, events)
	}()
	return events
}

func (ix *Indexer) runFull(ctx context.Context, events chan<- index.Event) {
	run := index.NewRun(index.RunModeFull)
	ix.persistRun(ctx, run)

	head, err := ix.gateway.Head(ctx)
	if err != nil {
		ix.fail(ctx, events, run, "", err)
		return
	}

	files, err := ix.gateway.ListFiles(ctx, head)
	if err != nil {
		ix.fail(ctx, events, run, head, err)
		return
	}

	total := len(files)
	processed := 0
	events <- index.StartedEvent("Starting full index", total, head)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			ix.fail(ctx, events, run, head, err)
			return
		}

		src, ok, err := ix.gateway.ShowFile(ctx, head, path)
		if err != nil {
			ix.fail(ctx, events, run, head, err)
			return
		}
		processed++

		if !ok || src == "" {
			events <- index.ProcessingEvent("Skipped missing file: "+path, path, total, processed, head)
			continue
		}

		chunks := ix.chunker.Chunks(ctx, src, path, ix.repoID, ix.stackType)
		if len(chunks) == 0 {
			events <- index.ProcessingEvent("Skipped empty file: "+path, path, total, processed, head)
			continue
		}

		if err := ix.embedAndUpsert(ctx, chunks, head); err != nil {
			ix.fail(ctx, events, run, head, err)
			return
		}

		run = run.WithProgress(path, processed, total)
		ix.persistRun(ctx, run)
		events <- index.ProcessingEvent("Processed file: "+path, path, total, processed, head)
	}

	ix.advance(ctx, head)
	ix.persistRun(ctx, run.Completed())
	events <- index.CompletedEvent("Full index completed", total, processed, head)
}

func (ix *Indexer) runUpdate(ctx context.Context, events chan<- index.Event) {
	run := index.NewRun(index.RunModeUpdate)
	ix.persistRun(ctx, run)

	head, err := ix.gateway.Head(ctx)
	if err != nil {
		ix.fail(ctx, events, run, "", err)
		return
	}

	base, err := ix.baseCommit(ctx)
	if err != nil {
		ix.fail(ctx, events, run, head, err)
		return
	}
	if base == "" {
		ix.persistRun(ctx, run.Failed("no base commit"))
		events <- index.ErrorEvent("No base commit found; run full index first.", head)
		return
	}

	workingTree := base == head
	var fileDiffs []diff.FileDiff
	commitSHA := head

	if workingTree {
		statusOut, err := ix.gateway.StatusPorcelain(ctx)
		if err != nil {
			ix.fail(ctx, events, run, head, err)
			return
		}
		paths := git.ChangedPaths(git.ParsePorcelain(statusOut))
		if len(paths) == 0 {
			ix.persistRun(ctx, run.Noop())
			events <- index.NoopEvent("No local changes detected", head)
			return
		}
		diffText, err := ix.gateway.DiffWorking(ctx, base, paths)
		if err != nil {
			ix.fail(ctx, events, run, head, err)
			return
		}
		fileDiffs = diff.ParseUnifiedDiff(diffText)
		// Working-tree edits are recorded against the base revision.
		commitSHA = base
	} else {
		diffText, err := ix.gateway.DiffUnifiedZero(ctx, base, head)
		if err != nil {
			ix.fail(ctx, events, run, head, err)
			return
		}
		fileDiffs = diff.ParseUnifiedDiff(diffText)
		if len(fileDiffs) == 0 {
			ix.persistRun(ctx, run.Noop())
			events <- index.NoopEvent("No changes detected between commits", head)
			return
		}
	}

	if len(fileDiffs) == 0 {
		ix.persistRun(ctx, run.Noop())
		events <- index.NoopEvent("No local changes detected", head)
		return
	}

	total := len(fileDiffs)
	processed := 0
	events <- index.StartedEvent("Starting incremental index", total, head)

	for _, fd := range fileDiffs {
		if err := ctx.Err(); err != nil {
			ix.fail(ctx, events, run, head, err)
			return
		}
		processed++

		if fd.IsDeleted() {
			ix.removeDeletedFile(ctx, base, fd.Path())
			events <- index.ProcessingEvent("Removed deleted file: "+fd.Path(), fd.Path(), total, processed, head)
			continue
		}

		headRef := head
		if workingTree {
			headRef = ""
		}
		headSrc, ok, err := ix.gateway.ShowFile(ctx, headRef, fd.Path())
		if err != nil {
			ix.fail(ctx, events, run, head, err)
			return
		}
		if !ok || headSrc == "" {
			events <- index.ProcessingEvent("Skipped missing file: "+fd.Path(), fd.Path(), total, processed, head)
			continue
		}

		if err := ix.updateFile(ctx, fd, headSrc, base, commitSHA); err != nil {
			ix.fail(ctx, events, run, head, err)
			return
		}

		run = run.WithProgress(fd.Path(), processed, total)
		ix.persistRun(ctx, run)
		events <- index.ProcessingEvent("Processed file: "+fd.Path(), fd.Path(), total, processed, head)
	}

	if !workingTree {
		ix.advance(ctx, head)
	}
	ix.persistRun(ctx, run.Completed())
	events <- index.CompletedEvent("Incremental index completed", total, processed, head)
}

// updateFile classifies each head chunk of one changed file and applies the
// resulting writes: embed+upsert for new/changed chunks, a payload patch for
// position-only moves.
func (ix *Indexer) updateFile(ctx context.Context, fd diff.FileDiff, headSrc, base, commitSHA string) error {
	headChunks := ix.chunker.Chunks(ctx, headSrc, fd.Path(), ix.repoID, ix.stackType)
	if len(headChunks) == 0 {
		return nil
	}

	baseSrc, _, err := ix.gateway.ShowFile(ctx, base, fd.Path())
	if err != nil {
		return err
	}

	var toEmbed []chunk.Chunk
	type move struct {
		logicalID string
		rng       chunk.Range
	}
	var moves []move

	for _, c := range headChunks {
		latest, err := ix.store.LatestByLogical(ctx, c.LogicalID())
		if err != nil {
			return err
		}
		if len(latest) == 0 {
			toEmbed = append(toEmbed, c)
			continue
		}

		prev := latest[0].Payload
		if prev.ContentHash != c.ContentHash() {
			toEmbed = append(toEmbed, c)
			continue
		}

		prevRange := chunk.NewRange(prev.Lines[0], prev.Lines[1], prev.ByteRange[0], prev.ByteRange[1])
		translated := diff.Translate(prevRange, fd.Hunks())
		if translated.NeedsRelocalize() {
			relocated, ok := ix.relocate(prev, baseSrc, headSrc)
			if !ok {
				// Unresolved positions are not trusted: re-embed.
				toEmbed = append(toEmbed, c)
				continue
			}
			translated = relocated
		}
		moves = append(moves, move{logicalID: c.LogicalID(), rng: translated})
	}

	if len(toEmbed) > 0 {
		if err := ix.embedAndUpsert(ctx, toEmbed, commitSHA); err != nil {
			return err
		}
	}
	for _, m := range moves {
		if err := ix.store.SetLines(ctx, m.logicalID, m.rng.StartLine(), m.rng.EndLine()); err != nil {
			return err
		}
	}
	return nil
}

// relocate probes the base byte slice of an unchanged chunk in the head
// source, exact match first, hash window second.
func (ix *Indexer) relocate(prev index.Payload, baseSrc, headSrc string) (chunk.Range, bool) {
	start, end := prev.ByteRange[0], prev.ByteRange[1]
	if baseSrc == "" || start < 0 || end <= start || end > len(baseSrc) {
		return chunk.Range{}, false
	}
	slice := baseSrc[start:end]

	if s, e, ok := diff.ExactRelocate(slice, headSrc); ok {
		return chunk.NewRange(s, e, start, end), true
	}
	if s, e, ok := diff.FuzzyRelocate(slice, headSrc, 0); ok {
		return chunk.NewRange(s, e, start, end), true
	}
	return chunk.Range{}, false
}

// embedAndUpsert embeds one file's chunks and writes them as a single batch,
// demoting any previous latest point first.
func (ix *Indexer) embedAndUpsert(ctx context.Context, chunks []chunk.Chunk, commitSHA string) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content()
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}

	points := make([]vector.Point, 0, len(chunks))
	for i, c := range chunks {
		latest, err := ix.store.LatestByLogical(ctx, c.LogicalID())
		if err != nil {
			return err
		}
		if demoteNeeded(latest, c) {
			if err := ix.store.DemoteLatest(ctx, c.LogicalID()); err != nil {
				return err
			}
		}

		payload := ix.buildPayload(c, commitSHA)
		points = append(points, vector.Point{
			ID:      payload.PointID,
			Vector:  vectors[i],
			Payload: payload,
		})
	}
	return ix.store.Upsert(ctx, points)
}

// demoteNeeded reports whether an existing latest point must be demoted
// before upserting the chunk. Re-upserting identical content hits the same
// deterministic point id, so demotion would orphan the chunk.
func demoteNeeded(latest []vector.StoredPoint, c chunk.Chunk) bool {
	for _, p := range latest {
		if p.ID != c.PointID() {
			return true
		}
	}
	return false
}

func (ix *Indexer) buildPayload(c chunk.Chunk, commitSHA string) index.Payload {
	payload := index.NewPayload(c, ix.repoID, ix.branch, commitSHA)
	for _, plugin := range ix.payloadPlugins {
		if !plugin.Supports(c.Path(), ix.stackType) {
			continue
		}
		if err := plugin.Enrich(c, &payload); err != nil {
			ix.logger.Warn("payload plugin failed",
				slog.String("path", c.Path()), slog.Any("error", err))
		}
	}
	return payload
}

// removeDeletedFile re-chunks the base revision of a deleted file and drops
// the latest point of every chunk. Best effort: failures are logged, the run
// continues.
func (ix *Indexer) removeDeletedFile(ctx context.Context, base, path string) {
	baseSrc, ok, err := ix.gateway.ShowFile(ctx, base, path)
	if err != nil || !ok || baseSrc == "" {
		if err != nil {
			ix.logger.Error("failed to read deleted file at base",
				slog.String("path", path), slog.Any("error", err))
		}
		return
	}

	for _, c := range ix.chunker.Chunks(ctx, baseSrc, path, ix.repoID, ix.stackType) {
		if err := ix.store.DeleteLatestByLogical(ctx, c.LogicalID()); err != nil {
			ix.logger.Error("failed to remove deleted chunk",
				slog.String("logical_id", c.LogicalID()), slog.Any("error", err))
		}
	}
}

// baseCommit reads the last indexed commit, preferring the state-file cache
// and falling back to the registry.
func (ix *Indexer) baseCommit(ctx context.Context) (string, error) {
	if ix.state != nil {
		base, err := ix.state.Get(ix.repoID)
		if err == nil && base != "" {
			return base, nil
		}
	}
	record, err := ix.registry.Get(ctx, ix.repoID)
	if err == repository.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return record.LastIndexedCommit(), nil
}

func (ix *Indexer) advance(ctx context.Context, head string) {
	if ix.state != nil {
		if err := ix.state.Set(ix.repoID, head); err != nil {
			ix.logger.Warn("failed to write state file", slog.Any("error", err))
		}
	}
	if err := ix.registry.UpdateLastIndexedCommit(ctx, ix.repoID, head); err != nil {
		ix.logger.Warn("failed to update registry", slog.Any("error", err))
	}
}

func (ix *Indexer) persistRun(ctx context.Context, run index.Run) {
	if err := ix.registry.UpdateIndexStatus(ctx, ix.repoID, run); err != nil {
		ix.logger.Warn("failed to persist run status", slog.Any("error", err))
	}
}

func (ix *Indexer) fail(ctx context.Context, events chan<- index.Event, run index.Run, head string, err error) {
	ix.logger.Error("indexing run failed", slog.Any("error", err))
	ix.persistRun(ctx, run.Failed(err.Error()))
	events <- index.ErrorEvent(err.Error(), head)
}
