package merge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T, opts Options) *Writer {
	t.Helper()
	if opts.now == nil {
		opts.now = func() time.Time {
			return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
		}
	}
	w, err := NewWriter(opts)
	require.NoError(t, err)
	return w
}

func stableDoc() string {
	return strings.Repeat("shared rule line that does not change\n", 30)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNewWriterRejectsBadThreshold(t *testing.T) {
	for _, threshold := range []float64{-0.1, 1.01, 2} {
		_, err := NewWriter(Options{Threshold: threshold})
		assert.Error(t, err, "threshold %v", threshold)
	}
	w, err := NewWriter(Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, w.opts.Threshold)
}

func TestApplyCreatesMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules", "react.md")
	w := newTestWriter(t, Options{MergeMode: true})

	rec := w.Apply(path, "# React rules\n")
	assert.Equal(t, ActionCreated, rec.Action)
	assert.NoError(t, rec.Err)
	assert.Equal(t, "# React rules\n", readFile(t, path))
}

func TestApplySkipsExistingWithoutMergeMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.md")
	require.NoError(t, os.WriteFile(path, []byte("user content"), 0o644))

	w := newTestWriter(t, Options{})
	rec := w.Apply(path, "incoming")
	assert.Equal(t, ActionSkipped, rec.Action)
	assert.Equal(t, "user content", readFile(t, path))
}

func TestApplyForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.md")
	require.NoError(t, os.WriteFile(path, []byte("user content"), 0o644))

	w := newTestWriter(t, Options{Force: true})
	rec := w.Apply(path, "incoming")
	assert.Equal(t, ActionModified, rec.Action)
	assert.Equal(t, "incoming", readFile(t, path))
}

func TestApplyIdenticalContentMerges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.md")
	doc := "# Rule\nUse hooks."
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	w := newTestWriter(t, Options{MergeMode: true})
	rec := w.Apply(path, doc)
	assert.Equal(t, ActionMerged, rec.Action)
	require.NotNil(t, rec.MergeInfo)
	assert.True(t, rec.MergeInfo.AutoMerged)
	assert.Equal(t, 1.0, rec.MergeInfo.Similarity)
	assert.Equal(t, doc, readFile(t, path))
}

func TestApplyDivergentWithoutResolverSkips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.md")
	require.NoError(t, os.WriteFile(path, []byte("hand-written local notes\nno overlap\n"), 0o644))

	w := newTestWriter(t, Options{MergeMode: true})
	rec := w.Apply(path, "# Generated\nentirely different template output\n")
	assert.Equal(t, ActionSkipped, rec.Action)
	require.NotNil(t, rec.MergeInfo)
	assert.True(t, rec.MergeInfo.HadConflict)
	assert.Equal(t, "hand-written local notes\nno overlap\n", readFile(t, path))
}

func TestApplyResolverAcceptIncoming(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.md")
	require.NoError(t, os.WriteFile(path, []byte("old divergent body\n"), 0o644))

	var got Conflict
	w := newTestWriter(t, Options{
		MergeMode: true,
		Resolve: func(c Conflict) Resolution {
			got = c
			return Resolution{Kind: AcceptIncoming}
		},
	})
	rec := w.Apply(path, "completely new generated text\n")
	assert.Equal(t, ActionMerged, rec.Action)
	assert.Equal(t, "completely new generated text\n", readFile(t, path))

	assert.Equal(t, path, got.Path)
	assert.Equal(t, "old divergent body\n", got.Original)
	require.NotNil(t, got.Diff)
	assert.NotEmpty(t, got.Diff.Hunks)
}

func TestApplyResolverKeepOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.md")
	require.NoError(t, os.WriteFile(path, []byte("keep me\n"), 0o644))

	w := newTestWriter(t, Options{
		MergeMode: true,
		Resolve:   func(Conflict) Resolution { return Resolution{Kind: KeepOriginal} },
	})
	rec := w.Apply(path, "replace with this\n")
	assert.Equal(t, ActionSkipped, rec.Action)
	assert.Equal(t, "keep me\n", readFile(t, path))
}

func TestApplyResolverManualContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.md")
	require.NoError(t, os.WriteFile(path, []byte("original\n"), 0o644))

	w := newTestWriter(t, Options{
		MergeMode: true,
		Resolve: func(Conflict) Resolution {
			return Resolution{Kind: Manual, Content: "hand-merged result\n"}
		},
	})
	rec := w.Apply(path, "incoming that differs a lot from the original\n")
	assert.Equal(t, ActionMerged, rec.Action)
	assert.Equal(t, "hand-merged result\n", readFile(t, path))
}

func TestApplyBackupBeforeOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.md")
	original := stableDoc()
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	w := newTestWriter(t, Options{MergeMode: true, Backup: true})
	rec := w.Apply(path, stableDoc()+"One more line.\n")
	require.Equal(t, ActionMerged, rec.Action)
	require.NotEmpty(t, rec.BackupPath)
	assert.True(t, strings.HasSuffix(rec.BackupPath, ".bak"))
	assert.Equal(t, original, readFile(t, rec.BackupPath))
}

func TestApplyBackupNeverOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.md")
	require.NoError(t, os.WriteFile(path, []byte(stableDoc()), 0o644))

	w := newTestWriter(t, Options{MergeMode: true, Backup: true})

	first := w.Apply(path, stableDoc()+"plus\n")
	require.Equal(t, ActionMerged, first.Action)
	second := w.Apply(path, stableDoc()+"plus\nmore\n")
	require.Equal(t, ActionMerged, second.Action)

	assert.NotEqual(t, first.BackupPath, second.BackupPath)
	assert.Equal(t, stableDoc(), readFile(t, first.BackupPath))
	assert.Equal(t, stableDoc()+"plus\n", readFile(t, second.BackupPath))
}

func TestApplyDryRunReportsWithoutWriting(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.md")
	missing := filepath.Join(dir, "missing.md")
	require.NoError(t, os.WriteFile(existing, []byte(stableDoc()), 0o644))

	w := newTestWriter(t, Options{MergeMode: true, Backup: true, DryRun: true})

	rec := w.Apply(existing, stableDoc()+"Extra.\n")
	assert.Equal(t, ActionMerged, rec.Action)
	assert.Empty(t, rec.BackupPath)
	assert.Equal(t, stableDoc(), readFile(t, existing))

	rec = w.Apply(missing, "content")
	assert.Equal(t, ActionCreated, rec.Action)
	_, err := os.Stat(missing)
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "dry run must not create backups or temp files")
}

func TestApplyUnreadablePathIsError(t *testing.T) {
	dir := t.TempDir()
	// A directory at the target path makes the read fail without the file
	// being absent.
	path := filepath.Join(dir, "rules.md")
	require.NoError(t, os.Mkdir(path, 0o755))

	w := newTestWriter(t, Options{MergeMode: true})
	rec := w.Apply(path, "incoming")
	assert.Equal(t, ActionError, rec.Action)
	assert.Error(t, rec.Err)
}

func TestApplyPreservesFileMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.md")
	require.NoError(t, os.WriteFile(path, []byte(stableDoc()), 0o600))

	w := newTestWriter(t, Options{MergeMode: true})
	rec := w.Apply(path, stableDoc()+"More.\n")
	require.Equal(t, ActionMerged, rec.Action)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode()&0o777)
}
