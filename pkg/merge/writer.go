package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mosaichq/rulegen/pkg/logger"
	"github.com/mosaichq/rulegen/pkg/textdiff"
)

// Action classifies what happened (or would happen, under dry-run) to one
// output path.
type Action string

const (
	ActionCreated  Action = "created"
	ActionModified Action = "modified"
	ActionMerged   Action = "merged"
	ActionSkipped  Action = "skipped"
	ActionError    Action = "error"
)

// Info carries merge accounting for a single path.
type Info struct {
	AutoMerged  bool    `json:"auto_merged"`
	Similarity  float64 `json:"similarity"`
	HadConflict bool    `json:"had_conflict"`
}

// Record is the per-path result returned to the caller.
type Record struct {
	Path       string `json:"path"`
	Action     Action `json:"action"`
	BackupPath string `json:"backup_path,omitempty"`
	MergeInfo  *Info  `json:"merge_info,omitempty"`
	Err        error  `json:"-"`
}

// Conflict is handed to the resolution callback when the policy cannot
// reconcile automatically.
type Conflict struct {
	Path     string
	Original string
	Incoming string
	Diff     *textdiff.Result
}

// ResolutionKind enumerates the caller's choices for a conflict.
type ResolutionKind int

const (
	AcceptIncoming ResolutionKind = iota
	KeepOriginal
	Manual
)

// Resolution is the callback's answer. Content is only consulted for
// Manual.
type Resolution struct {
	Kind    ResolutionKind
	Content string
}

// ResolveFunc resolves a single conflict. The Writer invokes it
// synchronously and sequentially, one file at a time, because resolution is
// typically interactive.
type ResolveFunc func(Conflict) Resolution

// Options configures a Writer.
type Options struct {
	// Threshold is the auto-merge similarity threshold, in (0,1].
	// Zero means DefaultThreshold.
	Threshold float64
	// MergeMode enables similarity-driven merging. When false, existing
	// files are skipped unless Force is set.
	MergeMode bool
	// Force unconditionally overwrites existing files when MergeMode is
	// off.
	Force bool
	// Backup copies the pre-write file beside the target before
	// overwriting it.
	Backup bool
	// DryRun suppresses every write and backup while reporting the action
	// that would occur.
	DryRun bool
	// Resolve, when non-nil, is consulted for files the policy cannot
	// reconcile automatically.
	Resolve ResolveFunc

	// now is overridable in tests for stable backup names.
	now func() time.Time
}

// Writer applies incoming content to output paths, one at a time. It owns
// all file I/O; everything it delegates to is pure.
type Writer struct {
	opts Options
}

// NewWriter validates opts and returns a Writer.
func NewWriter(opts Options) (*Writer, error) {
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("auto-merge threshold %v out of range (0,1]", opts.Threshold)
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	return &Writer{opts: opts}, nil
}

// Apply writes incoming to path according to the merge policy and returns
// one Record. I/O failures are local to the path; they never panic.
func (w *Writer) Apply(path, incoming string) Record {
	data, err := os.ReadFile(path) // #nosec G304 -- output path comes from the template catalog
	if err != nil {
		if os.IsNotExist(err) {
			return w.create(path, incoming)
		}
		return Record{Path: path, Action: ActionError, Err: fmt.Errorf("read existing file: %w", err)}
	}
	original := string(data)

	if !w.opts.MergeMode {
		if !w.opts.Force {
			logger.Debug("existing file preserved", logger.String("path", path))
			return Record{Path: path, Action: ActionSkipped}
		}
		return w.overwrite(path, original, incoming, ActionModified, nil)
	}

	s := textdiff.Similarity(original, incoming)

	if s >= w.opts.Threshold {
		info := &Info{AutoMerged: true, Similarity: s}
		return w.overwrite(path, original, incoming, ActionMerged, info)
	}

	if w.opts.Resolve != nil {
		return w.resolveConflict(path, original, incoming, s)
	}

	if s < conflictFloor {
		logger.Info("skipping divergent file, no resolver available",
			logger.String("path", path))
		return Record{
			Path:      path,
			Action:    ActionSkipped,
			MergeInfo: &Info{Similarity: s, HadConflict: true},
		}
	}

	// Mid-band with no resolver: fall back to the policy engine.
	outcome := Decide(original, incoming, w.opts.Threshold)
	info := &Info{
		AutoMerged:  outcome.AutoMerged,
		Similarity:  outcome.Similarity,
		HadConflict: outcome.HadConflict,
	}
	if !outcome.Accepted {
		return Record{Path: path, Action: ActionSkipped, MergeInfo: info}
	}
	return w.overwrite(path, original, outcome.Content, ActionMerged, info)
}

// resolveConflict builds a full diff, asks the callback, and applies its
// answer.
func (w *Writer) resolveConflict(path, original, incoming string, s float64) Record {
	info := &Info{Similarity: s, HadConflict: s < conflictFloor}
	resolution := w.opts.Resolve(Conflict{
		Path:     path,
		Original: original,
		Incoming: incoming,
		Diff:     textdiff.Diff(original, incoming),
	})

	switch resolution.Kind {
	case KeepOriginal:
		return Record{Path: path, Action: ActionSkipped, MergeInfo: info}
	case Manual:
		return w.overwrite(path, original, resolution.Content, ActionMerged, info)
	default:
		return w.overwrite(path, original, incoming, ActionMerged, info)
	}
}

func (w *Writer) create(path, incoming string) Record {
	if w.opts.DryRun {
		return Record{Path: path, Action: ActionCreated}
	}
	if err := writeFileAtomic(path, []byte(incoming)); err != nil {
		return Record{Path: path, Action: ActionError, Err: err}
	}
	logger.Debug("created file", logger.String("path", path))
	return Record{Path: path, Action: ActionCreated}
}

// overwrite backs up the original when configured, then writes content.
// Backup and write are strictly sequenced so the backup never captures a
// partial write.
func (w *Writer) overwrite(path, original, content string, action Action, info *Info) Record {
	rec := Record{Path: path, Action: action, MergeInfo: info}
	if w.opts.DryRun {
		return rec
	}

	if w.opts.Backup {
		backupPath, err := w.backup(path, original)
		if err != nil {
			rec.Action = ActionError
			rec.Err = fmt.Errorf("backup: %w", err)
			return rec
		}
		rec.BackupPath = backupPath
	}

	if err := writeFileAtomic(path, []byte(content)); err != nil {
		// An already-created backup is left in place.
		rec.Action = ActionError
		rec.Err = err
		return rec
	}
	return rec
}

// backup copies original beside path with a timestamp suffix, never
// overwriting an existing backup.
func (w *Writer) backup(path, original string) (string, error) {
	stamp := w.opts.now().Format("20060102-150405")
	backupPath := fmt.Sprintf("%s.%s.bak", path, stamp)
	for n := 1; ; n++ {
		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			break
		}
		backupPath = fmt.Sprintf("%s.%s-%d.bak", path, stamp, n)
	}

	mode := fileModeOrDefault(path)
	if err := os.WriteFile(backupPath, []byte(original), mode); err != nil {
		return "", err
	}
	logger.Debug("backed up file", logger.String("path", path), logger.String("backup", backupPath))
	return backupPath, nil
}

// writeFileAtomic writes data via a temp file in the target directory and
// renames it into place, creating parent directories as needed. The
// existing file mode is preserved when possible.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpName, fileModeOrDefault(path)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("set file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func fileModeOrDefault(path string) os.FileMode {
	var mode os.FileMode = 0o644
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}
	return mode
}
