// Package merge decides, for each regenerated rule file, whether to
// overwrite, merge, or preserve the copy on disk. Decisions are driven by
// textual similarity; the Writer is the only part that touches the
// filesystem.
package merge

import (
	"github.com/mosaichq/rulegen/pkg/frontmatter"
	"github.com/mosaichq/rulegen/pkg/textdiff"
)

const (
	// DefaultThreshold is the similarity at or above which regeneration is
	// treated as a safe refresh.
	DefaultThreshold = 0.95

	// conflictFloor is the similarity below which automatic reconciliation
	// is judged unsafe.
	conflictFloor = 0.7

	// bodyMergeFloor is the minimum body similarity for the header-aware
	// merge path.
	bodyMergeFloor = 0.7
)

// Outcome is the result of classifying an (original, incoming) pair.
type Outcome struct {
	Accepted      bool    `json:"accepted"`
	Content       string  `json:"-"`
	AutoMerged    bool    `json:"auto_merged"`
	Similarity    float64 `json:"similarity"`
	HadConflict   bool    `json:"had_conflict"`
	ConflictCount int     `json:"conflict_count,omitempty"`
}

// Decide classifies original against incoming. The four branches are
// evaluated in order and are exhaustive and non-overlapping:
//
//  1. similarity >= threshold: accept incoming as an auto-merge.
//  2. both documents carry a header block and their bodies are still close:
//     reconcile the headers key-wise (incoming wins) and keep the incoming
//     body. Header metadata is cheap to merge field-by-field; body prose is
//     all-or-nothing once it has meaningfully diverged.
//  3. similarity below the conflict floor: reject, caller must resolve.
//  4. otherwise: accept incoming, but not flagged as a high-confidence
//     auto-merge.
func Decide(original, incoming string, threshold float64) Outcome {
	s := textdiff.Similarity(original, incoming)
	if s >= threshold {
		return Outcome{Accepted: true, Content: incoming, AutoMerged: true, Similarity: s}
	}

	origHeader, origBody := frontmatter.Split(original)
	incHeader, incBody := frontmatter.Split(incoming)
	if origHeader != nil && incHeader != nil {
		if textdiff.Similarity(origBody, incBody) >= bodyMergeFloor {
			merged := frontmatter.Serialize(frontmatter.Merge(origHeader, incHeader), incBody)
			return Outcome{Accepted: true, Content: merged, AutoMerged: true, Similarity: s}
		}
	}

	if s < conflictFloor {
		return Outcome{
			Accepted:      false,
			Content:       incoming,
			Similarity:    s,
			HadConflict:   true,
			ConflictCount: 1,
		}
	}

	return Outcome{Accepted: true, Content: incoming, Similarity: s}
}
