package textdiff

import "strings"

// Op classifies a single diff line.
type Op int

const (
	Unchanged Op = iota
	Added
	Removed
)

// String returns the string representation of the op
func (o Op) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Line is one line of a diff. OrigLine and ModLine are 1-based and zero on
// the side where the line does not exist.
type Line struct {
	Op       Op     `json:"op"`
	Text     string `json:"text"`
	OrigLine int    `json:"original_line,omitempty"`
	ModLine  int    `json:"modified_line,omitempty"`
}

// Hunk is a contiguous run of changed lines plus up to contextLines lines of
// unchanged context on each side.
type Hunk struct {
	OrigStart int    `json:"original_start"`
	OrigCount int    `json:"original_count"`
	ModStart  int    `json:"modified_start"`
	ModCount  int    `json:"modified_count"`
	Lines     []Line `json:"lines"`

	// end is the exclusive index into the linear sequence where the hunk
	// stopped; used only while grouping to keep context runs disjoint.
	end int
}

// Result is the full structural diff between two documents.
type Result struct {
	Original   string  `json:"-"`
	Modified   string  `json:"-"`
	Hunks      []Hunk  `json:"hunks"`
	Similarity float64 `json:"similarity"`
}

const (
	contextLines = 3
	joinWindow   = 6
)

// Diff computes an LCS-based line diff between original and modified,
// grouped into hunks. Output is deterministic for fixed inputs.
func Diff(original, modified string) *Result {
	origLines := strings.Split(original, "\n")
	modLines := strings.Split(modified, "\n")

	linear := backtrack(origLines, modLines, lcsTable(origLines, modLines))
	return &Result{
		Original:   original,
		Modified:   modified,
		Hunks:      groupHunks(linear),
		Similarity: Similarity(original, modified),
	}
}

// lcsTable builds the (m+1)x(n+1) longest-common-subsequence length table.
func lcsTable(a, b []string) [][]int {
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}
	return dp
}

// backtrack walks the LCS table from the bottom-right corner, emitting a
// linear line sequence in forward order. On ties it prefers consuming from
// the modified side, so additions sort before the removals they replace.
func backtrack(a, b []string, dp [][]int) []Line {
	var out []Line
	i, j := len(a), len(b)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && a[i-1] == b[j-1]:
			out = append(out, Line{Op: Unchanged, Text: a[i-1], OrigLine: i, ModLine: j})
			i--
			j--
		case j > 0 && (i == 0 || dp[i][j-1] >= dp[i-1][j]):
			out = append(out, Line{Op: Added, Text: b[j-1], ModLine: j})
			j--
		default:
			out = append(out, Line{Op: Removed, Text: a[i-1], OrigLine: i})
			i--
		}
	}
	// reverse into forward order
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// groupHunks scans the linear sequence and groups changed lines into hunks.
// A hunk opens with up to contextLines of leading context, stays open while
// another change appears within joinWindow lines, and closes with up to
// contextLines of trailing context.
func groupHunks(lines []Line) []Hunk {
	var hunks []Hunk
	i := 0
	for i < len(lines) {
		if lines[i].Op == Unchanged {
			i++
			continue
		}

		start := i - contextLines
		if start < 0 {
			start = 0
		}
		// Leading context must not reach back into the previous hunk.
		if n := len(hunks); n > 0 {
			prevEnd := hunks[n-1].end
			if start < prevEnd {
				start = prevEnd
			}
		}

		hunk := Hunk{Lines: append([]Line(nil), lines[start:i+1]...)}
		j := i + 1
		for j < len(lines) {
			if lines[j].Op != Unchanged {
				hunk.Lines = append(hunk.Lines, lines[j])
				j++
				continue
			}
			if !changeWithin(lines, j, joinWindow) {
				for t := 0; t < contextLines && j < len(lines) && lines[j].Op == Unchanged; t++ {
					hunk.Lines = append(hunk.Lines, lines[j])
					j++
				}
				break
			}
			hunk.Lines = append(hunk.Lines, lines[j])
			j++
		}
		hunk.end = j
		finalizeHunk(&hunk)
		hunks = append(hunks, hunk)
		i = j
	}
	return hunks
}

func changeWithin(lines []Line, from, window int) bool {
	for k := from; k < len(lines) && k < from+window; k++ {
		if lines[k].Op != Unchanged {
			return true
		}
	}
	return false
}

func finalizeHunk(h *Hunk) {
	for _, l := range h.Lines {
		if l.OrigLine > 0 {
			if h.OrigStart == 0 {
				h.OrigStart = l.OrigLine
			}
			h.OrigCount++
		}
		if l.ModLine > 0 {
			if h.ModStart == 0 {
				h.ModStart = l.ModLine
			}
			h.ModCount++
		}
	}
}
