package textdiff

import (
	"strconv"
	"strings"
	"testing"
)

func TestSimilarityIdentity(t *testing.T) {
	inputs := []string{"", "a", "hello\nworld", "# Rule\nUse hooks.", strings.Repeat("x\n", 500)}
	for _, in := range inputs {
		if got := Similarity(in, in); got != 1.0 {
			t.Errorf("Similarity(x, x) = %v, want 1.0 for %q", got, in)
		}
	}
}

func TestSimilarityEmptyAsymmetry(t *testing.T) {
	if got := Similarity("", ""); got != 1.0 {
		t.Errorf("Similarity(\"\", \"\") = %v, want 1.0", got)
	}
	if got := Similarity("", "nonempty"); got != 0.0 {
		t.Errorf("Similarity(\"\", \"nonempty\") = %v, want 0.0", got)
	}
	if got := Similarity("nonempty", ""); got != 0.0 {
		t.Errorf("Similarity(\"nonempty\", \"\") = %v, want 0.0", got)
	}
}

func TestSimilarityNormalization(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{name: "crlf vs lf", a: "one\r\ntwo\r\n", b: "one\ntwo\n"},
		{name: "surrounding whitespace", a: "  body  ", b: "body"},
		{name: "trailing newline", a: "body\n", b: "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != 1.0 {
				t.Errorf("Similarity(%q, %q) = %v, want 1.0", tt.a, tt.b, got)
			}
		})
	}
}

func TestSimilarityBounded(t *testing.T) {
	pairs := [][2]string{
		{"abc", "xyz"},
		{"kitten", "sitting"},
		{"short", strings.Repeat("long line\n", 40)},
		{strings.Repeat("a\n", 2000), strings.Repeat("b\n", 2000)},
	}
	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		if got < 0.0 || got > 1.0 {
			t.Errorf("Similarity out of bounds: %v", got)
		}
	}
}

func TestSimilarityEditDistance(t *testing.T) {
	// "kitten" -> "sitting": distance 3, longer side 7.
	got := Similarity("kitten", "sitting")
	want := float64(7-3) / 7
	if got != want {
		t.Errorf("Similarity(kitten, sitting) = %v, want %v", got, want)
	}
}

func TestSimilarityNearIdenticalDoc(t *testing.T) {
	var orig, mod strings.Builder
	for i := 0; i < 200; i++ {
		line := "guideline line that stays stable across regenerations\n"
		orig.WriteString(line)
		if i == 50 || i == 150 {
			mod.WriteString("guideline line that was reworded in this revision\n")
		} else {
			mod.WriteString(line)
		}
	}
	got := Similarity(orig.String(), mod.String())
	if got < 0.95 {
		t.Errorf("two changed lines out of 200 scored %v, want >= 0.95", got)
	}
}

func TestSimilarityLargeInputsUseLineOverlap(t *testing.T) {
	// Above the size threshold the score is Jaccard over distinct lines.
	var a, b strings.Builder
	for i := 0; i < 400; i++ {
		a.WriteString(strings.Repeat("a", 30) + "-" + string(rune('a'+i%26)) + strconv.Itoa(i) + "\n")
		b.WriteString(strings.Repeat("a", 30) + "-" + string(rune('a'+i%26)) + strconv.Itoa(i) + "\n")
	}
	b.WriteString("extra trailing line\n")
	got := SimilarityN(a.String(), b.String(), 1000)
	if got <= 0.9 || got >= 1.0 {
		t.Errorf("line overlap score = %v, want in (0.9, 1.0)", got)
	}
}

func TestSimilarityNDisjoint(t *testing.T) {
	a := strings.Repeat("only in a\n", 300)
	b := strings.Repeat("only in b\n", 300)
	if got := SimilarityN(a, b, 100); got != 0.0 {
		t.Errorf("disjoint line sets scored %v, want 0.0", got)
	}
}

