package matcher

import (
	"sort"

	"github.com/rivo/uniseg"
	"github.com/sahilm/fuzzy"
)

// colSource adapts one column's candidate texts to the matcher primitive's
// source interface for a single match pass.
type colSource struct {
	entries []string
}

func (s colSource) String(i int) string { return s.entries[i] }
func (s colSource) Len() int            { return len(s.entries) }

// scored is one surviving candidate after a column pass.
type scored struct {
	pos   int // position in the candidate list fed to the pass
	score int
}

// matchColumn runs the matcher primitive over the candidate texts and
// returns the surviving positions with their scores. isAppend hints that
// the pattern grew by a suffix since the last pass over the same candidates;
// the primitive does not exploit it directly, but the worker narrows the
// candidate list on its basis before calling here.
func matchColumn(pattern string, texts []string, isAppend bool) []scored {
	_ = isAppend
	ms := fuzzy.FindFromNoSort(pattern, colSource{entries: texts})
	out := make([]scored, len(ms))
	for i, m := range ms {
		out[i] = scored{pos: m.Index, score: m.Score}
	}
	return out
}

// highlightIndices returns the sorted, deduped grapheme indices of pattern's
// match within s, for highlighting. Empty when the pattern does not match.
func highlightIndices(pattern, s string) []int {
	if pattern == "" || s == "" {
		return nil
	}
	ms := fuzzy.Find(pattern, []string{s})
	if len(ms) == 0 {
		return nil
	}
	byteIdx := ms[0].MatchedIndexes

	// The primitive reports byte offsets; the highlighter walks graphemes.
	set := make(map[int]bool, len(byteIdx))
	for _, b := range byteIdx {
		set[b] = true
	}
	var out []int
	g := uniseg.NewGraphemes(s)
	off, gi := 0, 0
	for g.Next() {
		n := len(g.Str())
		for b := off; b < off+n; b++ {
			if set[b] {
				out = append(out, gi)
				break
			}
		}
		off += n
		gi++
	}
	sort.Ints(out)
	return out
}
