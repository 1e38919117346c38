package colorize

import (
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/humanlogio/grcat/pkg/colorspec"
)

// Offsets are rune indices into the line, as regexp2 reports them.
type bounds struct {
	start, end int
}

func (b bounds) valid() bool { return b.start >= 0 && b.end > b.start }

// match holds one occurrence; groups[0] is the whole match. Groups that did
// not participate have start -1.
type match struct {
	groups []bounds
}

func matchFrom(m *regexp2.Match) match {
	groups := m.Groups()
	out := match{groups: make([]bounds, len(groups))}
	for i, g := range groups {
		if len(g.Captures) == 0 {
			out.groups[i] = bounds{start: -1, end: -1}
			continue
		}
		out.groups[i] = bounds{start: g.Index, end: g.Index + g.Length}
	}
	return out
}

// span is a styled range. Spans nest: an enclosing span is written first and
// the spans inside it after, so the innermost color dominates. Spans with
// equal extents put the later rule outside, and group 0 outside its groups.
type span struct {
	bounds
	rule  int
	group int
	seq   string
}

// blockRule places the block color outside every rule's spans.
const blockRule = math.MaxInt

// outside orders spans outer first: earlier start, then longer extent.
func outside(a, b span) bool {
	if a.start != b.start {
		return a.start < b.start
	}
	if a.end != b.end {
		return a.end > b.end
	}
	if a.rule != b.rule {
		return a.rule > b.rule
	}
	return a.group < b.group
}

type lineState struct {
	runes []rune
	spans []span
}

func newLineState(line string) *lineState {
	return &lineState{runes: []rune(line)}
}

func (ls *lineState) addSpans(rule int, matches []match, colors []colorspec.ColorSpec) {
	for _, m := range matches {
		for group, b := range m.groups {
			if group >= len(colors) {
				break
			}
			cs := colors[group]
			if cs.Unchanged || cs.IsZero() || !b.valid() {
				continue
			}
			ls.spans = append(ls.spans, span{bounds: b, rule: rule, group: group, seq: cs.Sequence()})
		}
	}
}

// addBlock colors the whole line beneath every rule.
func (ls *lineState) addBlock(cs colorspec.ColorSpec) {
	if cs.Unchanged || cs.IsZero() || len(ls.runes) == 0 {
		return
	}
	ls.spans = append(ls.spans, span{
		bounds: bounds{start: 0, end: len(ls.runes)},
		rule:   blockRule,
		seq:    cs.Sequence(),
	})
}

// render writes the line once, sweeping span starts and ends left to right.
// At every boundary the active styles are reopened outside-in and each
// styled run is closed with a reset.
func (ls *lineState) render() string {
	if len(ls.spans) == 0 {
		return string(ls.runes)
	}
	spans := ls.spans
	sort.SliceStable(spans, func(i, j int) bool { return outside(spans[i], spans[j]) })

	// spans is sorted by start, so its indices double as the start events
	byEnd := make([]int, len(spans))
	for i := range byEnd {
		byEnd[i] = i
	}
	sort.SliceStable(byEnd, func(i, j int) bool { return spans[byEnd[i]].end < spans[byEnd[j]].end })

	var (
		out     strings.Builder
		style   strings.Builder
		active  []int // indices into spans, ascending, so outer first
		current string
		changed bool
		next    int // next span to start
		ended   int // next entry of byEnd to end
	)
	out.Grow(len(ls.runes) + 16*len(spans))
	for pos := 0; pos < len(ls.runes); {
		for ended < len(byEnd) && spans[byEnd[ended]].end <= pos {
			idx := byEnd[ended]
			if at, ok := slices.BinarySearch(active, idx); ok {
				active = slices.Delete(active, at, at+1)
				changed = true
			}
			ended++
		}
		for next < len(spans) && spans[next].start <= pos {
			at, _ := slices.BinarySearch(active, next)
			active = slices.Insert(active, at, next)
			changed = true
			next++
		}
		to := len(ls.runes)
		if next < len(spans) && spans[next].start < to {
			to = spans[next].start
		}
		if ended < len(byEnd) && spans[byEnd[ended]].end < to {
			to = spans[byEnd[ended]].end
		}

		if changed {
			style.Reset()
			for _, idx := range active {
				style.WriteString(spans[idx].seq)
			}
			if nextStyle := style.String(); nextStyle != current {
				if current != "" {
					out.WriteString(colorspec.Reset)
				}
				out.WriteString(nextStyle)
				current = nextStyle
			}
			changed = false
		}
		out.WriteString(string(ls.runes[pos:to]))
		pos = to
	}
	if current != "" {
		out.WriteString(colorspec.Reset)
	}
	return out.String()
}

type edit struct {
	start, end int // replaced range, before the edit
	delta      int // change in length
}

// replace substitutes every match with the expanded template, remaps the
// spans of earlier rules onto the new text and returns the inserted ranges
// as whole-match occurrences. Spans cut by a replacement are dropped.
func (ls *lineState) replace(matches []match, template string) []match {
	var (
		out     = make([]rune, 0, len(ls.runes))
		edits   = make([]edit, 0, len(matches))
		created = make([]match, 0, len(matches))
		prev    int
	)
	for _, m := range matches {
		whole := m.groups[0]
		if whole.start < prev {
			continue
		}
		out = append(out, ls.runes[prev:whole.start]...)
		repl := expand(template, ls.runes, m)
		created = append(created, match{groups: []bounds{{start: len(out), end: len(out) + len(repl)}}})
		out = append(out, repl...)
		edits = append(edits, edit{start: whole.start, end: whole.end, delta: len(repl) - (whole.end - whole.start)})
		prev = whole.end
	}
	out = append(out, ls.runes[prev:]...)

	kept := ls.spans[:0]
	for _, sp := range ls.spans {
		start, okStart := remap(sp.start, edits)
		end, okEnd := remap(sp.end, edits)
		if !okStart || !okEnd || end <= start {
			continue
		}
		sp.start, sp.end = start, end
		kept = append(kept, sp)
	}
	ls.spans = kept
	ls.runes = out
	return created
}

func remap(pos int, edits []edit) (int, bool) {
	shifted := pos
	for _, ed := range edits {
		switch {
		case pos >= ed.end:
			shifted += ed.delta
		case pos > ed.start:
			return 0, false
		}
	}
	return shifted, true
}

// expand resolves \N backreferences (and \\) in a replace template.
func expand(template string, runes []rune, m match) []rune {
	tmpl := []rune(template)
	out := make([]rune, 0, len(tmpl))
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '\\' || i+1 == len(tmpl) {
			out = append(out, c)
			continue
		}
		next := tmpl[i+1]
		switch {
		case next == '\\':
			out = append(out, '\\')
			i++
		case '0' <= next && next <= '9':
			j := i + 1
			n := 0
			for j < len(tmpl) && '0' <= tmpl[j] && tmpl[j] <= '9' {
				n = n*10 + int(tmpl[j]-'0')
				j++
			}
			if n < len(m.groups) && m.groups[n].start >= 0 {
				g := m.groups[n]
				out = append(out, runes[g.start:g.end]...)
			}
			i = j - 1
		default:
			out = append(out, c)
		}
	}
	return out
}
