// Package colorize applies an ordered grc rule list to lines of text.
package colorize

import (
	"log/slog"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/humanlogio/grcat/pkg/colorspec"
	"github.com/humanlogio/grcat/pkg/grcconf"
)

// Engine recolors lines. It owns the per-rule state accumulated over the
// stream, so an Engine must not be shared between streams or goroutines.
type Engine struct {
	rules   []*ruleState
	noColor bool
	logger  *slog.Logger

	onCommand func(command string)
	onConcat  func(path, line string)

	// set while between a block rule and its unblock rule
	block *colorspec.ColorSpec
}

type ruleState struct {
	*grcconf.Rule

	hasFired bool
	isActive bool
	fired    uint64
}

// RuleStats reports how a rule behaved over the stream so far.
type RuleStats struct {
	Stanza   int
	Line     int
	Count    grcconf.CountPolicy
	HasFired bool
	IsActive bool
	Fired    uint64
}

// An Option changes the default behavior of an Engine.
type Option func(*Engine)

// WithNoColor keeps every rule effect except the escape sequences.
func WithNoColor(noColor bool) Option {
	return func(e *Engine) { e.noColor = noColor }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithCommandHook is called with a rule's command each time it fires.
func WithCommandHook(fn func(command string)) Option {
	return func(e *Engine) { e.onCommand = fn }
}

// WithConcatHook is called with a rule's concat path and the plain line
// each time it fires.
func WithConcatHook(fn func(path, line string)) Option {
	return func(e *Engine) { e.onConcat = fn }
}

func New(cfg *grcconf.Config, opts ...Option) *Engine {
	e := &Engine{
		rules:     make([]*ruleState, 0, len(cfg.Rules)),
		logger:    slog.New(slog.DiscardHandler),
		onCommand: func(string) {},
		onConcat:  func(string, string) {},
	}
	for _, r := range cfg.Rules {
		e.rules = append(e.rules, &ruleState{Rule: r})
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// firing is what a rule left behind on the current line, for a following
// `previous` rule to reuse.
type firing struct {
	matches []match
	colors  []colorspec.ColorSpec
}

// Process recolors one line. It returns false when a skip rule suppressed
// the line.
func (e *Engine) Process(line string) (string, bool) {
	if !utf8.ValidString(line) {
		return line, true
	}
	ln := newLineState(line)

	var last *firing
	for idx, r := range e.rules {
		if r.Count == grcconf.CountOnce && r.hasFired {
			continue
		}
		colors := r.Colors
		var matches []match
		if r.Count == grcconf.CountPrevious {
			if last == nil {
				continue
			}
			if len(colors) == 0 {
				colors = last.colors
			}
			if len(r.Patterns) == 0 {
				matches = last.matches
			} else {
				matches = e.match(r, ln.runes)
			}
		} else {
			matches = e.match(r, ln.runes)
		}
		if len(matches) == 0 {
			continue
		}

		r.hasFired = true
		if r.Count == grcconf.CountMore {
			r.isActive = true
		}
		r.fired++
		if r.Command != "" {
			e.onCommand(r.Command)
		}
		if r.Concat != "" {
			e.onConcat(r.Concat, string(ln.runes))
		}
		if r.Skip {
			return "", false
		}

		if r.Replace != nil {
			matches = ln.replace(matches, *r.Replace)
		}
		switch r.Count {
		case grcconf.CountBlock:
			var cs colorspec.ColorSpec
			if len(colors) > 0 {
				cs = colors[0]
			}
			e.block = &cs
		case grcconf.CountUnblock:
			e.block = nil
			ln.addSpans(idx, matches, colors)
		default:
			ln.addSpans(idx, matches, colors)
		}
		last = &firing{matches: matches, colors: colors}

		if r.Count == grcconf.CountStop {
			break
		}
	}
	if e.block != nil {
		ln.addBlock(*e.block)
	}
	if e.noColor {
		return string(ln.runes), true
	}
	return ln.render(), true
}

// match tries the alternatives in order and returns every occurrence of the
// first one that matches.
func (e *Engine) match(r *ruleState, runes []rune) []match {
	for _, re := range r.Patterns {
		if ms := e.findAll(re, runes); len(ms) > 0 {
			return ms
		}
	}
	return nil
}

func (e *Engine) findAll(re *regexp2.Regexp, runes []rune) []match {
	var out []match
	m, err := re.FindRunesMatch(runes)
	for m != nil && err == nil {
		// zero-length matches never color anything
		if m.Length > 0 {
			out = append(out, matchFrom(m))
		}
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		e.logger.Warn("pattern evaluation failed, treating as no match",
			slog.String("regexp", re.String()),
			slog.Any("err", err),
		)
		return nil
	}
	return out
}

// Stats returns one entry per rule, in rule order.
func (e *Engine) Stats() []RuleStats {
	out := make([]RuleStats, len(e.rules))
	for i, r := range e.rules {
		out[i] = RuleStats{
			Stanza:   r.Stanza,
			Line:     r.Line,
			Count:    r.Count,
			HasFired: r.hasFired,
			IsActive: r.isActive,
			Fired:    r.fired,
		}
	}
	return out
}
