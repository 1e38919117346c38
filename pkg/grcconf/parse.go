// Package grcconf parses grc rule files ("conf.*") into ordered rules.
//
// A rule file is a sequence of stanzas separated by blank lines or by grc
// separator lines (any line starting with something other than a letter or
// '#'). Each stanza is a list of key=value directives:
//
//	# ping times
//	regexp=\d+\.?\d* ms
//	colours=yellow
//	count=more
//	-
//	regexp=(Request timed out)|(Destination Host Unreachable)
//	colours=unchanged,bold red,bold red
package grcconf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/humanlogio/grcat/pkg/colorspec"
)

const maxLineSize = 1024 * 1024

type ParseOptions struct {
	// MatchTimeout bounds a single match attempt. Zero means no timeout.
	MatchTimeout time.Duration
	RegexOptions regexp2.RegexOptions
}

var DefaultParseOptions = &ParseOptions{
	MatchTimeout: 2 * time.Second,
	RegexOptions: regexp2.None,
}

type directive struct {
	key   string
	value string
	line  int
}

type stanza struct {
	index      int
	line       int
	directives []directive
}

// ParseString parses the text of a rule file.
func ParseString(text string, opts *ParseOptions) (*Config, error) {
	return Parse(strings.NewReader(text), opts)
}

// Parse reads a rule file. Every problem is reported as a *ConfigParseError.
func Parse(r io.Reader, opts *ParseOptions) (*Config, error) {
	if opts == nil {
		opts = DefaultParseOptions
	}
	stanzas, err := scanStanzas(r)
	if err != nil {
		return nil, err
	}
	cfg := &Config{Rules: make([]*Rule, 0, len(stanzas))}
	for _, st := range stanzas {
		rule, err := st.rule(opts)
		if err != nil {
			return nil, err
		}
		cfg.Rules = append(cfg.Rules, rule)
	}
	return cfg, nil
}

func scanStanzas(r io.Reader) ([]*stanza, error) {
	in := bufio.NewScanner(r)
	in.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		stanzas []*stanza
		cur     *stanza
		lineNo  int
	)
	closeStanza := func() {
		if cur != nil {
			stanzas = append(stanzas, cur)
			cur = nil
		}
	}
	for in.Scan() {
		lineNo++
		line := in.Text()
		switch {
		case strings.TrimSpace(line) == "":
			closeStanza()
			continue
		case line[0] == '#':
			continue
		case !isASCIILetter(line[0]):
			closeStanza()
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, &ConfigParseError{
				Line:   lineNo,
				Stanza: len(stanzas) + 1,
				Err:    fmt.Errorf("expected keyword=value, got %q", line),
			}
		}
		if cur == nil {
			cur = &stanza{index: len(stanzas) + 1, line: lineNo}
		}
		cur.directives = append(cur.directives, directive{
			key:   normalizeKey(key),
			value: value,
			line:  lineNo,
		})
	}
	if err := in.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ConfigParseError{Line: lineNo + 1, Err: err}
		}
		return nil, fmt.Errorf("reading rule file: %w", err)
	}
	closeStanza()
	return stanzas, nil
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	// colour, colours, color, colors
	if strings.HasPrefix(key, "colo") {
		return "colours"
	}
	return key
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func (st *stanza) errorf(line int, format string, args ...any) error {
	return &ConfigParseError{Line: line, Stanza: st.index, Err: fmt.Errorf(format, args...)}
}

func (st *stanza) rule(opts *ParseOptions) (*Rule, error) {
	rule := &Rule{Count: CountMore, Stanza: st.index, Line: st.line}
	for _, d := range st.directives {
		switch d.key {
		case "regexp":
			re, err := regexp2.Compile(d.value, opts.RegexOptions)
			if err != nil {
				return nil, st.errorf(d.line, "compiling regexp %q: %w", d.value, err)
			}
			if opts.MatchTimeout > 0 {
				re.MatchTimeout = opts.MatchTimeout
			}
			rule.Patterns = append(rule.Patterns, re)
		case "colours":
			colors, err := colorspec.ResolveList(d.value)
			if err != nil {
				return nil, &ConfigParseError{Line: d.line, Stanza: st.index, Err: err}
			}
			rule.Colors = colors
		case "count":
			count, err := ParseCountPolicy(strings.TrimSpace(d.value))
			if err != nil {
				return nil, st.errorf(d.line, "%w", err)
			}
			rule.Count = count
		case "skip":
			skip, err := parseFlag(d.value)
			if err != nil {
				return nil, st.errorf(d.line, "%w", err)
			}
			rule.Skip = skip
		case "replace":
			replace := d.value
			rule.Replace = &replace
		case "command":
			rule.Command = strings.TrimSpace(d.value)
		case "concat":
			rule.Concat = strings.TrimSpace(d.value)
		default:
			return nil, st.errorf(d.line, "unknown keyword %q", d.key)
		}
	}
	if len(rule.Patterns) == 0 && rule.Count != CountPrevious {
		return nil, st.errorf(st.line, "stanza has no regexp")
	}
	return rule, nil
}

func parseFlag(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "1", "on":
		return true, nil
	case "no", "false", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid skip value %q", v)
	}
}
