package grcconf

import (
	"fmt"

	"github.com/dlclark/regexp2"
	"github.com/humanlogio/grcat/pkg/colorspec"
)

// CountPolicy controls how often a rule applies over the stream.
type CountPolicy int

const (
	// CountMore is the grc default: the rule stays armed after it first
	// matches and applies to every matching line.
	CountMore CountPolicy = iota
	CountUnlimited
	CountOnce
	CountStop
	CountPrevious
	CountBlock
	CountUnblock
)

var countNames = map[CountPolicy]string{
	CountMore:      "more",
	CountUnlimited: "unlimited",
	CountOnce:      "once",
	CountStop:      "stop",
	CountPrevious:  "previous",
	CountBlock:     "block",
	CountUnblock:   "unblock",
}

func (c CountPolicy) String() string {
	if name, ok := countNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CountPolicy(%d)", int(c))
}

// ParseCountPolicy maps a count directive value to its policy.
func ParseCountPolicy(v string) (CountPolicy, error) {
	for policy, name := range countNames {
		if name == v {
			return policy, nil
		}
	}
	return 0, fmt.Errorf("unknown count %q", v)
}

// Config is the ordered rule list of one conf file.
type Config struct {
	Rules []*Rule
}

// Rule is one stanza. Rules are immutable once parsed; the state they
// accumulate while coloring lives in the engine that owns them.
type Rule struct {
	// Patterns are alternatives, tried in order.
	Patterns []*regexp2.Regexp
	// Colors[0] is the whole match, Colors[i] capture group i.
	Colors []colorspec.ColorSpec
	Count  CountPolicy
	Skip   bool

	// Replace substitutes the matched text, with \N backreferences.
	Replace *string
	Command string
	Concat  string

	// Stanza is the 1-based stanza index and Line the line it starts on.
	Stanza int
	Line   int
}

// Sources returns the pattern texts.
func (r *Rule) Sources() []string {
	out := make([]string, len(r.Patterns))
	for i, re := range r.Patterns {
		out[i] = re.String()
	}
	return out
}
