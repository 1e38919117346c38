// Package colorspec resolves grc color tokens into terminal display
// attributes.
package colorspec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	escape = "\x1b["
	// Reset closes every styled region.
	Reset = escape + "0m"
)

// ColorSpec is the set of display attributes for one match group.
type ColorSpec struct {
	Attrs []color.Attribute
	// Raw is emitted verbatim before Attrs: the bell and literal escape
	// strings quoted in the config.
	Raw string

	// Unchanged leaves the group uncolored.
	Unchanged bool
	// Previous takes the color of the preceding group. ResolveList
	// replaces it with that color, so a resolved list never carries it.
	Previous bool
}

// IsZero reports whether cs produces no output at all.
func (cs ColorSpec) IsZero() bool {
	return len(cs.Attrs) == 0 && cs.Raw == ""
}

// Sequence renders cs as a control string.
func (cs ColorSpec) Sequence() string {
	if len(cs.Attrs) == 0 {
		return cs.Raw
	}
	codes := make([]string, len(cs.Attrs))
	for i, attr := range cs.Attrs {
		codes[i] = strconv.Itoa(int(attr))
	}
	return cs.Raw + escape + strings.Join(codes, ";") + "m"
}

func (cs ColorSpec) String() string {
	return strconv.Quote(cs.Sequence())
}

type InvalidColorTokenError struct {
	Token string
}

func (e *InvalidColorTokenError) Error() string {
	return fmt.Sprintf("invalid color token %q", e.Token)
}

var attributes = map[string][]color.Attribute{
	"default":       {color.Reset},
	"bold":          {color.Bold},
	"dark":          {color.Faint},
	"italic":        {color.Italic},
	"underline":     {color.Underline},
	"blink":         {color.BlinkSlow},
	"rapidblink":    {color.BlinkRapid},
	"reverse":       {color.ReverseVideo},
	"concealed":     {color.Concealed},
	"strikethrough": {color.CrossedOut},

	"black":   {color.FgBlack},
	"red":     {color.FgRed},
	"green":   {color.FgGreen},
	"yellow":  {color.FgYellow},
	"blue":    {color.FgBlue},
	"magenta": {color.FgMagenta},
	"cyan":    {color.FgCyan},
	"white":   {color.FgWhite},

	"on_black":   {color.BgBlack},
	"on_red":     {color.BgRed},
	"on_green":   {color.BgGreen},
	"on_yellow":  {color.BgYellow},
	"on_blue":    {color.BgBlue},
	"on_magenta": {color.BgMagenta},
	"on_cyan":    {color.BgCyan},
	"on_white":   {color.BgWhite},

	// aixterm bright colors, prefixed with the standard code so terminals
	// without them fall back gracefully
	"bright_black":   {color.FgBlack, color.FgHiBlack},
	"bright_red":     {color.FgRed, color.FgHiRed},
	"bright_green":   {color.FgGreen, color.FgHiGreen},
	"bright_yellow":  {color.FgYellow, color.FgHiYellow},
	"bright_blue":    {color.FgBlue, color.FgHiBlue},
	"bright_magenta": {color.FgMagenta, color.FgHiMagenta},
	"bright_cyan":    {color.FgCyan, color.FgHiCyan},
	"bright_white":   {color.FgWhite, color.FgHiWhite},

	"on_bright_black":   {color.BgBlack, color.BgHiBlack},
	"on_bright_red":     {color.BgRed, color.BgHiRed},
	"on_bright_green":   {color.BgGreen, color.BgHiGreen},
	"on_bright_yellow":  {color.BgYellow, color.BgHiYellow},
	"on_bright_blue":    {color.BgBlue, color.BgHiBlue},
	"on_bright_magenta": {color.BgMagenta, color.BgHiMagenta},
	"on_bright_cyan":    {color.BgCyan, color.BgHiCyan},
	"on_bright_white":   {color.BgWhite, color.BgHiWhite},
}

// Resolve maps space separated tokens to a ColorSpec. An empty token list
// yields the pass-through spec.
func Resolve(tokens string) (ColorSpec, error) {
	var cs ColorSpec
	for _, tok := range strings.Fields(tokens) {
		if attrs, ok := attributes[tok]; ok {
			cs.Attrs = append(cs.Attrs, attrs...)
			continue
		}
		switch tok {
		case "none":
		case "beep":
			cs.Raw += "\a"
		case "unchanged":
			cs.Unchanged = true
		case "previous":
			cs.Previous = true
		default:
			if attrs, ok := hexAttributes(tok); ok {
				cs.Attrs = append(cs.Attrs, attrs...)
				continue
			}
			raw, err := unquote(tok)
			if err != nil {
				return ColorSpec{}, &InvalidColorTokenError{Token: tok}
			}
			cs.Raw += raw
		}
	}
	// previous stands for a whole group's color and cannot be combined
	if cs.Previous && (cs.Unchanged || !cs.IsZero()) {
		return ColorSpec{}, &InvalidColorTokenError{Token: strings.Join(strings.Fields(tokens), " ")}
	}
	return cs, nil
}

// hexAttributes handles 24-bit colors written #rrggbb, or on_#rrggbb for the
// background.
func hexAttributes(tok string) ([]color.Attribute, bool) {
	base := color.Attribute(38)
	if rest, ok := strings.CutPrefix(tok, "on_"); ok {
		base = 48
		tok = rest
	}
	if !strings.HasPrefix(tok, "#") {
		return nil, false
	}
	c, err := colorful.Hex(tok)
	if err != nil {
		return nil, false
	}
	r, g, b := c.RGB255()
	return []color.Attribute{base, 2, color.Attribute(r), color.Attribute(g), color.Attribute(b)}, true
}

// ResolveList resolves a comma separated list of token groups, one per match
// group.
func ResolveList(list string) ([]ColorSpec, error) {
	groups := strings.Split(list, ",")
	out := make([]ColorSpec, 0, len(groups))
	for i, group := range groups {
		cs, err := Resolve(group)
		if err != nil {
			return nil, err
		}
		if cs.Previous {
			if i == 0 {
				return nil, &InvalidColorTokenError{Token: "previous"}
			}
			cs = out[i-1]
		}
		out = append(out, cs)
	}
	return out, nil
}

func unquote(tok string) (string, error) {
	if len(tok) < 2 {
		return "", strconv.ErrSyntax
	}
	switch {
	case tok[0] == '"' && tok[len(tok)-1] == '"':
	case tok[0] == '\'' && tok[len(tok)-1] == '\'':
		tok = `"` + strings.ReplaceAll(tok[1:len(tok)-1], `"`, `\"`) + `"`
	default:
		return "", strconv.ErrSyntax
	}
	return strconv.Unquote(tok)
}
