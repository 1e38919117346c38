package colorspec

import (
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		tokens string
		want   ColorSpec
		seq    string
	}{
		{name: "empty", tokens: "", want: ColorSpec{}, seq: ""},
		{name: "none", tokens: "none", want: ColorSpec{}, seq: ""},
		{
			name:   "bold red",
			tokens: "bold red",
			want:   ColorSpec{Attrs: []color.Attribute{color.Bold, color.FgRed}},
			seq:    "\x1b[1;31m",
		},
		{
			name:   "extra spaces",
			tokens: "  underline   on_blue ",
			want:   ColorSpec{Attrs: []color.Attribute{color.Underline, color.BgBlue}},
			seq:    "\x1b[4;44m",
		},
		{
			name:   "bright falls back to standard",
			tokens: "bright_green",
			want:   ColorSpec{Attrs: []color.Attribute{color.FgGreen, color.FgHiGreen}},
			seq:    "\x1b[32;92m",
		},
		{
			name:   "beep",
			tokens: "beep red",
			want:   ColorSpec{Raw: "\a", Attrs: []color.Attribute{color.FgRed}},
			seq:    "\a\x1b[31m",
		},
		{
			name:   "quoted escape",
			tokens: `"\033[38;5;172m"`,
			want:   ColorSpec{Raw: "\x1b[38;5;172m"},
			seq:    "\x1b[38;5;172m",
		},
		{
			name:   "truecolor",
			tokens: "bold #ff8800 on_#000080",
			want: ColorSpec{Attrs: []color.Attribute{
				color.Bold,
				38, 2, 255, 136, 0,
				48, 2, 0, 0, 128,
			}},
			seq: "\x1b[1;38;2;255;136;0;48;2;0;0;128m",
		},
		{
			name:   "unchanged",
			tokens: "unchanged",
			want:   ColorSpec{Unchanged: true},
		},
		{
			name:   "default resets",
			tokens: "default",
			want:   ColorSpec{Attrs: []color.Attribute{color.Reset}},
			seq:    "\x1b[0m",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.tokens)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.seq, got.Sequence())
		})
	}
}

func TestResolveInvalidToken(t *testing.T) {
	_, err := Resolve("#zzzzzz")
	require.Error(t, err)

	_, err = Resolve("bold purple")
	require.Error(t, err)

	var tokErr *InvalidColorTokenError
	require.True(t, errors.As(err, &tokErr))
	require.Equal(t, "purple", tokErr.Token)
	require.Contains(t, err.Error(), `"purple"`)
}

func TestResolveList(t *testing.T) {
	got, err := ResolveList("bold red, green,previous,unchanged")
	require.NoError(t, err)
	require.Len(t, got, 4)
	require.Equal(t, "\x1b[1;31m", got[0].Sequence())
	require.Equal(t, "\x1b[32m", got[1].Sequence())
	require.Equal(t, got[1], got[2])
	require.True(t, got[3].Unchanged)

	_, err = ResolveList("previous,red")
	require.Error(t, err)

	for _, group := range []string{"bold previous", "previous  on_blue", "unchanged previous"} {
		_, err = ResolveList("red," + group)
		var tokErr *InvalidColorTokenError
		require.True(t, errors.As(err, &tokErr), "%q must not combine previous with other tokens", group)
		require.Equal(t, strings.Join(strings.Fields(group), " "), tokErr.Token)
	}

	_, err = ResolveList("red,nope")
	var tokErr *InvalidColorTokenError
	require.True(t, errors.As(err, &tokErr))
	require.Equal(t, "nope", tokErr.Token)
}
