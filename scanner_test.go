package grcat

import (
	"context"
	"strings"
	"testing"

	"github.com/humanlogio/grcat/pkg/colorize"
	"github.com/humanlogio/grcat/pkg/grcconf"
	"github.com/humanlogio/grcat/pkg/sink/bufsink"
	"github.com/stretchr/testify/require"
)

func mustEngine(t *testing.T, conf string, opts ...colorize.Option) *colorize.Engine {
	t.Helper()
	cfg, err := grcconf.ParseString(conf, nil)
	require.NoError(t, err)
	return colorize.New(cfg, opts...)
}

func TestScan(t *testing.T) {
	ctx := context.Background()
	eng := mustEngine(t, "regexp=^#\nskip=yes\n\nregexp=ERROR\ncolours=red\n")
	src := strings.NewReader("first\n# hidden\nan ERROR\r\n\xfe\xff ERROR\nlast")

	sink := bufsink.NewSizedBufferedSink(100, nil)
	err := Scan(ctx, src, sink, eng, nil)
	require.NoError(t, err)

	want := []string{
		"first",
		"an \x1b[31mERROR\x1b[0m",
		"\xfe\xff ERROR",
		"last",
	}
	require.Equal(t, want, sink.Lines())
}

func TestScannerLongLine(t *testing.T) {
	ctx := context.Background()
	eng := mustEngine(t, "regexp=ok\ncolours=green\n")
	data := "ok before\n" + strings.Repeat("a", maxBufferSize+10) + "\nok after\n"
	src := strings.NewReader(data)

	sink := bufsink.NewSizedBufferedSink(100, nil)
	err := Scan(ctx, src, sink, eng, nil)
	require.NoError(t, err, "got %#v", err)

	want := []string{
		"\x1b[32mok\x1b[0m before",
		"\x1b[32mok\x1b[0m after",
	}
	require.Equal(t, want, sink.Lines())
}

func TestScanStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	eng := mustEngine(t, "regexp=x\n")
	src := strings.NewReader("one\ntwo\nthree\n")

	sink := bufsink.NewSizedBufferedSink(100, nil)
	cancel()
	err := Scan(ctx, src, sink, eng, nil)
	require.NoError(t, err)
	require.Empty(t, sink.Lines(), "nothing is emitted once the context is done")
}

// cancelAfter cancels its context once it has received n lines.
type cancelAfter struct {
	*bufsink.SizedBuffer
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) Receive(ctx context.Context, line []byte) error {
	if err := c.SizedBuffer.Receive(ctx, line); err != nil {
		return err
	}
	if len(c.Buffered) == c.n {
		c.cancel()
	}
	return nil
}

func TestScanStopsMidStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng := mustEngine(t, "regexp=x\n")
	src := strings.NewReader("one\ntwo\nthree\nfour\n")

	sink := &cancelAfter{SizedBuffer: bufsink.NewSizedBufferedSink(100, nil), n: 2, cancel: cancel}
	err := Scan(ctx, src, sink, eng, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, sink.Lines())
}
