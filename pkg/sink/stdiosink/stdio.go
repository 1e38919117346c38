package stdiosink

import (
	"bufio"
	"context"
	"io"

	"github.com/humanlogio/grcat/pkg/sink"
)

var (
	eol = [...]byte{'\n'}
)

type Stdio struct {
	w    *bufio.Writer
	opts StdioOpts
}

type StdioOpts struct {
	// LineBuffered flushes after every line, so lines already processed
	// reach the terminal even if the upstream command never exits.
	LineBuffered bool
	BufferSize   int
}

var DefaultStdioOpts = StdioOpts{
	LineBuffered: true,
	BufferSize:   64 * 1024,
}

var _ sink.Sink = (*Stdio)(nil)

func NewStdio(w io.Writer, opts StdioOpts) *Stdio {
	size := opts.BufferSize
	if size <= 0 {
		size = DefaultStdioOpts.BufferSize
	}
	return &Stdio{
		w:    bufio.NewWriterSize(w, size),
		opts: opts,
	}
}

func (std *Stdio) Receive(ctx context.Context, line []byte) error {
	if _, err := std.w.Write(line); err != nil {
		return err
	}
	if _, err := std.w.Write(eol[:]); err != nil {
		return err
	}
	if std.opts.LineBuffered {
		return std.w.Flush()
	}
	return nil
}

func (std *Stdio) ReceiveBatch(ctx context.Context, lines [][]byte) error {
	for _, line := range lines {
		if _, err := std.w.Write(line); err != nil {
			return err
		}
		if _, err := std.w.Write(eol[:]); err != nil {
			return err
		}
	}
	return std.w.Flush()
}

func (std *Stdio) Close(ctx context.Context) error {
	return std.w.Flush()
}
