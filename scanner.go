package grcat

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"unicode/utf8"

	"github.com/humanlogio/grcat/pkg/sink"
)

const maxBufferSize = 1024 * 1024

// Processor recolors a single line, or reports it as suppressed.
type Processor interface {
	Process(line string) (string, bool)
}

type ScanOptions struct {
	Logger *slog.Logger
}

var DefaultScanOptions = &ScanOptions{
	Logger: slog.New(slog.DiscardHandler),
}

// Scan reads lines from src, recolors them with proc and hands them to sink,
// one output line per input line unless proc suppresses it. Lines that are
// not valid UTF-8 are passed through untouched.
func Scan(ctx context.Context, src io.Reader, sink sink.Sink, proc Processor, opts *ScanOptions) error {
	if opts == nil {
		opts = DefaultScanOptions
	}
	ll := opts.Logger

	in := bufio.NewScanner(src)
	in.Buffer(make([]byte, 0, 64*1024), maxBufferSize)
	in.Split(bufio.ScanLines)

	var (
		line          uint64
		suppressed    uint64
		decodeSkipped uint64
	)
	defer func() {
		ll.Debug("scan done",
			slog.Uint64("lines", line),
			slog.Uint64("suppressed", suppressed),
			slog.Uint64("decode_skipped", decodeSkipped),
		)
	}()

	skipNextScan := false
	for {
		if !in.Scan() {
			err := in.Err()
			if err == nil || errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, bufio.ErrTooLong) {
				ll.Warn("dropping line longer than buffer", slog.Uint64("after_line", line), slog.Int("max_size", maxBufferSize))
				in = bufio.NewScanner(src)
				in.Buffer(make([]byte, 0, 64*1024), maxBufferSize)
				in.Split(bufio.ScanLines)
				skipNextScan = true
				continue
			}
			return err
		}
		if skipNextScan {
			skipNextScan = false
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line++
		lineData := in.Bytes()

		if !utf8.Valid(lineData) {
			decodeSkipped++
			ll.Debug("line is not valid utf-8, passing through", slog.Uint64("line", line))
			if err := sink.Receive(ctx, lineData); err != nil {
				return err
			}
		} else if out, ok := proc.Process(string(lineData)); ok {
			if err := sink.Receive(ctx, []byte(out)); err != nil {
				return err
			}
		} else {
			suppressed++
		}
	}
	return nil
}
