package bufsink

import (
	"bytes"
	"context"

	"github.com/humanlogio/grcat/pkg/sink"
)

type SizedBuffer struct {
	size     int
	Buffered [][]byte
	flush    sink.BatchSink
}

var _ sink.Sink = (*SizedBuffer)(nil)

// NewSizedBufferedSink hands lines to flush in batches of size. With a nil
// flush, lines accumulate in Buffered.
func NewSizedBufferedSink(size int, flush sink.BatchSink) *SizedBuffer {
	return &SizedBuffer{
		size:     size,
		Buffered: make([][]byte, 0, size),
		flush:    flush,
	}
}

func (sn *SizedBuffer) Close(ctx context.Context) error {
	if sn.flush == nil || len(sn.Buffered) == 0 {
		return nil
	}
	if err := sn.flush.ReceiveBatch(ctx, sn.Buffered); err != nil {
		return err
	}
	sn.Buffered = sn.Buffered[:0:sn.size]
	return nil
}

func (sn *SizedBuffer) Receive(ctx context.Context, line []byte) error {
	sn.Buffered = append(sn.Buffered, bytes.Clone(line))
	if sn.flush != nil && len(sn.Buffered) == sn.size {
		if err := sn.flush.ReceiveBatch(ctx, sn.Buffered); err != nil {
			sn.Buffered = sn.Buffered[:len(sn.Buffered)-1]
			return err
		}
		sn.Buffered = sn.Buffered[:0:sn.size]
	}
	return nil
}

// Lines returns the buffered lines as strings.
func (sn *SizedBuffer) Lines() []string {
	out := make([]string, len(sn.Buffered))
	for i, line := range sn.Buffered {
		out[i] = string(line)
	}
	return out
}
