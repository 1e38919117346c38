package sink

import (
	"context"
)

// Sink receives output lines, without their trailing newline.
type Sink interface {
	Receive(ctx context.Context, line []byte) error
	Close(ctx context.Context) error
}

type BatchSink interface {
	ReceiveBatch(ctx context.Context, lines [][]byte) error
}
