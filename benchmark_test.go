package grcat

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/humanlogio/grcat/pkg/colorize"
	"github.com/humanlogio/grcat/pkg/grcconf"
	"github.com/stretchr/testify/require"
)

type nopSink struct{}

func (nopSink) Receive(ctx context.Context, line []byte) error { return nil }
func (nopSink) Close(ctx context.Context) error                { return nil }

func BenchmarkHarness(b *testing.B) {
	ctx := context.Background()
	root := "test/cases"
	des, err := os.ReadDir(root)
	if err != nil {
		b.Fatal(err)
	}

	for _, de := range des {
		if !de.IsDir() {
			continue
		}
		dir := filepath.Join(root, de.Name())
		b.Run(de.Name(), func(bb *testing.B) {
			conf, err := os.ReadFile(filepath.Join(dir, "conf"))
			require.NoError(bb, err)
			input, err := os.ReadFile(filepath.Join(dir, "input"))
			require.NoError(bb, err)
			// enough lines for per-line costs to dominate
			src := bytes.Repeat(input, 1000)

			cfg, err := grcconf.ParseString(string(conf), nil)
			require.NoError(bb, err)

			bb.SetBytes(int64(len(src)))
			bb.ReportAllocs()
			bb.ResetTimer()
			for i := 0; i < bb.N; i++ {
				err := Scan(ctx, bytes.NewReader(src), nopSink{}, colorize.New(cfg), nil)
				if err != nil {
					bb.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEngineProcess(b *testing.B) {
	cfg, err := grcconf.ParseString(`regexp=\b(\d{1,3}\.){3}\d{1,3}\b
colours=bold magenta

regexp=time=([\d.]+) ms
colours=unchanged,green

regexp=(?i)\berror\b
colours=bold red
count=stop

regexp=\d+
colours=yellow
`, nil)
	require.NoError(b, err)
	lines := []string{
		"64 bytes from 10.0.0.1: icmp_seq=1 ttl=64 time=0.042 ms",
		"an Error occurred at 192.168.1.1 after 3 retries",
		strings.Repeat("nothing interesting ", 8),
	}
	eng := colorize.New(cfg)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		eng.Process(lines[i%len(lines)])
	}
}
