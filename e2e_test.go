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
	"github.com/humanlogio/grcat/pkg/sink/stdiosink"
	"github.com/stretchr/testify/require"
)

func TestHarness(t *testing.T) {
	root := "test/cases"
	des, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, de := range des {
		if !de.IsDir() {
			continue
		}
		testCase := de.Name()
		t.Run(testCase, func(t *testing.T) {
			dir := filepath.Join(root, testCase)
			conf, err := os.Open(filepath.Join(dir, "conf"))
			require.NoError(t, err)
			defer conf.Close()
			input, err := os.ReadFile(filepath.Join(dir, "input"))
			require.NoError(t, err)
			want, err := os.ReadFile(filepath.Join(dir, "want"))
			require.NoError(t, err)

			cfg, err := grcconf.Parse(conf, nil)
			require.NoError(t, err)

			gotw := bytes.NewBuffer(nil)
			sink := stdiosink.NewStdio(gotw, stdiosink.DefaultStdioOpts)
			err = Scan(context.Background(), bytes.NewReader(input), sink, colorize.New(cfg), nil)
			require.NoError(t, err)
			require.NoError(t, sink.Close(context.Background()))

			wantLines := strings.Split(string(want), "\n")
			gotLines := strings.Split(gotw.String(), "\n")
			for i := 0; i < len(wantLines) && i < len(gotLines); i++ {
				if wantLines[i] != gotLines[i] {
					t.Errorf("line %d mismatch", i+1)
					t.Errorf("want %q", wantLines[i])
					t.Errorf("got  %q", gotLines[i])
				}
			}
			require.Len(t, gotLines, len(wantLines))
		})
	}
}
