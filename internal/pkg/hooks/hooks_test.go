package hooks

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunnerConcat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "matches.log")

	r := NewRunner(ctx, slog.New(slog.DiscardHandler), Options{})
	r.Concat(path, "first match")
	r.Concat(path, "second match")
	require.NoError(t, r.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first match\nsecond match\n", string(got))

	r = NewRunner(ctx, slog.New(slog.DiscardHandler), Options{})
	r.Concat(path, "appended later")
	require.NoError(t, r.Close())

	got, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first match\nsecond match\nappended later\n", string(got))
}

func TestRunnerCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a posix shell")
	}
	t.Setenv("SHELL", "/bin/sh")
	ctx := context.Background()

	stdout := bytes.NewBuffer(nil)
	r := NewRunner(ctx, slog.New(slog.DiscardHandler), Options{AllowCommands: true, Stdout: stdout})
	r.Command("echo matched")
	require.Equal(t, "matched\n", stdout.String())

	stdout.Reset()
	r = NewRunner(ctx, slog.New(slog.DiscardHandler), Options{AllowCommands: false, Stdout: stdout})
	r.Command("echo matched")
	require.Empty(t, stdout.String())
}

func TestRunnerCommandFailureIsLogged(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a posix shell")
	}
	t.Setenv("SHELL", "/bin/sh")

	logs := bytes.NewBuffer(nil)
	ll := slog.New(slog.NewTextHandler(logs, nil))
	r := NewRunner(context.Background(), ll, Options{AllowCommands: true, Stderr: bytes.NewBuffer(nil)})
	r.Command("exit 3")
	require.Contains(t, logs.String(), "rule command failed")
}
