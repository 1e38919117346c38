// Package hooks runs the side effects a rule file can attach to a match:
// shell commands (command=) and appending the line to a file (concat=).
package hooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"github.com/cli/safeexec"
	"github.com/mitchellh/go-homedir"
)

type Runner struct {
	ctx    context.Context
	logger *slog.Logger

	allowCommands bool
	shell         string
	shellSwitch   string
	stdout        io.Writer
	stderr        io.Writer

	files map[string]*os.File
}

type Options struct {
	AllowCommands bool
	// Command output must not end up in the colored stream, so it goes to
	// stderr unless told otherwise.
	Stdout io.Writer
	Stderr io.Writer
}

func NewRunner(ctx context.Context, ll *slog.Logger, opts Options) *Runner {
	shell := os.Getenv("SHELL")
	shellSwitch := "-c"
	if shell == "" {
		if runtime.GOOS == "windows" {
			shell = "powershell.exe"
			shellSwitch = "-Command"
		} else {
			shell = "/bin/sh"
		}
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stderr
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Runner{
		ctx:           ctx,
		logger:        ll,
		allowCommands: opts.AllowCommands,
		shell:         shell,
		shellSwitch:   shellSwitch,
		stdout:        opts.Stdout,
		stderr:        opts.Stderr,
		files:         make(map[string]*os.File),
	}
}

// Command runs command through the user's shell and waits for it.
func (r *Runner) Command(command string) {
	if !r.allowCommands {
		r.logger.Debug("ignoring rule command, commands are disabled", slog.String("command", command))
		return
	}
	if err := r.runCommand(command); err != nil {
		r.logger.Warn("rule command failed", slog.String("command", command), slog.Any("err", err))
	}
}

func (r *Runner) runCommand(command string) error {
	shell, err := safeexec.LookPath(r.shell)
	if err != nil {
		return fmt.Errorf("looking up shell %q: %v", r.shell, err)
	}
	cmd := exec.CommandContext(r.ctx, shell, r.shellSwitch, command)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %q: %v", command, err)
	}
	return nil
}

// Concat appends line to the file at path. Files stay open until Close.
func (r *Runner) Concat(path, line string) {
	if err := r.concat(path, line); err != nil {
		r.logger.Warn("rule concat failed", slog.String("path", path), slog.Any("err", err))
	}
}

func (r *Runner) concat(path, line string) error {
	f, ok := r.files[path]
	if !ok {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return err
		}
		f, err = os.OpenFile(expanded, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("opening concat file: %w", err)
		}
		r.files[path] = f
	}
	if _, err := io.WriteString(f, line+"\n"); err != nil {
		return fmt.Errorf("appending to concat file: %w", err)
	}
	return nil
}

func (r *Runner) Close() error {
	var firstErr error
	for path, f := range r.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing %q: %w", path, err)
		}
		delete(r.files, path)
	}
	return firstErr
}
