package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aybabtme/rgbterm"
	"github.com/fatih/color"
	"github.com/humanlogio/grcat"
	"github.com/humanlogio/grcat/internal/errutil"
	"github.com/humanlogio/grcat/internal/pkg/config"
	"github.com/humanlogio/grcat/internal/pkg/hooks"
	"github.com/humanlogio/grcat/pkg/colorize"
	"github.com/humanlogio/grcat/pkg/grcconf"
	"github.com/humanlogio/grcat/pkg/sink/stdiosink"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli"
)

var version = "devel"

const (
	flagColor      = "color"
	flagNoCommands = "no-commands"
	flagPrefs      = "prefs"
)

func fatalf(c *cli.Context, format string, args ...interface{}) {
	log.Printf(format, args...)
	cli.ShowAppHelp(c)
	os.Exit(1)
}

func main() {
	// a closed stdout must surface as EPIPE instead of killing the process
	signal.Ignore(syscall.SIGPIPE)

	app := newApp(os.Stdin, stdoutWriter{colorable.NewColorableStdout()}, os.Stderr)

	prefix := rgbterm.FgString(app.Name+"> ", 99, 99, 99)

	log.SetFlags(0)
	log.SetPrefix(prefix)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	colorFlag := cli.StringFlag{
		Name:  flagColor,
		Usage: "when to emit escape sequences: auto, on or off",
	}
	noCommandsFlag := cli.BoolFlag{
		Name:  flagNoCommands,
		Usage: "do not run the command= of matching rules",
	}
	prefsFlag := cli.StringFlag{
		Name:  flagPrefs,
		Usage: "preferences file to read",
		Value: config.GetDefaultConfigFilepath(),
	}

	app := cli.NewApp()
	app.Name = "grcat"
	app.Version = version
	app.Usage = "colorizes stdin on stdout using a grc rule file"
	app.ArgsUsage = "CONFFILE"
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = []cli.Flag{colorFlag, noCommandsFlag, prefsFlag}

	app.Action = func(c *cli.Context) error {
		if c.NArg() != 1 {
			fatalf(c, "expected exactly one rule file, got %d arguments", c.NArg())
		}
		ll := newLogger(stderr, app.Name)

		prefs, err := config.ReadConfigFile(c.String(prefsFlag.Name), &config.DefaultConfig)
		if err != nil {
			return fmt.Errorf("reading preferences: %v", err)
		}
		mode := ""
		if prefs.ColorMode != nil {
			mode = *prefs.ColorMode
		}
		if c.IsSet(colorFlag.Name) {
			mode = c.String(colorFlag.Name)
		}
		colorMode, err := config.GrokColorMode(mode)
		if err != nil {
			return fmt.Errorf("invalid --%s: %v", flagColor, err)
		}
		noColor := useNoColor(colorMode, stdout)

		searchPaths := config.DefaultSearchPaths()
		if prefs.SearchPaths != nil {
			searchPaths = *prefs.SearchPaths
		}
		path, err := config.FindRuleFile(c.Args().First(), searchPaths)
		if err != nil {
			return err
		}
		matchTimeout := grcconf.DefaultParseOptions.MatchTimeout
		if prefs.MatchTimeout != nil {
			matchTimeout = *prefs.MatchTimeout
		}
		rules, err := readRuleFile(path, matchTimeout)
		if err != nil {
			return err
		}
		ll.Debug("loaded rule file", slog.String("path", path), slog.Int("rules", len(rules.Rules)))

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		runner := hooks.NewRunner(ctx, ll, hooks.Options{
			AllowCommands: (prefs.AllowCommands == nil || *prefs.AllowCommands) && !c.Bool(noCommandsFlag.Name),
			Stdout:        stderr,
			Stderr:        stderr,
		})
		defer func() {
			if err := runner.Close(); err != nil {
				ll.Error("closing concat files", slog.Any("err", err))
			}
		}()

		eng := colorize.New(rules,
			colorize.WithNoColor(noColor),
			colorize.WithLogger(ll),
			colorize.WithCommandHook(runner.Command),
			colorize.WithConcatHook(runner.Concat),
		)

		sink := stdiosink.NewStdio(stdout, stdiosink.DefaultStdioOpts)
		err = grcat.Scan(ctx, stdin, sink, eng, &grcat.ScanOptions{Logger: ll})
		if err == nil {
			err = sink.Close(ctx)
		}
		if errutil.IsBrokenPipe(err) {
			ll.Debug("output closed, stopping")
			return nil
		}
		if err != nil {
			return fmt.Errorf("scanning caught an error: %v", err)
		}
		for _, st := range eng.Stats() {
			ll.Debug("rule stats",
				slog.Int("stanza", st.Stanza),
				slog.Int("line", st.Line),
				slog.String("count", st.Count.String()),
				slog.Bool("has_fired", st.HasFired),
				slog.Uint64("fired", st.Fired),
			)
		}
		return nil
	}
	return app
}

func readRuleFile(path string, matchTimeout time.Duration) (*grcconf.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rule file: %v", err)
	}
	defer f.Close()
	opts := *grcconf.DefaultParseOptions
	opts.MatchTimeout = matchTimeout
	rules, err := grcconf.Parse(f, &opts)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rules, nil
}

// autoNoColor is fatih/color's verdict for the process stdout, taken before
// any mode overrides it.
var autoNoColor = color.NoColor

func useNoColor(mode config.ColorMode, out io.Writer) bool {
	switch mode {
	case config.ColorModeOn:
		color.NoColor = false
	case config.ColorModeOff:
		color.NoColor = true
	default:
		if _, ok := out.(stdoutWriter); ok {
			color.NoColor = autoNoColor
		} else {
			color.NoColor = !isTerminal(out)
		}
	}
	return color.NoColor
}

// stdoutWriter marks the process stdout, possibly wrapped by go-colorable.
type stdoutWriter struct {
	io.Writer
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
