// Package main provides hookcheck, a command that renders sample hook cards
// and reports whether the compositor behaves.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/maauso/openshorts-hooks/internal/config"
	"github.com/maauso/openshorts-hooks/internal/hook"
	"github.com/maauso/openshorts-hooks/internal/verify"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("hookcheck", pflag.ContinueOnError)
	checks := flags.StringP("check", "c", verify.CheckAll, "checks to run: basic, aesthetic, scale or all (comma-separated)")
	keep := flags.Bool("keep", false, "keep generated images")
	dir := flags.StringP("dir", "d", ".", "directory for generated images")
	offline := flags.Bool("offline", false, "render with the embedded font instead of downloading the display font")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	names, err := verify.ParseChecks(*checks)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var fonts hook.FaceSource = hook.FallbackSource{}
	if !*offline {
		loader := hook.NewFontLoader(cfg.FontDir, cfg.FontURL, hook.WithFontLogger(logger))
		_ = loader.Ensure(ctx)
		fonts = loader
	}

	if err := os.MkdirAll(*dir, 0750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	runner := verify.NewRunner(hook.NewCompositor(fonts, logger), *dir,
		verify.WithKeep(*keep),
		verify.WithLogger(logger),
	)
	if !verify.Report(os.Stdout, runner.Run(ctx, names)) {
		return errors.New("hook checks failed")
	}
	return nil
}
