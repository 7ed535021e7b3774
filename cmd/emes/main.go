// Package main implements the main entry point for the ES5506 and SN76489
// song player.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/afero"
	"github.com/user-none/emes/cli"
	"github.com/user-none/emes/config"
)

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags()
	if err != nil {
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			usageErr.ShowUsage()
		} else {
			logger := config.CreateLogger(opts.Debug, opts.Quiet)
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	fs := afero.NewOsFs()

	if err := run(ctx, logger, fs, opts); err != nil {
		// Handle context cancellation (Ctrl+C) gracefully
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Fatal("Playback failed", log.Err(err))
	}
}

func run(ctx context.Context, logger *log.Logger, fs afero.Fs, opts config.Options) error {
	if !opts.Play {
		return cli.RenderAll(ctx, logger, fs, opts)
	}

	e, err := cli.NewEngine(fs, opts.Songs[0], opts)
	if err != nil {
		return err
	}
	if err := cli.Play(ctx, logger, e, opts.Volume, opts.Seconds); err != nil {
		return err
	}
	if opts.Dump != "" {
		return e.SaveDump(fs, opts.Dump)
	}
	return nil
}
