package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/basewarphq/bwcss/bwtailwind"
	"github.com/basewarphq/bwcss/cmd/internal/twcfg"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type BuildCmd struct {
	Input   string `arg:"" optional:"" help:"Input CSS file; defaults to the first configured one."`
	Watch   bool   `short:"w" help:"Keep running and rebuild when sources change."`
	Poll    bool   `help:"Poll for changes instead of using filesystem events (with --watch)."`
	Minify  bool   `short:"m" help:"Minify the built CSS."`
	PostCSS string `name:"postcss" help:"PostCSS config file (Tailwind v3 only)."`
}

func (c *BuildCmd) Run(cfg *twcfg.Config, log *zap.Logger) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bld, err := newBuilder(cfg, log)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(bld.VarDir(), 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", bld.VarDir())
	}

	// The process must outlive the signal: a watch build is stopped by
	// closing its stdin, not by killing it.
	run, err := bld.Build(context.Background(), bwtailwind.BuildOptions{
		Watch:         c.Watch,
		Poll:          c.Poll,
		Minify:        c.Minify,
		InputFile:     c.Input,
		PostCSSConfig: c.PostCSS,
	})
	if err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigCtx.Done():
			log.Info("stopping tailwind")
			_ = run.Stop()
		case <-done:
		}
	}()

	waitErr := run.Process.Wait()
	if c.Watch && sigCtx.Err() != nil {
		return nil
	}
	if waitErr != nil {
		return errors.Wrap(waitErr, "building tailwind css")
	}

	input := c.Input
	if input == "" {
		input = bld.InputPaths()[0]
	}
	log.Info("built tailwind css", zap.String("output", bld.OutputPath(input)))
	return nil
}
