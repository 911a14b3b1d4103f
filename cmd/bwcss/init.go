package main

import (
	"context"

	"github.com/basewarphq/bwcss/cmd/internal/twcfg"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type InitCmd struct{}

func (c *InitCmd) Run(cfg *twcfg.Config, log *zap.Logger) error {
	ctx := context.Background()

	bld, err := newBuilder(cfg, log)
	if err != nil {
		return err
	}

	run, err := bld.Init(ctx)
	if err != nil {
		return err
	}
	if err := run.Process.Wait(); err != nil {
		return errors.Wrap(err, "initializing tailwind")
	}
	return nil
}
