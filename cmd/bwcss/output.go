package main

import (
	"fmt"
	"os"

	"github.com/basewarphq/bwcss/cmd/internal/twcfg"
	"go.uber.org/zap"
)

type OutputCmd struct {
	Input string `arg:"" optional:"" help:"Input CSS file; defaults to the first configured one."`
}

func (c *OutputCmd) Run(cfg *twcfg.Config, log *zap.Logger) error {
	bld, err := newBuilder(cfg, log)
	if err != nil {
		return err
	}

	input := c.Input
	if input == "" {
		input = bld.InputPaths()[0]
	}

	css, err := bld.OutputCSS(input)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(os.Stdout, css)
	return err
}
