package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/basewarphq/bwcss/cmd/internal/twcfg"
	"go.uber.org/zap"
)

type BinaryCmd struct{}

func (c *BinaryCmd) Run(cfg *twcfg.Config, log *zap.Logger) error {
	ctx := context.Background()

	res, err := newResolver(cfg, log)
	if err != nil {
		return err
	}
	bin, err := res.Locate(ctx)
	if err != nil {
		return err
	}

	bld, err := newBuilder(cfg, log)
	if err != nil {
		return err
	}
	v4, err := bld.IsBinaryV4OrLater(ctx)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(writer, "PATH\t%s\n", bin.Path())
	fmt.Fprintf(writer, "VERSION\t%s\n", bin.Version())
	fmt.Fprintf(writer, "V4\t%s\n", strconv.FormatBool(v4))
	return writer.Flush()
}
