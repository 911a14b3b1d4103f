package main

import (
	"context"
	"fmt"
	"os"

	"github.com/basewarphq/bwcss/bwtailwind"
	"github.com/basewarphq/bwcss/cmd/internal/doctor"
	"github.com/basewarphq/bwcss/cmd/internal/twcfg"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type DoctorCmd struct{}

func (c *DoctorCmd) Run(cfg *twcfg.Config, log *zap.Logger) error {
	ctx := context.Background()

	res, err := newResolver(cfg, log)
	if err != nil {
		return err
	}

	binVersion := ""
	checks := []doctor.Check{{
		Name: "tailwind binary",
		Run: func(ctx context.Context) (string, error) {
			bin, err := res.Locate(ctx)
			if err != nil {
				return "", err
			}
			binVersion = bin.Version()
			return fmt.Sprintf("%s (%s)", bin.Path(), binVersion), nil
		},
	}}

	reqs := make([]doctor.FileRequirement, 0, len(cfg.InputCSS))
	for _, in := range cfg.InputCSS {
		reqs = append(reqs, doctor.FileRequirement{Path: in, Reason: "input css"})
	}
	checks = append(checks, doctor.FilesCheck(cfg.Root, reqs)...)

	checks = append(checks, doctor.Check{
		Name: cfg.ConfigFile,
		Run: func(context.Context) (string, error) {
			err := doctor.CheckFiles(cfg.Root, []doctor.FileRequirement{
				{Path: cfg.ConfigFile, Reason: "tailwind config, create it with `bwcss init`"},
			})
			if err != nil && bwtailwind.IsV4OrLater(binVersion) {
				return "not needed by tailwind " + binVersion, nil
			}
			return "tailwind config", err
		},
	})

	if cfg.PostCSSConfig != "" {
		checks = append(checks, doctor.Check{
			Name: cfg.PostCSSConfig,
			Run: func(context.Context) (string, error) {
				if _, err := bwtailwind.ResolvePath(cfg.Root, cfg.PostCSSConfig); err != nil {
					return "", err
				}
				if bwtailwind.IsV4OrLater(binVersion) {
					return "", errors.Mark(errors.Newf(
						"tailwind %s does not support a PostCSS config file", binVersion), bwtailwind.ErrIncompatibleOption)
				}
				return "postcss config", nil
			},
		})
	}

	if err := doctor.Run(ctx, checks, cliReporter{}); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "All checks passed.")
	return nil
}
