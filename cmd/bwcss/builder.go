package main

import (
	"os"
	"path/filepath"

	"github.com/basewarphq/bwcss/bwtailwind"
	"github.com/basewarphq/bwcss/bwtailwind/twbinary"
	"github.com/basewarphq/bwcss/cmd/internal/twcfg"
	"go.uber.org/zap"
)

const versionCacheFile = "versions.json"

func newResolver(cfg *twcfg.Config, log *zap.Logger) (*twbinary.Resolver, error) {
	cache, err := twbinary.OpenFileCache(filepath.Join(cfg.VarDirPath(), versionCacheFile))
	if err != nil {
		return nil, err
	}
	return twbinary.New(twbinary.Options{
		ProjectDir: cfg.Root,
		VarDir:     cfg.VarDir,
		BinaryPath: cfg.Binary,
		Version:    cfg.BinaryVersion,
		Cache:      cache,
		Logger:     log,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}), nil
}

func newBuilder(cfg *twcfg.Config, log *zap.Logger) (*bwtailwind.Builder, error) {
	res, err := newResolver(cfg, log)
	if err != nil {
		return nil, err
	}
	return bwtailwind.New(cfg.Builder(), res,
		bwtailwind.WithLogger(log),
		bwtailwind.WithVerbose(cfg.Verbose),
	)
}
