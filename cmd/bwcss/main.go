package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/basewarphq/bwcss/cmd/internal/twcfg"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type App struct {
	Version kong.VersionFlag `help:"Show version."`
	Verbose bool             `short:"v" help:"Print every Tailwind command line before it runs."`

	Build  BuildCmd  `cmd:"" help:"Build the CSS for one of the configured input files."`
	Init   InitCmd   `cmd:"" help:"Create a Tailwind config file with the Tailwind CLI."`
	Output OutputCmd `cmd:"" help:"Print the built CSS for an input file."`
	Binary BinaryCmd `cmd:"" help:"Show the resolved Tailwind binary and its version."`
	Doctor DoctorCmd `cmd:"" help:"Check input files, config files and the Tailwind binary."`
}

func main() {
	cfg, err := twcfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var app App
	ctx := kong.Parse(&app,
		kong.Name("bwcss"),
		kong.Description("Tailwind CSS build CLI."),
		kong.Vars{"version": version},
		kong.Bind(cfg),
	)

	cfg.Verbose = cfg.Verbose || app.Verbose

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := ctx.Run(log); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		_ = log.Sync()
		os.Exit(1)
	}
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.DisableCaller = true
	zcfg.DisableStacktrace = true
	zcfg.EncoderConfig.TimeKey = ""
	return zcfg.Build()
}
