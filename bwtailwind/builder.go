package bwtailwind

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// DefaultConfigFile is the Tailwind config file used when Config.ConfigFile is empty.
const DefaultConfigFile = "tailwind.config.js"

// Process is a spawned Tailwind invocation.
type Process interface {
	// SetTimeout limits the run time once started; zero means unbounded.
	SetTimeout(d time.Duration)
	StdinPipe() (io.WriteCloser, error)
	CommandLine() string
	Start(ctx context.Context) error
	Wait() error
}

// Binary is a runnable Tailwind executable.
type Binary interface {
	// Version is "v<semver>" or a sentinel when it could not be determined.
	Version() string
	Command(args ...string) Process
}

// BinaryResolver locates the Tailwind binary. It is asked again on every
// build and init.
type BinaryResolver interface {
	Resolve(ctx context.Context) (Binary, error)
}

type Config struct {
	// ProjectDir is the absolute project root.
	ProjectDir string
	// InputCSS lists the stylesheets that may be built, in order. The first
	// one is built when no input is requested explicitly.
	InputCSS []string
	// VarDir receives the built CSS. Relative to ProjectDir unless absolute.
	VarDir string
	// BinaryPath and BinaryVersion are passed through to the resolver.
	BinaryPath    string
	BinaryVersion string
	// ConfigFile is the Tailwind config, DefaultConfigFile when empty.
	ConfigFile string
	// PostCSSConfig is used by builds that do not set their own.
	PostCSSConfig string
}

type BuildOptions struct {
	Watch bool
	// Poll only has an effect together with Watch.
	Poll   bool
	Minify bool
	// InputFile selects one of the configured inputs.
	InputFile string
	// PostCSSConfig overrides Config.PostCSSConfig.
	PostCSSConfig string
}

// Run is a started invocation. The caller owns waiting for or stopping it.
type Run struct {
	Process Process
	// Stdin is the open input stream of a watch build, nil otherwise.
	Stdin io.WriteCloser
}

// Stop closes the input stream of a watch build, which makes the binary
// exit. It is a no-op for other runs.
func (r *Run) Stop() error {
	if r.Stdin == nil {
		return nil
	}
	return r.Stdin.Close()
}

type Option func(*Builder)

// WithLogger sets the logger used to echo command lines in verbose mode.
func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// WithVerbose echoes every command line before it is started.
func WithVerbose(verbose bool) Option {
	return func(b *Builder) {
		b.verbose = verbose
	}
}

type Builder struct {
	projectDir    string
	inputPaths    []string
	varDir        string
	configFile    string
	postCSSConfig string
	resolver      BinaryResolver
	log           *zap.Logger
	verbose       bool
}

// New validates cfg and returns a Builder. Every input stylesheet must exist.
func New(cfg Config, resolver BinaryResolver, opts ...Option) (*Builder, error) {
	if !filepath.IsAbs(cfg.ProjectDir) {
		return nil, errors.Newf("project dir must be absolute, got %q", cfg.ProjectDir)
	}
	if resolver == nil {
		return nil, errors.New("binary resolver is required")
	}

	inputs := make([]string, 0, len(cfg.InputCSS))
	for _, in := range cfg.InputCSS {
		resolved, err := ResolvePath(cfg.ProjectDir, in)
		if err != nil {
			return nil, errors.Wrap(err, "input css")
		}
		inputs = append(inputs, resolved)
	}

	configFile := cfg.ConfigFile
	if configFile == "" {
		configFile = DefaultConfigFile
	}

	bld := &Builder{
		projectDir:    cfg.ProjectDir,
		inputPaths:    inputs,
		varDir:        projectPath(cfg.ProjectDir, cfg.VarDir),
		configFile:    projectPath(cfg.ProjectDir, configFile),
		postCSSConfig: cfg.PostCSSConfig,
		resolver:      resolver,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(bld)
	}
	return bld, nil
}

func projectPath(projectDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectDir, path)
}

// InputPaths returns the resolved input stylesheets in configuration order.
func (b *Builder) InputPaths() []string {
	return slices.Clone(b.inputPaths)
}

func (b *Builder) ConfigFile() string { return b.configFile }

func (b *Builder) VarDir() string { return b.varDir }

// OutputPath returns where the binary writes the CSS built from input. Only
// the file name of input is used.
func (b *Builder) OutputPath(input string) string {
	return outputPath(b.varDir, input)
}

// OutputCSS returns the built CSS for input.
func (b *Builder) OutputCSS(input string) (string, error) {
	path := b.OutputPath(input)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", errors.Mark(errors.Newf(
			"built CSS file %q does not exist: run the build command to generate it", path), ErrNotBuiltYet)
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	return string(data), nil
}

// IsBinaryV4OrLater resolves the binary and reports whether it is Tailwind v4 or later.
func (b *Builder) IsBinaryV4OrLater(ctx context.Context) (bool, error) {
	bin, err := b.resolver.Resolve(ctx)
	if err != nil {
		return false, err
	}
	return IsV4OrLater(bin.Version()), nil
}

// BuildArgs validates opts against the configuration and returns the
// argument vector for a binary reporting binaryVersion.
func (b *Builder) BuildArgs(opts BuildOptions, binaryVersion string) ([]string, error) {
	input, err := b.inputFor(opts.InputFile)
	if err != nil {
		return nil, err
	}

	postCSS := opts.PostCSSConfig
	if postCSS == "" {
		postCSS = b.postCSSConfig
	}
	if postCSS != "" {
		if postCSS, err = ResolvePath(b.projectDir, postCSS); err != nil {
			return nil, errors.Wrap(err, "postcss config")
		}
		if IsV4OrLater(binaryVersion) {
			return nil, errors.Mark(errors.Newf(
				"tailwind %s does not support a PostCSS config file (%q): remove the option or pin a v3 binary",
				binaryVersion, postCSS), ErrIncompatibleOption)
		}
	}

	args := []string{
		"-c", b.configFile,
		"-i", input,
		"-o", b.OutputPath(input),
	}
	if opts.Watch {
		args = append(args, "--watch")
		if opts.Poll {
			args = append(args, "--poll")
		}
	}
	if opts.Minify {
		args = append(args, "--minify")
	}
	if postCSS != "" {
		args = append(args, "--postcss", postCSS)
	}
	return args, nil
}

func (b *Builder) inputFor(requested string) (string, error) {
	if requested == "" {
		if len(b.inputPaths) == 0 {
			return "", errors.Mark(errors.New("no input css files are configured"), ErrInvalidInput)
		}
		return b.inputPaths[0], nil
	}

	resolved, err := ResolvePath(b.projectDir, requested)
	if err != nil {
		return "", errors.Wrap(err, "input css")
	}
	if !slices.Contains(b.inputPaths, resolved) {
		return "", errors.Mark(errors.Newf(
			"the input file %q is not one of the configured input files", requested), ErrInvalidInput)
	}
	return resolved, nil
}

// Build starts the binary for opts and returns without waiting. Watch builds
// get no timeout and an open stdin stream in Run.Stdin.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) (*Run, error) {
	bin, err := b.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	args, err := b.BuildArgs(opts, bin.Version())
	if err != nil {
		return nil, err
	}

	run := &Run{Process: bin.Command(args...)}
	if opts.Watch {
		run.Process.SetTimeout(0)
		if run.Stdin, err = run.Process.StdinPipe(); err != nil {
			return nil, errors.Wrap(err, "attaching stdin")
		}
	}

	if err := b.start(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// Init starts "tailwindcss init" and returns without waiting.
func (b *Builder) Init(ctx context.Context) (*Run, error) {
	bin, err := b.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	run := &Run{Process: bin.Command("init")}
	if err := b.start(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (b *Builder) start(ctx context.Context, run *Run) error {
	if b.verbose {
		b.log.Info("running tailwind", zap.String("command", run.Process.CommandLine()))
	}
	if err := run.Process.Start(ctx); err != nil {
		_ = run.Stop()
		return errors.Wrap(err, "starting tailwind")
	}
	return nil
}
