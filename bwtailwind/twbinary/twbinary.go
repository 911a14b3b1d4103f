// Package twbinary locates the Tailwind CSS standalone binary and reports its
// version. It does not download binaries: a pinned version is expected to be
// installed under <var-dir>/<version>/<platform asset name>.
package twbinary

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	"github.com/basewarphq/bwcss/bwtailwind"
	"github.com/basewarphq/bwcss/internal/cmdexec"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// VersionUnknown is reported when the binary's version cannot be detected.
const VersionUnknown = "unknown"

// DefaultCommand is looked up on PATH when nothing more specific is configured.
const DefaultCommand = "tailwindcss"

var ErrBinaryNotFound = errors.New("tailwind binary not found")

var versionPattern = regexp.MustCompile(`v\d+\.\d+\.\d+(?:-[0-9A-Za-z.]+)?`)

type Options struct {
	// ProjectDir is the absolute project root; processes run there.
	ProjectDir string
	// VarDir holds installed binaries, relative to ProjectDir unless absolute.
	VarDir string
	// BinaryPath is an explicit binary, relative to ProjectDir unless absolute.
	BinaryPath string
	// Version pins a "v"-prefixed release.
	Version string
	// Cache remembers detected versions; a MemoryCache when nil.
	Cache Cache
	// Command is the PATH lookup name, DefaultCommand when empty.
	Command string
	Logger  *zap.Logger
	// Stdout and Stderr receive the output of started processes.
	Stdout io.Writer
	Stderr io.Writer
}

type Resolver struct {
	opts Options
	log  *zap.Logger
}

func New(opts Options) *Resolver {
	if opts.Cache == nil {
		opts.Cache = NewMemoryCache()
	}
	if opts.Command == "" {
		opts.Command = DefaultCommand
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{opts: opts, log: log}
}

// Binary is a located executable.
type Binary struct {
	path    string
	version string
	dir     string
	stdout  io.Writer
	stderr  io.Writer
}

func (b *Binary) Path() string { return b.path }

func (b *Binary) Version() string { return b.version }

func (b *Binary) Command(args ...string) bwtailwind.Process {
	proc := cmdexec.New(b.dir, b.path, args...)
	proc.Stdout = b.stdout
	proc.Stderr = b.stderr
	return proc
}

func (r *Resolver) Resolve(ctx context.Context) (bwtailwind.Binary, error) {
	bin, err := r.Locate(ctx)
	if err != nil {
		return nil, err
	}
	return bin, nil
}

// Locate is Resolve with the concrete return type.
func (r *Resolver) Locate(ctx context.Context) (*Binary, error) {
	if !filepath.IsAbs(r.opts.ProjectDir) {
		return nil, errors.Newf("project dir must be absolute, got %q", r.opts.ProjectDir)
	}

	if r.opts.BinaryPath != "" {
		return r.explicit(ctx)
	}
	if r.opts.Version != "" {
		return r.pinned(ctx)
	}

	path, err := exec.LookPath(r.opts.Command)
	if err != nil {
		return nil, errors.Mark(errors.Newf(
			"%s is not in PATH: set an explicit binary or pin a version installed in %s",
			r.opts.Command, r.varDir()), ErrBinaryNotFound)
	}
	return r.binary(path, r.detectVersion(ctx, path)), nil
}

func (r *Resolver) explicit(ctx context.Context) (*Binary, error) {
	path := r.projectPath(r.opts.BinaryPath)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Mark(errors.Newf("binary %q does not exist", r.opts.BinaryPath), ErrBinaryNotFound)
	}

	version := r.detectVersion(ctx, path)
	switch {
	case version == VersionUnknown && r.opts.Version != "":
		version = r.opts.Version
	case r.opts.Version != "" && version != r.opts.Version:
		r.log.Warn("explicit tailwind binary does not match the pinned version",
			zap.String("binary", path),
			zap.String("detected", version),
			zap.String("pinned", r.opts.Version))
	}
	return r.binary(path, version), nil
}

func (r *Resolver) pinned(ctx context.Context) (*Binary, error) {
	name, err := currentPlatformBinaryName()
	if err != nil {
		return nil, err
	}

	installed := filepath.Join(r.varDir(), r.opts.Version, name)
	if _, err := os.Stat(installed); err == nil {
		return r.binary(installed, r.opts.Version), nil
	}

	if path, err := exec.LookPath(r.opts.Command); err == nil {
		if r.detectVersion(ctx, path) == r.opts.Version {
			return r.binary(path, r.opts.Version), nil
		}
	}

	return nil, errors.Mark(errors.Newf(
		"tailwind %s is not installed: expected %s", r.opts.Version, installed), ErrBinaryNotFound)
}

func (r *Resolver) binary(path, version string) *Binary {
	return &Binary{
		path:    path,
		version: version,
		dir:     r.opts.ProjectDir,
		stdout:  r.opts.Stdout,
		stderr:  r.opts.Stderr,
	}
}

func (r *Resolver) varDir() string {
	return r.projectPath(r.opts.VarDir)
}

func (r *Resolver) projectPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.opts.ProjectDir, path)
}

// detectVersion runs "<binary> --help", whose banner carries the version.
// Results are cached per path, size and modification time.
func (r *Resolver) detectVersion(ctx context.Context, path string) string {
	key := path
	if info, err := os.Stat(path); err == nil {
		key = fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	}

	if version, ok := r.opts.Cache.Get(key); ok {
		return version
	}

	out, err := cmdexec.Output(ctx, r.opts.ProjectDir, path, "--help")
	if err != nil {
		r.log.Debug("tailwind version detection failed", zap.String("binary", path), zap.Error(err))
		return VersionUnknown
	}

	version := ParseVersion(out)
	if version == VersionUnknown {
		return version
	}
	if err := r.opts.Cache.Set(key, version); err != nil {
		r.log.Debug("caching tailwind version failed", zap.String("binary", path), zap.Error(err))
	}
	return version
}

// ParseVersion extracts the first "vX.Y.Z" from binary output.
func ParseVersion(output string) string {
	if m := versionPattern.FindString(output); m != "" {
		return m
	}
	return VersionUnknown
}
