package bwtailwind_test

import (
	"context"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/basewarphq/bwcss/bwtailwind"
	"github.com/basewarphq/bwcss/internal/testutil"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeStdin struct {
	closed bool
}

func (s *fakeStdin) Write(p []byte) (int, error) {
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	return len(p), nil
}

func (s *fakeStdin) Close() error {
	s.closed = true
	return nil
}

type fakeProcess struct {
	args       []string
	timeout    time.Duration
	timeoutSet bool
	stdin      *fakeStdin
	started    bool
	startErr   error
}

func (p *fakeProcess) SetTimeout(d time.Duration) {
	p.timeout = d
	p.timeoutSet = true
}

func (p *fakeProcess) StdinPipe() (io.WriteCloser, error) {
	p.stdin = &fakeStdin{}
	return p.stdin, nil
}

func (p *fakeProcess) CommandLine() string {
	return "tailwindcss " + strings.Join(p.args, " ")
}

func (p *fakeProcess) Start(context.Context) error {
	p.started = true
	return p.startErr
}

func (p *fakeProcess) Wait() error { return nil }

type fakeBinary struct {
	version  string
	startErr error
	procs    []*fakeProcess
}

func (b *fakeBinary) Version() string { return b.version }

func (b *fakeBinary) Command(args ...string) bwtailwind.Process {
	proc := &fakeProcess{args: args, startErr: b.startErr}
	b.procs = append(b.procs, proc)
	return proc
}

type fakeResolver struct {
	bin   *fakeBinary
	err   error
	calls int
}

func (r *fakeResolver) Resolve(context.Context) (bwtailwind.Binary, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.bin, nil
}

func setupProject(t *testing.T) string {
	t.Helper()
	return testutil.Setup(t, map[string]string{
		"assets/styles/app.css":   "@tailwind base;\n",
		"assets/styles/admin.css": "@tailwind base;\n",
		"assets/styles/other.css": "@tailwind base;\n",
		"postcss.config.js":       "module.exports = {}\n",
	})
}

func newBuilder(t *testing.T, dir, version string, opts ...bwtailwind.Option) (*bwtailwind.Builder, *fakeResolver) {
	t.Helper()

	res := &fakeResolver{bin: &fakeBinary{version: version}}
	bld, err := bwtailwind.New(bwtailwind.Config{
		ProjectDir: dir,
		InputCSS:   []string{"assets/styles/app.css", "assets/styles/admin.css"},
		VarDir:     "var/tailwind",
	}, res, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return bld, res
}

func TestNewMissingInputFails(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)

	_, err := bwtailwind.New(bwtailwind.Config{
		ProjectDir: dir,
		InputCSS:   []string{"assets/styles/app.css", "assets/styles/missing.css"},
		VarDir:     "var/tailwind",
	}, &fakeResolver{})
	if !errors.Is(err, bwtailwind.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
	if !strings.Contains(err.Error(), "assets/styles/missing.css") {
		t.Errorf("expected error to name the missing path, got: %v", err)
	}
}

func TestNewRequiresAbsoluteProjectDir(t *testing.T) {
	t.Parallel()

	_, err := bwtailwind.New(bwtailwind.Config{ProjectDir: "relative"}, &fakeResolver{})
	if err == nil {
		t.Fatal("expected error for relative project dir")
	}
}

func TestNewResolvesInputsInOrder(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)

	bld, err := bwtailwind.New(bwtailwind.Config{
		ProjectDir: dir,
		InputCSS: []string{
			"assets/styles/admin.css",
			filepath.Join(dir, "assets/styles/app.css"),
			"assets/styles/admin.css",
		},
		VarDir: "var/tailwind",
	}, &fakeResolver{})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(dir, "assets/styles/admin.css"),
		filepath.Join(dir, "assets/styles/app.css"),
		filepath.Join(dir, "assets/styles/admin.css"),
	}
	if got := bld.InputPaths(); !slices.Equal(got, want) {
		t.Errorf("InputPaths() = %v, want %v", got, want)
	}
	if got := bld.ConfigFile(); got != filepath.Join(dir, "tailwind.config.js") {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestOutputPathUsesFileName(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)
	bld, _ := newBuilder(t, dir, "v3.4.0")

	want := filepath.Join(dir, "var/tailwind", "bar.built.css")
	for _, input := range []string{"foo/bar.css", "bar.css", "/elsewhere/deep/bar.css"} {
		if got := bld.OutputPath(input); got != want {
			t.Errorf("OutputPath(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBuildArgsWatchPollMinify(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)
	bld, _ := newBuilder(t, dir, "v3.4.0")

	args, err := bld.BuildArgs(bwtailwind.BuildOptions{Watch: true, Poll: true, Minify: true}, "v3.4.0")
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"-c", filepath.Join(dir, "tailwind.config.js"),
		"-i", filepath.Join(dir, "assets/styles/app.css"),
		"-o", filepath.Join(dir, "var/tailwind/app.built.css"),
		"--watch", "--poll", "--minify",
	}
	if !slices.Equal(args, want) {
		t.Errorf("BuildArgs() =\n  %v\nwant\n  %v", args, want)
	}
}

func TestBuildArgsPollRequiresWatch(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)
	bld, _ := newBuilder(t, dir, "v3.4.0")

	args, err := bld.BuildArgs(bwtailwind.BuildOptions{Poll: true}, "v3.4.0")
	if err != nil {
		t.Fatal(err)
	}
	if slices.Contains(args, "--poll") || slices.Contains(args, "--watch") {
		t.Errorf("expected no watch flags, got %v", args)
	}
}

func TestBuildArgsInputOverride(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)
	bld, _ := newBuilder(t, dir, "v3.4.0")

	args, err := bld.BuildArgs(bwtailwind.BuildOptions{InputFile: "assets/styles/admin.css"}, "v3.4.0")
	if err != nil {
		t.Fatal(err)
	}
	if args[3] != filepath.Join(dir, "assets/styles/admin.css") {
		t.Errorf("input = %q", args[3])
	}
	if args[5] != filepath.Join(dir, "var/tailwind/admin.built.css") {
		t.Errorf("output = %q", args[5])
	}
}

func TestBuildArgsPostCSSBeforeV4(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)
	bld, _ := newBuilder(t, dir, "v3.4.0")

	args, err := bld.BuildArgs(bwtailwind.BuildOptions{
		Watch:         true,
		Minify:        true,
		PostCSSConfig: "postcss.config.js",
	}, "v3.4.0")
	if err != nil {
		t.Fatal(err)
	}

	tail := args[len(args)-4:]
	want := []string{"--minify", "--postcss", filepath.Join(dir, "postcss.config.js")}
	if !slices.Equal(tail[1:], want) || tail[0] != "--watch" {
		t.Errorf("expected --postcss after the flags, got %v", args)
	}
}

func TestBuildArgsDefaultPostCSSFromConfig(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)

	bld, err := bwtailwind.New(bwtailwind.Config{
		ProjectDir:    dir,
		InputCSS:      []string{"assets/styles/app.css"},
		VarDir:        "var/tailwind",
		PostCSSConfig: "postcss.config.js",
	}, &fakeResolver{})
	if err != nil {
		t.Fatal(err)
	}

	args, err := bld.BuildArgs(bwtailwind.BuildOptions{}, "v3.1.0")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(args, "--postcss") {
		t.Errorf("expected the configured postcss file to be passed, got %v", args)
	}
}

func TestBuildPostCSSWithV4Fails(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)
	bld, res := newBuilder(t, dir, "v4.0.0")

	_, err := bld.Build(context.Background(), bwtailwind.BuildOptions{PostCSSConfig: "postcss.config.js"})
	if !errors.Is(err, bwtailwind.ErrIncompatibleOption) {
		t.Fatalf("expected ErrIncompatibleOption, got: %v", err)
	}
	if len(res.bin.procs) != 0 {
		t.Errorf("expected no process to be created, got %d", len(res.bin.procs))
	}
}

func TestBuildMissingPostCSSFails(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)
	bld, res := newBuilder(t, dir, "v3.4.0")

	_, err := bld.Build(context.Background(), bwtailwind.BuildOptions{PostCSSConfig: "nope.config.js"})
	if !errors.Is(err, bwtailwind.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
	if !strings.Contains(err.Error(), "nope.config.js") {
		t.Errorf("expected error to name the postcss file, got: %v", err)
	}
	if len(res.bin.procs) != 0 {
		t.Errorf("expected no process to be created")
	}
}

func TestBuildUnconfiguredInputFails(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)
	bld, res := newBuilder(t, dir, "v3.4.0")

	for _, input := range []string{"assets/styles/other.css", "assets/styles/missing.css"} {
		_, err := bld.Build(context.Background(), bwtailwind.BuildOptions{InputFile: input})
		if !errors.Is(err, bwtailwind.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got: %v", input, err)
		}
		if !strings.Contains(err.Error(), input) {
			t.Errorf("%s: expected error to name the input, got: %v", input, err)
		}
	}
	if len(res.bin.procs) != 0 {
		t.Errorf("expected no process to be created, got %d", len(res.bin.procs))
	}
}

func TestBuildWatchKeepsStdinOpen(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)
	bld, res := newBuilder(t, dir, "v3.4.0")

	run, err := bld.Build(context.Background(), bwtailwind.BuildOptions{Watch: true})
	if err != nil {
		t.Fatal(err)
	}

	proc := res.bin.procs[0]
	if !proc.started {
		t.Error("expected process to be started")
	}
	if !proc.timeoutSet || proc.timeout != 0 {
		t.Errorf("expected unbounded timeout, got set=%v timeout=%s", proc.timeoutSet, proc.timeout)
	}
	if run.Stdin == nil || proc.stdin == nil {
		t.Fatal("expected an open stdin stream")
	}
	if proc.stdin.closed {
		t.Error("stdin must stay open after start")
	}

	if err := run.Stop(); err != nil {
		t.Fatal(err)
	}
	if !proc.stdin.closed {
		t.Error("expected Stop to close stdin")
	}
}

func TestBuildWithoutWatchLeavesDefaults(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)
	bld, res := newBuilder(t, dir, "v3.4.0")

	run, err := bld.Build(context.Background(), bwtailwind.BuildOptions{Minify: true})
	if err != nil {
		t.Fatal(err)
	}

	proc := res.bin.procs[0]
	if proc.timeoutSet {
		t.Error("expected the default timeout to be kept")
	}
	if proc.stdin != nil || run.Stdin != nil {
		t.Error("expected no stdin stream")
	}
	if err := run.Stop(); err != nil {
		t.Errorf("Stop() on a non-watch run: %v", err)
	}
}

func TestBuildStartFailureClosesStdin(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)
	bld, res := newBuilder(t, dir, "v3.4.0")
	res.bin.startErr = errors.New("exec format error")

	_, err := bld.Build(context.Background(), bwtailwind.BuildOptions{Watch: true})
	if err == nil {
		t.Fatal("expected start error")
	}
	if !res.bin.procs[0].stdin.closed {
		t.Error("expected stdin to be closed after a failed start")
	}
}

func TestInitArgs(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)
	bld, res := newBuilder(t, dir, "v3.4.0")

	if _, err := bld.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	proc := res.bin.procs[0]
	if !slices.Equal(proc.args, []string{"init"}) {
		t.Errorf("args = %v, want [init]", proc.args)
	}
	if !proc.started || proc.timeoutSet || proc.stdin != nil {
		t.Errorf("unexpected init process setup: %+v", proc)
	}
}

func TestResolverIsAskedOnEveryCall(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)
	bld, res := newBuilder(t, dir, "v3.4.0")

	ctx := context.Background()
	if _, err := bld.Build(ctx, bwtailwind.BuildOptions{}); err != nil {
		t.Fatal(err)
	}
	res.bin.version = "v4.1.0"
	if _, err := bld.Build(ctx, bwtailwind.BuildOptions{PostCSSConfig: "postcss.config.js"}); !errors.Is(err, bwtailwind.ErrIncompatibleOption) {
		t.Fatalf("expected the new binary version to apply, got: %v", err)
	}
	if _, err := bld.Init(ctx); err != nil {
		t.Fatal(err)
	}

	if res.calls != 3 {
		t.Errorf("resolver calls = %d, want 3", res.calls)
	}
}

func TestResolverErrorIsPropagated(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)
	bld, res := newBuilder(t, dir, "v3.4.0")

	notFound := errors.New("binary not found")
	res.err = notFound

	if _, err := bld.Build(context.Background(), bwtailwind.BuildOptions{}); !errors.Is(err, notFound) {
		t.Errorf("Build: expected resolver error, got: %v", err)
	}
	if _, err := bld.Init(context.Background()); !errors.Is(err, notFound) {
		t.Errorf("Init: expected resolver error, got: %v", err)
	}
}

func TestVerboseEchoesCommandLine(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)

	core, logs := observer.New(zapcore.InfoLevel)
	bld, _ := newBuilder(t, dir, "v3.4.0", bwtailwind.WithLogger(zap.New(core)), bwtailwind.WithVerbose(true))

	ctx := context.Background()
	if _, err := bld.Build(ctx, bwtailwind.BuildOptions{Minify: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := bld.Init(ctx); err != nil {
		t.Fatal(err)
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if cmd := entries[0].ContextMap()["command"]; !strings.Contains(cmd.(string), "--minify") {
		t.Errorf("expected build command line, got %v", cmd)
	}
	if cmd := entries[1].ContextMap()["command"]; cmd != "tailwindcss init" {
		t.Errorf("expected init command line, got %v", cmd)
	}
}

func TestQuietByDefault(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)

	core, logs := observer.New(zapcore.DebugLevel)
	bld, _ := newBuilder(t, dir, "v3.4.0", bwtailwind.WithLogger(zap.New(core)))

	if _, err := bld.Build(context.Background(), bwtailwind.BuildOptions{}); err != nil {
		t.Fatal(err)
	}
	if logs.Len() != 0 {
		t.Errorf("expected no log output without verbose, got %d entries", logs.Len())
	}
}

func TestIsBinaryV4OrLater(t *testing.T) {
	t.Parallel()
	dir := setupProject(t)

	bld, _ := newBuilder(t, dir, "v4.0.0")
	ok, err := bld.IsBinaryV4OrLater(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected v4.0.0 to be reported as v4 or later")
	}
}
