package cmdexec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"
)

// DefaultTimeout bounds a process that did not call SetTimeout. A full
// production build of a large stylesheet can take minutes.
const DefaultTimeout = 30 * time.Minute

type Error struct {
	Cmd      string
	Args     []string
	Dir      string
	ExitCode int
	Stderr   string
	TimedOut bool
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("(in %s) %s %s", e.Dir, e.Cmd, strings.Join(e.Args, " "))
	if e.TimedOut {
		msg += ": timed out"
	}
	if e.Stderr != "" {
		return fmt.Sprintf("%s: exit %d\n%s", msg, e.ExitCode, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("%s: exit %d", msg, e.ExitCode)
}

// Process is a single external command that is started asynchronously.
// Stdout and Stderr must be set before Start; nil discards the stream.
// Stderr is also captured so a failed Wait can report it.
type Process struct {
	Dir    string
	Name   string
	Args   []string
	Stdout io.Writer
	Stderr io.Writer

	timeout   time.Duration
	stdin     *os.File
	cmd       *exec.Cmd
	runCtx    context.Context
	cancel    context.CancelFunc
	stderrBuf bytes.Buffer
}

func New(dir, name string, args ...string) *Process {
	return &Process{
		Dir:     dir,
		Name:    name,
		Args:    args,
		timeout: DefaultTimeout,
	}
}

// SetTimeout sets how long the process may run once started. Zero means
// no limit.
func (p *Process) SetTimeout(d time.Duration) {
	p.timeout = d
}

func (p *Process) Timeout() time.Duration {
	return p.timeout
}

// StdinPipe attaches a pipe to the process's standard input and returns its
// write end. The stream stays open until the caller closes it, which the
// process observes as EOF.
func (p *Process) StdinPipe() (io.WriteCloser, error) {
	if p.cmd != nil {
		return nil, errors.New("cmdexec: StdinPipe after Start")
	}
	if p.stdin != nil {
		return nil, errors.New("cmdexec: StdinPipe already attached")
	}
	rd, wr, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, "creating stdin pipe")
	}
	p.stdin = rd
	return wr, nil
}

// CommandLine renders the command as it could be typed in a shell.
func (p *Process) CommandLine() string {
	return shellquote.Join(append([]string{p.Name}, p.Args...)...)
}

func (p *Process) Start(ctx context.Context) error {
	if !filepath.IsAbs(p.Dir) {
		return errors.Newf("cmdexec: dir must be absolute, got %q", p.Dir)
	}
	if p.cmd != nil {
		return errors.Newf("cmdexec: %s already started", p.Name)
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if p.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}

	stderr := p.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	cmd := exec.CommandContext(runCtx, p.Name, p.Args...)
	cmd.Dir = p.Dir
	cmd.Stdout = p.Stdout
	cmd.Stderr = io.MultiWriter(stderr, &p.stderrBuf)
	if p.stdin != nil {
		cmd.Stdin = p.stdin
	}

	if err := cmd.Start(); err != nil {
		cancel()
		p.closeStdin()
		return wrapErr(p.Dir, p.Name, p.Args, err, "")
	}

	// the child holds its own copy of the read end
	p.closeStdin()

	p.cmd, p.runCtx, p.cancel = cmd, runCtx, cancel
	return nil
}

func (p *Process) Wait() error {
	if p.cmd == nil {
		return errors.Newf("cmdexec: %s not started", p.Name)
	}
	defer p.cancel()

	if err := p.cmd.Wait(); err != nil {
		werr := wrapErr(p.Dir, p.Name, p.Args, err, p.stderrBuf.String())
		werr.TimedOut = errors.Is(p.runCtx.Err(), context.DeadlineExceeded)
		return werr
	}
	return nil
}

// Pid returns the operating system process id, or 0 before Start.
func (p *Process) Pid() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *Process) closeStdin() {
	if p.stdin != nil {
		p.stdin.Close()
		p.stdin = nil
	}
}

// Output runs a command to completion and returns its stdout.
func Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	if !filepath.IsAbs(dir) {
		return "", errors.Newf("cmdexec: dir must be absolute, got %q", dir)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", wrapErr(dir, name, args, err, stderr.String())
	}
	return string(out), nil
}

func wrapErr(dir, name string, args []string, err error, stderr string) *Error {
	exitCode := 1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
		if stderr == "" {
			stderr = string(exitErr.Stderr)
		}
	} else if stderr == "" {
		stderr = err.Error()
	}
	return &Error{
		Cmd:      name,
		Args:     args,
		Dir:      dir,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}
