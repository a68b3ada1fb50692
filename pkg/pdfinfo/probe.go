package pdfinfo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultMaxOutput caps how much of the child's stdout is read.
	DefaultMaxOutput = 4 << 10
	// DefaultMaxStderr caps how much of the child's stderr is kept for logs.
	DefaultMaxStderr = 8 << 10

	waitDelay = time.Second
)

// ErrProbeTimeout is returned by Process.Wait when the child does not exit in time.
var ErrProbeTimeout = errors.New("pdf-info timed out")

// Runner starts probe child processes.
type Runner struct {
	Path      string
	Args      []string
	Env       []string // nil inherits the parent environment
	MaxOutput int
	MaxStderr int
}

// NewSelfRunner runs the current executable's pdf-info command.
func NewSelfRunner(sandbox bool) (*Runner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	return &Runner{
		Path: exe,
		Args: []string{"pdf-info", "--sandbox=" + strconv.FormatBool(sandbox)},
	}, nil
}

// Process is a running probe. The caller must call Close on every path.
type Process struct {
	cmd       *exec.Cmd
	stdout    *os.File
	stderr    *boundedBuffer
	maxOutput int

	done    chan struct{}
	waitErr error

	closeStdout sync.Once
	closeOnce   sync.Once
}

// Start launches the child with pdf on its stdin.
func (r *Runner) Start(ctx context.Context, pdf []byte) (*Process, error) {
	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	maxStderr := r.MaxStderr
	if maxStderr <= 0 {
		maxStderr = DefaultMaxStderr
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.Path, r.Args...)
	cmd.Env = r.Env
	cmd.Stdin = bytes.NewReader(pdf)
	cmd.Stdout = pw
	stderr := &boundedBuffer{max: maxStderr}
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, fmt.Errorf("failed to start pdf-info: %w", err)
	}
	// The child holds its own copy of the write end.
	pw.Close()

	p := &Process{
		cmd:       cmd,
		stdout:    pr,
		stderr:    stderr,
		maxOutput: maxOutput,
		done:      make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Pid of the child.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// ReadOutput reads stdout until EOF or the output cap, then closes the read
// side. A child still writing after that gets a broken pipe.
func (p *Process) ReadOutput() ([]byte, error) {
	defer p.closeOutput()

	data, err := io.ReadAll(io.LimitReader(p.stdout, int64(p.maxOutput)))
	if err != nil {
		return data, fmt.Errorf("failed to read pdf-info output: %w", err)
	}
	return data, nil
}

func (p *Process) closeOutput() {
	p.closeStdout.Do(func() {
		p.stdout.Close()
	})
}

// Wait waits up to timeout for the child to exit. It does not kill the child
// when the timeout elapses.
func (p *Process) Wait(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		if p.waitErr != nil {
			return fmt.Errorf("pdf-info failed: %w", p.waitErr)
		}
		return nil
	case <-timer.C:
		return ErrProbeTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Exited reports whether the child has exited and been reaped.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Kill terminates the child if it is still running.
func (p *Process) Kill() error {
	if p.Exited() {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill pdf-info: %w", err)
	}
	return nil
}

// Stderr returns the captured beginning of the child's stderr.
func (p *Process) Stderr() string {
	return p.stderr.String()
}

// Close releases the pipe, kills the child if needed and reaps it.
// It is safe to call more than once.
func (p *Process) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.closeOutput()
		err = p.Kill()
		<-p.done
	})
	return err
}

// boundedBuffer keeps the first max bytes written to it and discards the rest.
type boundedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
