// Package process runs before/after shell commands under a wall-clock
// timeout and an idle timeout, streaming their output to the logger.
package process

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds the total runtime of a command.
	DefaultTimeout = 900 * time.Second
	// DefaultIdleTimeout bounds the gap between two output lines.
	DefaultIdleTimeout = 300 * time.Second
	// DefaultTailLines is how many trailing output lines a Result keeps.
	DefaultTailLines = 50

	readBufferSize = 64 * 1024
	drainGrace     = time.Second
)

// Config controls a Supervisor. Zero durations disable the matching limit.
type Config struct {
	Timeout     time.Duration
	IdleTimeout time.Duration
	// PTY attaches the command to a pseudo-terminal instead of a pipe.
	PTY       bool
	Shell     string
	TailLines int
}

// DefaultConfig returns the limits used for before/after commands.
func DefaultConfig() Config {
	return Config{
		Timeout:     DefaultTimeout,
		IdleTimeout: DefaultIdleTimeout,
		PTY:         true,
		Shell:       "/bin/sh",
		TailLines:   DefaultTailLines,
	}
}

// Result is the outcome of one command.
type Result struct {
	Command  string
	ExitCode int
	Duration time.Duration
	// Lines counts every output line seen; Tail keeps only the last ones.
	Lines int
	Tail  []string
}

// Supervisor executes shell commands one at a time.
type Supervisor struct {
	cfg  Config
	lggr *zap.SugaredLogger
}

// New creates a Supervisor. Missing Shell and TailLines fall back to the
// defaults.
func New(cfg Config, lggr *zap.SugaredLogger) *Supervisor {
	if cfg.Shell == "" {
		cfg.Shell = "/bin/sh"
	}
	if cfg.TailLines <= 0 {
		cfg.TailLines = DefaultTailLines
	}
	if lggr == nil {
		lggr = zap.NewNop().Sugar()
	}
	return &Supervisor{cfg: cfg, lggr: lggr}
}

// Config returns the supervisor's limits.
func (s *Supervisor) Config() Config { return s.cfg }

// Run executes command with dir as working directory and blocks until it
// exits, is killed by a limit, or ctx is done. A non-zero exit is returned
// as a *FailureError, a killed command as a *TimeoutError.
func (s *Supervisor) Run(ctx context.Context, command, dir string) (*Result, error) {
	start := time.Now()
	res := &Result{Command: command}

	cmd := exec.Command(s.cfg.Shell, "-c", command)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	out, err := s.start(cmd)
	if err != nil {
		res.ExitCode = -1
		return res, &FailureError{Command: command, ExitCode: -1, Err: err}
	}
	defer out.Close()

	done := make(chan struct{})
	defer close(done)
	lines := make(chan string, 64)
	activity := make(chan struct{}, 1)
	go readLines(&activityReader{r: out, activity: activity}, lines, done)

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	wall := newTimer(s.cfg.Timeout)
	defer wall.Stop()
	idle := newTimer(s.cfg.IdleTimeout)
	defer idle.Stop()

	tail := newRing(s.cfg.TailLines)
	var (
		waitErr error
		exited  bool
		drain   <-chan time.Time
	)
	wallC, idleC := wall.C(), idle.C()

	kill := func(cause error) (*Result, error) {
		killGroup(cmd)
		if !exited {
			<-waitDone
		}
		res.ExitCode = -1
		res.Duration = time.Since(start)
		res.Tail = tail.lines()
		return res, cause
	}

	for lines != nil || !exited {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			res.Lines++
			tail.add(line)
			s.lggr.Info(line)
		case <-activity:
			// Any bytes count as output, with or without a newline.
			if !exited {
				idle.Reset(s.cfg.IdleTimeout)
			}
		case waitErr = <-waitDone:
			exited = true
			// The limits no longer apply once the command is gone.
			wall.Stop()
			idle.Stop()
			wallC, idleC = nil, nil
			// A background child may keep the terminal open; stop reading
			// once the grace period is over.
			drain = time.After(drainGrace)
		case <-drain:
			out.Close()
			drain = nil
		case <-wallC:
			return kill(&TimeoutError{Command: command, Limit: s.cfg.Timeout, Tail: tail.lines()})
		case <-idleC:
			return kill(&TimeoutError{Command: command, Limit: s.cfg.IdleTimeout, Idle: true, Tail: tail.lines()})
		case <-ctx.Done():
			return kill(ctx.Err())
		}
	}

	res.Duration = time.Since(start)
	res.Tail = tail.lines()
	if waitErr != nil {
		res.ExitCode = exitCode(waitErr)
		return res, &FailureError{Command: command, ExitCode: res.ExitCode, Tail: res.Tail, Err: waitErr}
	}
	return res, nil
}

func (s *Supervisor) start(cmd *exec.Cmd) (io.ReadCloser, error) {
	if s.cfg.PTY {
		return pty.StartWithSize(cmd, &pty.Winsize{Rows: 50, Cols: 250})
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = w
	cmd.Stderr = w
	setProcessGroup(cmd)
	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	w.Close()
	return r, nil
}

// activityReader signals on activity after every read that returned data.
type activityReader struct {
	r        io.Reader
	activity chan<- struct{}
}

func (a *activityReader) Read(p []byte) (int, error) {
	n, err := a.r.Read(p)
	if n > 0 {
		select {
		case a.activity <- struct{}{}:
		default:
		}
	}
	return n, err
}

// readLines forwards complete lines from r. Lines longer than the read
// buffer are forwarded in chunks so a command cannot grow memory without
// bound. Terminal line endings are stripped.
func readLines(r io.Reader, lines chan<- string, done <-chan struct{}) {
	defer close(lines)
	br := bufio.NewReaderSize(r, readBufferSize)
	for {
		chunk, err := br.ReadSlice('\n')
		if len(chunk) > 0 {
			select {
			case lines <- strings.TrimRight(string(chunk), "\r\n"):
			case <-done:
				return
			}
		}
		if err != nil {
			if errors.Is(err, bufio.ErrBufferFull) {
				continue
			}
			// io.EOF for pipes, EIO for a pseudo-terminal whose child exited.
			return
		}
	}
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// timer wraps time.Timer so a zero duration never fires.
type timer struct {
	t *time.Timer
}

func newTimer(d time.Duration) *timer {
	if d <= 0 {
		return &timer{}
	}
	return &timer{t: time.NewTimer(d)}
}

func (t *timer) C() <-chan time.Time {
	if t.t == nil {
		return nil
	}
	return t.t.C
}

func (t *timer) Reset(d time.Duration) {
	if t.t != nil {
		t.t.Reset(d)
	}
}

func (t *timer) Stop() {
	if t.t != nil {
		t.t.Stop()
	}
}

type ring struct {
	buf  []string
	next int
	full bool
}

func newRing(size int) *ring {
	return &ring{buf: make([]string, size)}
}

func (r *ring) add(line string) {
	r.buf[r.next] = line
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring) lines() []string {
	if !r.full {
		return append([]string(nil), r.buf[:r.next]...)
	}
	out := make([]string, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}
