package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

var (
	ErrRunNotStarted = errors.New("run not started")
	ErrRunInProgress = errors.New("run in progress")
)

// waitDelay is how long a terminated child gets before it is killed once
// the supervisor context is done.
const waitDelay = 5 * time.Second

// Process is a handle of one execution of the entry file.
type Process interface {
	ID() string
	// Terminate asks the process to stop and returns immediately.
	Terminate()
	// WaitChan returns a channel receiving the terminal Result.
	WaitChan() <-chan Result
}

// Launcher starts executions of the entry file.
type Launcher interface {
	Launch(ctx context.Context, id string) (Process, error)
}

type Command struct {
	Path string
	Args []string
	Env  []string
	Dir  string
}

// Streams the child is connected to. Nil fields are replaced by the
// streams of the current process.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (s Streams) orDefault() Streams {
	if s.Stdin == nil {
		s.Stdin = os.Stdin
	}
	if s.Stdout == nil {
		s.Stdout = os.Stdout
	}
	if s.Stderr == nil {
		s.Stderr = os.Stderr
	}
	return s
}

type Result struct {
	ID      string
	Path    string
	Args    []string
	Started time.Time
	Stopped time.Time
	State   *os.ProcessState
	Err     error
}

// ExitCode returns the exit status, or -1 when the process has not exited
// or was terminated by a signal.
func (r Result) ExitCode() int {
	if r.State == nil {
		return -1
	}
	return r.State.ExitCode()
}

// Failed reports whether the process exited on its own with a non-zero
// status. Termination by a signal carries no status and is not a failure.
func (r Result) Failed() bool {
	return r.ExitCode() > 0
}

// CommandLauncher starts Command with Streams for every launch.
type CommandLauncher struct {
	Command Command
	Streams Streams
}

func (l CommandLauncher) Launch(ctx context.Context, id string) (Process, error) {
	r := NewRunner(id, l.Streams)
	if err := r.Start(ctx, l.Command); err != nil {
		return nil, err
	}
	return r, nil
}

// Runner is a thin wrapper around os/exec running a single child process
// with inherited streams.
type Runner struct {
	mx       sync.RWMutex
	id       string
	streams  Streams
	cmd      *exec.Cmd
	result   Result
	finished bool
	waits    []chan Result
}

func NewRunner(id string, streams Streams) *Runner {
	return &Runner{
		id:      id,
		streams: streams.orDefault(),
		result:  Result{ID: id, Err: ErrRunNotStarted},
	}
}

func (r *Runner) ID() string {
	return r.id
}

// Start runs the underlying process, it ensures only a single instance is active
// and returns ErrRunInProgress or an exec error, otherwise nil. Does NOT wait on
// command to finish, use WaitChan method instead.
// Cancelling ctx terminates the process, it is killed if still running after waitDelay.
func (r *Runner) Start(ctx context.Context, proto Command) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.cmd != nil {
		return ErrRunInProgress
	}

	r.finished = false
	r.result = Result{
		ID:   r.id,
		Path: proto.Path,
		Args: append([]string(nil), proto.Args...),
	}

	cmd := exec.CommandContext(ctx, proto.Path, proto.Args...)
	cmd.Env = proto.Env
	cmd.Dir = proto.Dir
	cmd.Stdin = r.streams.Stdin
	cmd.Stdout = r.streams.Stdout
	cmd.Stderr = r.streams.Stderr
	cmd.Cancel = func() error {
		return terminate(cmd.Process)
	}
	cmd.WaitDelay = waitDelay

	r.result.Started = time.Now().UTC()
	if err := cmd.Start(); err != nil {
		r.result.Stopped = time.Now().UTC()
		r.result.Err = err
		r.finish()
		return err
	}
	slog.DebugContext(ctx, "process started", "path", proto.Path, "args", proto.Args, "pid", cmd.Process.Pid)

	r.cmd = cmd
	go r.wait(cmd)
	return nil
}

// Terminate requests the running process to stop. It does not wait.
func (r *Runner) Terminate() {
	r.mx.RLock()
	defer r.mx.RUnlock()
	if r.cmd == nil || r.cmd.Process == nil {
		return
	}
	err := terminate(r.cmd.Process)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		slog.Debug("terminating process failed", "pid", r.cmd.Process.Pid, "error", err)
	}
}

func (r *Runner) wait(cmd *exec.Cmd) {
	err := cmd.Wait()
	stopped := time.Now().UTC()

	r.mx.Lock()
	defer r.mx.Unlock()
	r.result.Stopped = stopped
	r.result.State = cmd.ProcessState
	r.result.Err = err
	r.cmd = nil
	r.finish()
}

// finish must be called with r.mx held
func (r *Runner) finish() {
	r.finished = true
	for _, ch := range r.waits {
		ch <- r.result
		close(ch)
	}
	r.waits = nil
}

// WaitChan returns the channel obtaining the result of a running
// program. The channel is closed once program ends. If the program
// has already ended, the channel holds its result.
func (r *Runner) WaitChan() <-chan Result {
	ch := make(chan Result, 1)
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.finished {
		ch <- r.result
		close(ch)
		return ch
	}
	r.waits = append(r.waits, ch)
	return ch
}

// Result returns a last command result
// or result with ErrRunNotStarted/ErrRunInProgress
// if nothing has finished yet
func (r *Runner) Result() Result {
	r.mx.RLock()
	defer r.mx.RUnlock()
	if r.cmd != nil {
		res := r.result
		res.Err = ErrRunInProgress
		return res
	}
	return r.result
}
