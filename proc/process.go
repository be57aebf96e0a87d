// File: proc/process.go
// Author: momentics <momentics@gmail.com>
//
// A single supervised local process.

package proc

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"
)

// graceTimeout is how long Stop waits after SIGTERM before killing.
const graceTimeout = time.Second

// Process manages one external command. Start and Stop are idempotent.
type Process struct {
	name string
	cmd  string

	mu   sync.Mutex
	proc *exec.Cmd
	done chan error // fires once the reaper has collected the child
}

func NewProcess(name, cmd string) *Process {
	return &Process{name: name, cmd: cmd}
}

func (p *Process) Name() string { return p.name }

// Start launches the process. Ignored if it is already running. A
// child that exited on its own is reaped here, so Start after a
// self-exit launches a fresh instance.
func (p *Process) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.reapLocked() {
		return nil
	}
	args, err := shellquote.Split(p.cmd)
	if err != nil {
		return fmt.Errorf("parse command %q: %w", p.cmd, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("empty command for process %s", p.name)
	}
	c := exec.Command(args[0], args[1:]...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.name, err)
	}
	done := make(chan error, 1)
	go func() { done <- c.Wait() }()
	p.proc = c
	p.done = done
	return nil
}

// Stop terminates the process: SIGTERM first, SIGKILL if it has not
// exited within the grace period. Ignored if it is not running.
func (p *Process) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reapLocked() {
		return nil
	}
	c, done := p.proc, p.done
	p.proc, p.done = nil, nil

	_ = c.Process.Signal(syscall.SIGTERM)
	select {
	case <-done:
	case <-time.After(graceTimeout):
		_ = c.Process.Kill()
		<-done
	}
	return nil
}

// Running reports whether the process is currently alive.
func (p *Process) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.reapLocked()
}

// reapLocked reports whether the child is gone, clearing state once
// the reaper goroutine has collected it. Callers hold p.mu.
func (p *Process) reapLocked() bool {
	if p.proc == nil {
		return true
	}
	select {
	case <-p.done:
		p.proc, p.done = nil, nil
		return true
	default:
		return false
	}
}
