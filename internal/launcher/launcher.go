// Package launcher spawns services as detached processes. A spawned service
// lives in its own session with stdout and stderr redirected to its log
// file, so it keeps running after the supervisor invocation that started it
// exits; the only back-reference the supervisor keeps is the pid record.
package launcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/relayctl/relayctl/internal/pidstore"
	"github.com/relayctl/relayctl/internal/service"
)

// Grace window after spawn before the service counts as running. A process
// that dies inside the window is a startup failure, not a running service.
const (
	GraceWindow   = 1500 * time.Millisecond
	gracePollStep = 100 * time.Millisecond
)

type Launcher struct {
	grace time.Duration
	log   *slog.Logger
}

func New(log *slog.Logger) *Launcher {
	if log == nil {
		log = slog.Default()
	}
	return &Launcher{grace: GraceWindow, log: log}
}

// WithGrace overrides the grace window; used by tests.
func (l *Launcher) WithGrace(d time.Duration) *Launcher {
	l.grace = d
	return l
}

// Spawn launches the descriptor's command detached and returns its pid once
// the grace window has elapsed with the process still alive.
//
// Error classification: a command whose executable cannot be found is
// service.ErrBinaryMissing; a spawn call that itself errors is
// service.ErrLaunchFailure; a process that dies inside the grace window is
// service.ErrStartupFailure.
func (l *Launcher) Spawn(d service.Descriptor) (int, error) {
	cmd := buildCommand(d.Command)
	if cmd.Err != nil {
		return 0, fmt.Errorf("%s: %q: %w", d.Name, d.Command, service.ErrBinaryMissing)
	}
	if d.WorkDir != "" {
		cmd.Dir = d.WorkDir
	}
	if len(d.Env) > 0 {
		cmd.Env = append(os.Environ(), d.Env...)
	}
	configureSysProcAttr(cmd)

	if err := os.MkdirAll(filepath.Dir(d.LogFile), 0o750); err != nil {
		return 0, fmt.Errorf("%s: create log dir: %w", d.Name, err)
	}
	// The child must own a real file descriptor; an in-process writer would
	// tie its output to the supervisor's lifetime.
	logf, err := os.OpenFile(d.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return 0, fmt.Errorf("%s: open log file: %w", d.Name, err)
	}
	defer func() { _ = logf.Close() }()
	cmd.Stdout = logf
	cmd.Stderr = logf

	if err := cmd.Start(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%s: %q: %w", d.Name, d.Command, service.ErrBinaryMissing)
		}
		return 0, fmt.Errorf("%s: %w: %v", d.Name, service.ErrLaunchFailure, err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	l.log.Debug("spawned", "service", d.Name, "pid", pid)

	deadline := time.Now().Add(l.grace)
	for time.Now().Before(deadline) {
		time.Sleep(gracePollStep)
		if !pidstore.Alive(pid) {
			return 0, fmt.Errorf("%s: pid %d: %w", d.Name, pid, service.ErrStartupFailure)
		}
	}
	return pid, nil
}
