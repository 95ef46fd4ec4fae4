// Package supervisor orchestrates the service set: ordered, idempotent
// start-all / stop-all / restart and a read-only status report. One
// invocation processes services strictly sequentially in dependency order;
// the only suspension points are the bounded health wait and the bounded
// stop poll.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/relayctl/relayctl/internal/health"
	"github.com/relayctl/relayctl/internal/history"
	"github.com/relayctl/relayctl/internal/launcher"
	"github.com/relayctl/relayctl/internal/metrics"
	"github.com/relayctl/relayctl/internal/pidstore"
	"github.com/relayctl/relayctl/internal/registry"
	"github.com/relayctl/relayctl/internal/service"
)

const (
	stopPollStep = 100 * time.Millisecond
	// settle delay between stop-all and start-all during restart
	SettleDelay = time.Second
)

// Options tune the bounded waits. Zero values take the defaults.
type Options struct {
	HealthAttempts int
	HealthInterval time.Duration
	HealthTimeout  time.Duration
	GracePeriod    time.Duration // graceful stop window before escalation
	KillWait       time.Duration // wait after the forceful signal
	History        history.Store // optional, best-effort
	Logger         *slog.Logger
}

type Supervisor struct {
	reg      *registry.Registry
	pids     *pidstore.Store
	launch   *launcher.Launcher
	checker  *health.Checker
	hist     history.Store
	log      *slog.Logger
	attempts int
	interval time.Duration
	grace    time.Duration
	killWait time.Duration
}

func New(reg *registry.Registry, pids *pidstore.Store, opts Options) *Supervisor {
	if opts.HealthAttempts <= 0 {
		opts.HealthAttempts = 10
	}
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = time.Second
	}
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = 2 * time.Second
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 8 * time.Second
	}
	if opts.KillWait <= 0 {
		opts.KillWait = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Supervisor{
		reg:      reg,
		pids:     pids,
		launch:   launcher.New(opts.Logger),
		checker:  health.New(opts.HealthTimeout, opts.Logger),
		hist:     opts.History,
		log:      opts.Logger,
		attempts: opts.HealthAttempts,
		interval: opts.HealthInterval,
		grace:    opts.GracePeriod,
		killWait: opts.KillWait,
	}
}

// Launcher exposes the underlying launcher; used by tests to shrink the
// grace window.
func (s *Supervisor) Launcher() *launcher.Launcher { return s.launch }

// StartAll starts the router and each enabled provider in dependency order.
// Already-alive services are skipped as idempotent no-ops. Any failure aborts
// the remainder of the sequence; services started so far are left running.
func (s *Supervisor) StartAll(ctx context.Context) error {
	for _, d := range s.reg.Enabled() {
		if err := s.startOne(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (s *Supervisor) startOne(ctx context.Context, d service.Descriptor) error {
	pid, err := s.reconcile(d.Name)
	if err != nil {
		return err
	}
	if pid != 0 {
		s.log.Info("already running", "service", d.Name, "pid", pid)
		return nil
	}
	s.log.Info("starting", "service", d.Name)
	pid, err = s.launch.Spawn(d)
	if err != nil {
		metrics.IncSpawnFail(d.Name)
		return err
	}
	if err := s.pids.Record(d.Name, pid); err != nil {
		return fmt.Errorf("%s: record pid: %w", d.Name, err)
	}
	metrics.IncStart(d.Name)
	s.record(history.Event{Service: d.Name, PID: pid, Type: history.EventStart})
	if d.HasProbe() {
		if err := s.checker.WaitHealthy(ctx, d, s.attempts, s.interval); err != nil {
			metrics.IncProbeFail(d.Name)
			return err
		}
		s.log.Info("started", "service", d.Name, "pid", pid, "state", service.Healthy)
	} else {
		s.log.Info("started", "service", d.Name, "pid", pid, "state", service.Running)
	}
	return nil
}

// StopAll stops every known service with a live pid record, in reverse
// dependency order. Services without a record are no-ops with a warning.
func (s *Supervisor) StopAll(ctx context.Context) error {
	all := s.reg.All()
	var firstErr error
	for i := len(all) - 1; i >= 0; i-- {
		d := all[i]
		pid, err := s.reconcile(d.Name)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if pid == 0 {
			s.log.Warn("not running, nothing to stop", "service", d.Name)
			continue
		}
		if err := s.stopOne(ctx, d, pid); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// stopOne applies the graceful-then-forceful escalation: terminate signal,
// bounded liveness poll, then the kill signal, then a shorter poll. The pid
// record is cleared only on confirmed death.
func (s *Supervisor) stopOne(ctx context.Context, d service.Descriptor, pid int) error {
	s.log.Info("stopping", "service", d.Name, "pid", pid)
	if err := terminate(pid); err != nil {
		return fmt.Errorf("%s: graceful signal: %w: %v", d.Name, service.ErrSignalFailure, err)
	}
	escalated := false
	if !s.waitDead(ctx, pid, s.grace) {
		s.log.Warn("graceful stop timed out, escalating", "service", d.Name, "pid", pid)
		metrics.IncEscalation(d.Name)
		escalated = true
		if err := kill(pid); err != nil {
			return fmt.Errorf("%s: forceful signal: %w: %v", d.Name, service.ErrSignalFailure, err)
		}
		if !s.waitDead(ctx, pid, s.killWait) {
			return fmt.Errorf("%s: pid %d survived forceful termination: %w", d.Name, pid, service.ErrSignalFailure)
		}
	}
	if err := s.pids.Clear(d.Name); err != nil {
		return err
	}
	metrics.IncStop(d.Name)
	detail := ""
	if escalated {
		detail = "escalated to forceful termination"
	}
	s.record(history.Event{Service: d.Name, PID: pid, Type: history.EventStop, Detail: detail})
	s.log.Info("stopped", "service", d.Name, "pid", pid)
	return nil
}

func (s *Supervisor) waitDead(ctx context.Context, pid int, window time.Duration) bool {
	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		if !pidstore.Alive(pid) {
			return true
		}
		select {
		case <-ctx.Done():
			return !pidstore.Alive(pid)
		case <-time.After(stopPollStep):
		}
	}
	return !pidstore.Alive(pid)
}

// Restart is stop-all, a fixed settle delay, then start-all. The outcome is
// equivalent to a clean start-all on a system with no prior state.
func (s *Supervisor) Restart(ctx context.Context) error {
	if err := s.StopAll(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(SettleDelay):
	}
	return s.StartAll(ctx)
}

// Report is one row of the status output.
type Report struct {
	Service string        `json:"service"`
	Enabled bool          `json:"enabled"`
	State   service.State `json:"state"`
	PID     int           `json:"pid,omitempty"`
}

// Status reconciles and reports every known service. It probes health but
// never mutates process state; the only side effect is clearing stale pid
// records.
func (s *Supervisor) Status(ctx context.Context) ([]Report, error) {
	var out []Report
	for _, d := range s.reg.All() {
		r := Report{Service: d.Name, Enabled: s.reg.IsEnabled(d.Name)}
		pid, err := s.reconcile(d.Name)
		if err != nil {
			return nil, err
		}
		switch {
		case pid == 0:
			r.State = service.Stopped
		case !d.HasProbe():
			r.State, r.PID = service.Running, pid
		case s.checker.Probe(ctx, d):
			r.State, r.PID = service.Healthy, pid
		default:
			r.State, r.PID = service.Unhealthy, pid
		}
		metrics.SetUp(d.Name, r.State.Alive())
		out = append(out, r)
	}
	return out, nil
}

// reconcile wraps the pid store reconciliation, logging the self-healing
// stale-record case instead of surfacing it.
func (s *Supervisor) reconcile(name string) (int, error) {
	pid, err := s.pids.Reconcile(name)
	if err != nil {
		if errors.Is(err, service.ErrStaleState) {
			s.log.Warn("cleared stale pid record", "service", name)
			return 0, nil
		}
		return 0, err
	}
	return pid, nil
}

func (s *Supervisor) record(ev history.Event) {
	if s.hist == nil {
		return
	}
	ev.OccurredAt = time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.hist.Append(ctx, ev); err != nil {
		s.log.Warn("history append failed", "service", ev.Service, "err", err)
	}
}
