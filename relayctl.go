// Package relayctl supervises a local relay router process and its optional
// provider worker processes: detached spawn with log redirection, pid-record
// liveness tracking across invocations, bounded health waits, and ordered
// idempotent start/stop/restart/status.
package relayctl

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relayctl/relayctl/internal/config"
	"github.com/relayctl/relayctl/internal/health"
	"github.com/relayctl/relayctl/internal/history"
	"github.com/relayctl/relayctl/internal/history/factory"
	"github.com/relayctl/relayctl/internal/logtail"
	"github.com/relayctl/relayctl/internal/metrics"
	"github.com/relayctl/relayctl/internal/pidstore"
	"github.com/relayctl/relayctl/internal/registry"
	"github.com/relayctl/relayctl/internal/server"
	"github.com/relayctl/relayctl/internal/service"
	"github.com/relayctl/relayctl/internal/supervisor"
)

type (
	Config     = config.Config
	Descriptor = service.Descriptor
	Report     = supervisor.Report
	State      = service.State
)

// Error sentinels re-exported for callers embedding the supervisor.
var (
	ErrConfigMissing  = service.ErrConfigMissing
	ErrBinaryMissing  = service.ErrBinaryMissing
	ErrAlreadyRunning = service.ErrAlreadyRunning
	ErrLaunchFailure  = service.ErrLaunchFailure
	ErrStartupFailure = service.ErrStartupFailure
	ErrHealthTimeout  = service.ErrHealthTimeout
	ErrStaleState     = service.ErrStaleState
	ErrSignalFailure  = service.ErrSignalFailure
	ErrLogMissing     = service.ErrLogMissing
)

// ResolveConfigPath applies the flag > RELAYCTL_CONFIG > default chain.
func ResolveConfigPath(flagPath string) string { return config.ResolvePath(flagPath) }

// LoadConfig reads the configuration file once.
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// System wires the supervisor and its collaborators from one Config.
type System struct {
	cfg  *config.Config
	reg  *registry.Registry
	sup  *supervisor.Supervisor
	hist history.Store
	log  *slog.Logger
}

// New builds a System. When a history backend is configured it is opened and
// its schema ensured; history failures there are fatal, later appends are
// best-effort.
func New(cfg *config.Config) (*System, error) {
	log := cfg.SupervisorLog().NewSlogger()
	slog.SetDefault(log)

	var hist history.Store
	if cfg.History.Backend != "" {
		st, err := factory.NewFromDSN(cfg.HistoryDSN())
		if err != nil {
			return nil, err
		}
		if err := st.EnsureSchema(context.Background()); err != nil {
			return nil, err
		}
		hist = st
	}

	reg := registry.New(cfg)
	sup := supervisor.New(reg, pidstore.New(cfg.PidDir()), supervisor.Options{
		HealthAttempts: cfg.Health.Attempts,
		HealthInterval: cfg.Health.Interval,
		HealthTimeout:  cfg.Health.Timeout,
		GracePeriod:    cfg.Stop.GracePeriod,
		KillWait:       cfg.Stop.KillWait,
		History:        hist,
		Logger:         log,
	})
	return &System{cfg: cfg, reg: reg, sup: sup, hist: hist, log: log}, nil
}

func (s *System) StartAll(ctx context.Context) error { return s.sup.StartAll(ctx) }
func (s *System) StopAll(ctx context.Context) error  { return s.sup.StopAll(ctx) }
func (s *System) Restart(ctx context.Context) error  { return s.sup.Restart(ctx) }

func (s *System) Status(ctx context.Context) ([]Report, error) { return s.sup.Status(ctx) }

// Tail returns the last n lines of a service's log file.
func (s *System) Tail(name string, n int) ([]string, error) {
	d, err := s.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	return logtail.Tail(d.LogFile, n)
}

// Follow streams a service's log to w until ctx is cancelled.
func (s *System) Follow(ctx context.Context, name string, w io.Writer) error {
	d, err := s.reg.Lookup(name)
	if err != nil {
		return err
	}
	return logtail.Follow(ctx, d.LogFile, w)
}

// History returns up to limit recent lifecycle events, newest first. A nil
// slice is returned when no history backend is configured.
func (s *System) History(ctx context.Context, name string, limit int) ([]history.Event, error) {
	if s.hist == nil {
		return nil, nil
	}
	return s.hist.Recent(ctx, name, limit)
}

// HTTPServer builds the read-only status/metrics server.
func (s *System) HTTPServer() *http.Server {
	_ = metrics.Register(prometheus.DefaultRegisterer)
	return server.NewServer(s.cfg.Server.Addr, s.sup)
}

// Probe runs a single health check against a named service.
func (s *System) Probe(ctx context.Context, name string) (bool, error) {
	d, err := s.reg.Lookup(name)
	if err != nil {
		return false, err
	}
	return health.New(s.cfg.Health.Timeout, s.log).Probe(ctx, d), nil
}

// Close releases the history store, if any.
func (s *System) Close() error {
	if s.hist != nil {
		return s.hist.Close()
	}
	return nil
}

// RegisterMetrics registers the prometheus collectors with r.
func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
