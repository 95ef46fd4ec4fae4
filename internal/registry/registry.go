// Package registry turns the static configuration into the ordered set of
// service descriptors the supervisor operates on. The router is always
// enabled; a provider participates only when its config entry is present and
// explicitly enabled.
package registry

import (
	"fmt"
	"path/filepath"

	"github.com/relayctl/relayctl/internal/config"
	"github.com/relayctl/relayctl/internal/service"
)

// RouterName is the fixed name of the always-enabled router service.
const RouterName = "router"

type Registry struct {
	all     []service.Descriptor // every known service, rank order
	enabled []service.Descriptor // router plus enabled providers, rank order
	byName  map[string]service.Descriptor
}

// New builds a Registry from cfg. Provider rank follows declaration order in
// the config file, after the router.
func New(cfg *config.Config) *Registry {
	r := &Registry{byName: make(map[string]service.Descriptor)}
	add := func(d service.Descriptor, enabled bool) {
		r.all = append(r.all, d)
		r.byName[d.Name] = d
		if enabled {
			r.enabled = append(r.enabled, d)
		}
	}
	add(service.Descriptor{
		Name:      RouterName,
		Command:   cfg.Router.Command,
		WorkDir:   cfg.Router.WorkDir,
		Env:       cfg.Router.Env,
		HealthURL: cfg.Router.HealthURL,
		LogFile:   filepath.Join(cfg.LogDir(), RouterName+".log"),
		PIDFile:   filepath.Join(cfg.PidDir(), RouterName+".pid"),
		Rank:      0,
	}, true)
	for i, p := range cfg.Providers {
		add(service.Descriptor{
			Name:      p.Name,
			Command:   p.Command,
			WorkDir:   p.WorkDir,
			Env:       p.Env,
			HealthURL: p.HealthURL,
			LogFile:   filepath.Join(cfg.LogDir(), p.Name+".log"),
			PIDFile:   filepath.Join(cfg.PidDir(), p.Name+".pid"),
			Rank:      i + 1,
			Provider:  true,
		}, p.Enabled)
	}
	return r
}

// All returns every known service in dependency order, enabled or not.
func (r *Registry) All() []service.Descriptor {
	return append([]service.Descriptor(nil), r.all...)
}

// Enabled returns the router followed by enabled providers in dependency
// order. Start-all iterates this forward; stop-all iterates it in reverse.
func (r *Registry) Enabled() []service.Descriptor {
	return append([]service.Descriptor(nil), r.enabled...)
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name string) (service.Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return service.Descriptor{}, fmt.Errorf("unknown service: %s", name)
	}
	return d, nil
}

// IsEnabled reports whether name would be spawned by start-all.
func (r *Registry) IsEnabled(name string) bool {
	for _, d := range r.enabled {
		if d.Name == name {
			return true
		}
	}
	return false
}
