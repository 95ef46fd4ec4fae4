package service

// Descriptor describes one managed service. Descriptors are immutable after
// the registry is built; the supervisor derives all runtime state from the
// pid store and health probes, never from the descriptor itself.
type Descriptor struct {
	Name      string   `json:"name"`
	Command   string   `json:"command"`    // command line to start the service (shell-aware)
	WorkDir   string   `json:"work_dir"`   // optional working dir
	Env       []string `json:"env"`        // optional extra env
	HealthURL string   `json:"health_url"` // optional readiness endpoint; empty skips health evaluation
	LogFile   string   `json:"log_file"`   // combined stdout/stderr log path
	PIDFile   string   `json:"pid_file"`   // pid record path
	Rank      int      `json:"rank"`       // startup order: router 0, providers after
	Provider  bool     `json:"provider"`   // true for config-gated provider services
}

// HasProbe reports whether the service exposes a readiness endpoint.
func (d Descriptor) HasProbe() bool { return d.HealthURL != "" }
