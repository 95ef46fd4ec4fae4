package service

import "errors"

// Sentinel errors for supervisor operations. Callers match with errors.Is;
// wrapped messages carry the service name and detail.
var (
	ErrConfigMissing  = errors.New("config file missing")
	ErrBinaryMissing  = errors.New("service binary missing")
	ErrAlreadyRunning = errors.New("service already running")
	ErrLaunchFailure  = errors.New("service launch failed")
	ErrStartupFailure = errors.New("service exited during startup grace window")
	ErrHealthTimeout  = errors.New("service never became healthy")
	ErrStaleState     = errors.New("stale pid record")
	ErrSignalFailure  = errors.New("could not stop service")
	ErrLogMissing     = errors.New("service log file missing")
)
