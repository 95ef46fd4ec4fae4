//go:build !windows

package supervisor

import (
	"errors"
	"syscall"
)

// terminate sends SIGTERM to the service's process group (the spawned
// service is its own session leader). A group that is already gone is not an
// error.
func terminate(pid int) error {
	return signalGroup(pid, syscall.SIGTERM)
}

// kill sends SIGKILL to the service's process group.
func kill(pid int) error {
	return signalGroup(pid, syscall.SIGKILL)
}

func signalGroup(pid int, sig syscall.Signal) error {
	err := syscall.Kill(-pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		// group gone; try the single pid in case it left its group
		err = syscall.Kill(pid, sig)
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
	}
	return err
}
