package pidstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/relayctl/relayctl/internal/service"
)

// Store persists the service-name → pid mapping as one file per service in a
// dedicated directory. The first line of a pid file is the decimal pid; an
// optional second line carries JSON metadata with the process start time so a
// recycled pid is not mistaken for our process.
//
// The store assumes a single supervisor invocation writes at a time; there is
// no inter-process locking.
type Store struct {
	dir string
}

type pidMeta struct {
	StartUnix int64 `json:"start_unix"`
}

// New returns a Store rooted at dir. The directory is created on first write
// with mode 0700.
func New(dir string) *Store { return &Store{dir: dir} }

// Dir returns the pid directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the pid file path for name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".pid")
}

// Record writes the pid for name, capturing the process start time when it
// can be determined. A record pointing at a different, still-live process is
// refused: at most one live process per service name.
func (s *Store) Record(name string, pid int) error {
	if old, ok, reused, err := s.Read(name); err == nil && ok && !reused && old != pid && Alive(old) {
		return fmt.Errorf("%s: pid %d still alive: %w", name, old, service.ErrAlreadyRunning)
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(pid))
	b.WriteByte('\n')
	if start := getProcStartUnix(pid); start > 0 {
		meta, _ := json.Marshal(pidMeta{StartUnix: start})
		b.Write(meta)
		b.WriteByte('\n')
	}
	return os.WriteFile(s.Path(name), []byte(b.String()), 0o600)
}

// Read returns the recorded pid for name. The second return is false when no
// record exists. A record whose start-time metadata no longer matches the
// live process (pid reuse) is reported as pid with reused=true.
func (s *Store) Read(name string) (pid int, ok bool, reused bool, err error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, false, nil
		}
		return 0, false, false, err
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	pidStr := strings.TrimSpace(lines[0])
	pid, err = strconv.Atoi(pidStr)
	if err != nil {
		return 0, false, false, fmt.Errorf("invalid pid in %s: %w", s.Path(name), err)
	}
	if len(lines) >= 2 && strings.TrimSpace(lines[1]) != "" {
		var m pidMeta
		if err := json.Unmarshal([]byte(lines[1]), &m); err == nil && m.StartUnix > 0 {
			if cur := getProcStartUnix(pid); cur > 0 && cur != m.StartUnix {
				return pid, true, true, nil
			}
		}
	}
	return pid, true, false, nil
}

// Clear removes the record for name. Missing records are not an error.
func (s *Store) Clear(name string) error {
	err := os.Remove(s.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Reconcile checks the record for name against the live process table.
// A record whose process is dead (or whose pid was recycled) is cleared and
// reported via service.ErrStaleState; callers treat that as self-healing, not
// a fault. The returned pid is non-zero only when the service is alive.
func (s *Store) Reconcile(name string) (int, error) {
	pid, ok, reused, err := s.Read(name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	if reused || !Alive(pid) {
		if err := s.Clear(name); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%s pid %d: %w", name, pid, service.ErrStaleState)
	}
	return pid, nil
}
