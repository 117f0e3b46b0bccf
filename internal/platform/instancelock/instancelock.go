package instancelock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrHeld is returned when another live process already holds the lock.
var ErrHeld = errors.New("instance lock held by another process")

// Lock is a best-effort single-instance guard: an exclusively created file
// holding the owner's pid. It keeps two processes from sharing one database
// file; it is not meant to survive adversarial races.
type Lock struct {
	path string
}

// Acquire creates the lock file at path. A leftover file whose pid no longer
// maps to a live process is treated as stale and replaced.
func Acquire(path string) (*Lock, error) {
	for attempt := 0; attempt < 2; attempt++ {
		fd, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := fmt.Fprintf(fd, "%d", os.Getpid())
			cerr := fd.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("write instance lock: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create instance lock: %w", err)
		}
		if pidAlive(path) {
			return nil, ErrHeld
		}
		// Stale lock from a dead process; clear it and retry once.
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("remove stale instance lock: %w", rmErr)
		}
	}
	return nil, ErrHeld
}

func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func pidAlive(path string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return false
	}
	// Signal 0 probes existence without delivering anything.
	return syscall.Kill(pid, 0) == nil
}
