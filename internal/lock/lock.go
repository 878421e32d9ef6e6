// Package lock keeps two sessions from logging the same package into the
// same directory, where they would interleave log blocks and overwrite each
// other's summary and CSV exports.
package lock

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/rileyhilliard/xperf/internal/errors"
)

// DirName is the lock directory created inside the package log directory.
const DirName = ".xperf.lock"

const infoFileName = "info.json"

// processAlive reports whether pid is a running process on this machine.
// Tests replace it.
var processAlive = func(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || stderrors.Is(err, syscall.EPERM)
}

// Lock represents an acquired session lock.
type Lock struct {
	Dir  string    // The lock directory path
	Info *LockInfo // Info about the lock holder (us)
}

// Acquire takes the session lock in dir, creating dir if needed. It uses
// mkdir as the atomic primitive. A lock left behind by a process that no
// longer runs on this host is removed and taken over; a live holder makes
// Acquire fail with an ErrConfig error wrapping ErrLocked.
func Acquire(dir string, info *LockInfo) (*Lock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't create log directory "+dir,
			"Check your permissions, or pass --no-log.")
	}

	lockDir := filepath.Join(dir, DirName)
	infoFile := filepath.Join(lockDir, infoFileName)

	for attempt := 0; attempt < 2; attempt++ {
		err := os.Mkdir(lockDir, 0755)
		if err == nil {
			data, err := info.Marshal()
			if err == nil {
				err = os.WriteFile(infoFile, data, 0644)
			}
			if err != nil {
				_ = os.RemoveAll(lockDir)
				return nil, errors.WrapWithCode(err, errors.ErrExec,
					"Failed to write lock info file",
					"Check disk space and permissions on "+dir)
			}
			return &Lock{Dir: lockDir, Info: info}, nil
		}
		if !os.IsExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Can't create lock in "+dir,
				"Check your permissions, or pass --no-log.")
		}

		holder, _ := readInfo(infoFile)
		if attempt == 0 && isStale(holder) {
			if err := os.RemoveAll(lockDir); err == nil {
				continue
			}
		}

		who := "unknown"
		if holder != nil {
			who = holder.String()
		}
		return nil, errors.WrapWithCode(ErrLocked, errors.ErrConfig,
			fmt.Sprintf("Another xperf session is logging %s to %s", info.Package, dir),
			fmt.Sprintf("Held by %s. Stop that session, pass a different --log-dir, or remove %s if it is abandoned.", who, lockDir))
	}

	return nil, errors.WrapWithCode(ErrLocked, errors.ErrConfig,
		"Lost the race for the session lock in "+dir,
		"Another session started at the same time. Try again.")
}

// Release removes the lock. Releasing a nil lock is a no-op.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return os.RemoveAll(l.Dir)
}

// Holder describes who holds the lock in dir, or "" when it is free.
func Holder(dir string) string {
	info, err := readInfo(filepath.Join(dir, DirName, infoFileName))
	if err != nil || info == nil {
		return ""
	}
	return info.String()
}

func readInfo(path string) (*LockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLockInfo(data)
}

// isStale reports whether the holder was a process on this host that has
// since exited. A lock with unreadable info is never considered stale: it
// may be a session that is still writing it.
func isStale(holder *LockInfo) bool {
	if holder == nil {
		return false
	}
	hostname, err := os.Hostname()
	if err != nil || hostname != holder.Hostname {
		return false
	}
	return !processAlive(holder.PID)
}
