package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// LockInfo contains metadata about the session holding a lock.
type LockInfo struct {
	User     string    `json:"user"`
	Hostname string    `json:"hostname"`
	Started  time.Time `json:"started"`
	PID      int       `json:"pid"`
	Package  string    `json:"package"`
	Target   string    `json:"target,omitempty"`
}

// NewLockInfo describes the current process monitoring pkg on target.
func NewLockInfo(pkg, target string) *LockInfo {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	user := os.Getenv("USER")
	if user == "" {
		user = "unknown"
	}

	return &LockInfo{
		User:     user,
		Hostname: hostname,
		Started:  time.Now(),
		PID:      os.Getpid(),
		Package:  pkg,
		Target:   target,
	}
}

// Age returns how long ago the lock was acquired.
func (i *LockInfo) Age() time.Duration {
	return time.Since(i.Started)
}

// Marshal serializes the LockInfo to JSON.
func (i *LockInfo) Marshal() ([]byte, error) {
	return json.Marshal(i)
}

// ParseLockInfo deserializes JSON data into a LockInfo.
func ParseLockInfo(data []byte) (*LockInfo, error) {
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// String returns a human-readable description of the lock holder.
func (i *LockInfo) String() string {
	s := fmt.Sprintf("%s@%s (pid %d", i.User, i.Hostname, i.PID)
	if i.Target != "" {
		s += ", " + i.Target
	}
	return s + fmt.Sprintf(", started %s ago)", formatAge(i.Age()))
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
