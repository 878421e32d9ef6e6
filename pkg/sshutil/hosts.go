package sshutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// HostEntry is a concrete Host alias from ssh_config.
type HostEntry struct {
	Alias    string
	Hostname string
	User     string
	Port     string
}

// Description is a one-line summary for device listings.
func (h HostEntry) Description() string {
	var parts []string
	if h.Hostname != "" && h.Hostname != h.Alias {
		parts = append(parts, h.Hostname)
	}
	if h.User != "" {
		parts = append(parts, "user "+h.User)
	}
	if h.Port != "" && h.Port != "22" {
		parts = append(parts, "port "+h.Port)
	}
	if len(parts) == 0 {
		return h.Alias
	}
	return strings.Join(parts, ", ")
}

// ListHosts returns the concrete host aliases in an ssh_config file, sorted.
// Wildcard patterns are skipped. An empty path means ~/.ssh/config. A missing
// file yields no hosts and no error.
func ListHosts(configPath string) ([]HostEntry, error) {
	if configPath == "" {
		configPath = filepath.Join(homeDir(), ".ssh", "config")
	}
	content, _, err := readSSHConfig(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var hosts []HostEntry
	for _, host := range cfg.Hosts {
		for _, pattern := range host.Patterns {
			alias := pattern.String()
			if strings.ContainsAny(alias, "*?!") || seen[alias] {
				continue
			}
			seen[alias] = true

			entry := HostEntry{Alias: alias}
			entry.Hostname, _ = cfg.Get(alias, "HostName")
			entry.User, _ = cfg.Get(alias, "User")
			entry.Port, _ = cfg.Get(alias, "Port")
			hosts = append(hosts, entry)
		}
	}

	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Alias < hosts[j].Alias })
	return hosts, nil
}
