// Package sshutil opens SSH connections the way the ssh(1) client would,
// honoring ~/.ssh/config aliases, the agent, default key files and
// known_hosts, and runs one-shot commands over them.
package sshutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/rileyhilliard/xperf/internal/errors"
	"github.com/rileyhilliard/xperf/internal/logger"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Env overrides for CI, where there is no agent and no ~/.ssh/config.
const (
	EnvUser = "XPERF_SSH_USER"
	EnvKey  = "XPERF_SSH_KEY"
)

var log = logger.NewEnvLogger("[ssh]")

// Options tunes Dial.
type Options struct {
	// Timeout bounds the TCP connect and the handshake. Zero means 10s.
	Timeout time.Duration

	// InsecureIgnoreHostKey skips known_hosts verification.
	InsecureIgnoreHostKey bool

	// ConfigPath overrides ~/.ssh/config.
	ConfigPath string
}

// Client is an open SSH connection to a single host.
type Client struct {
	conn    *ssh.Client
	host    string
	address string
}

// Dial connects to host, which may be an ssh_config alias, "hostname",
// "user@hostname", or any of those with a ":port" suffix.
func Dial(ctx context.Context, host string, opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = filepath.Join(homeDir(), ".ssh", "config")
	}

	target := resolveTarget(host, opts.ConfigPath)

	cfg, err := clientConfig(target, opts)
	if err != nil {
		var xErr *errors.Error
		if stderrors.As(err, &xErr) {
			return nil, err
		}
		return nil, errors.WrapWithCode(err, errors.ErrBridge,
			fmt.Sprintf("Couldn't set up SSH for '%s'", host),
			"Check your keys are loaded: ssh-add -l")
	}

	dialCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	address := target.address()
	var d net.Dialer
	netConn, err := d.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrBridge,
			fmt.Sprintf("Can't reach '%s' at %s", host, address),
			dialSuggestion(err))
	}

	// The handshake has no context of its own; a deadline on the raw
	// connection covers it and is cleared once it completes.
	_ = netConn.SetDeadline(time.Now().Add(opts.Timeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, address, cfg)
	if err != nil {
		netConn.Close()

		var mismatch *HostKeyMismatchError
		if stderrors.As(err, &mismatch) {
			return nil, errors.New(errors.ErrBridge, mismatch.Error(), mismatch.Suggestion())
		}
		return nil, errors.WrapWithCode(err, errors.ErrBridge,
			fmt.Sprintf("SSH handshake with '%s' failed", host),
			handshakeSuggestion(err, target.encryptedKeys))
	}
	_ = netConn.SetDeadline(time.Time{})

	return &Client{
		conn:    ssh.NewClient(sshConn, chans, reqs),
		host:    host,
		address: address,
	}, nil
}

// Host returns the alias or address passed to Dial.
func (c *Client) Host() string {
	return c.host
}

// Address returns the resolved host:port.
func (c *Client) Address() string {
	return c.address
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// target is a host string resolved against ssh_config.
type target struct {
	hostname      string
	port          string
	user          string
	identityFile  string
	encryptedKeys []string
}

func (t *target) address() string {
	return net.JoinHostPort(t.hostname, t.port)
}

// resolveTarget splits user@host:port and fills the gaps from ssh_config.
// An explicit user in the host string wins over both config and env.
func resolveTarget(host, configPath string) *target {
	t := &target{port: "22", user: currentUser()}

	explicitUser := false
	if user, rest, ok := strings.Cut(host, "@"); ok {
		t.user = user
		host = rest
		explicitUser = true
	} else if envUser := os.Getenv(EnvUser); envUser != "" {
		t.user = envUser
	}

	if i := strings.LastIndex(host, ":"); i != -1 && isDigits(host[i+1:]) {
		t.port = host[i+1:]
		host = host[:i]
	}
	t.hostname = host

	content, matchLine, err := readSSHConfig(configPath)
	if err != nil {
		return t
	}
	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return t
	}

	found := false
	if v, _ := cfg.Get(host, "HostName"); v != "" {
		t.hostname, found = v, true
	}
	if v, _ := cfg.Get(host, "Port"); v != "" {
		t.port, found = v, true
	}
	if v, _ := cfg.Get(host, "User"); v != "" && !explicitUser {
		t.user, found = v, true
	}
	if v, _ := cfg.Get(host, "IdentityFile"); v != "" {
		t.identityFile, found = expandPath(v), true
	}

	if matchLine > 0 && !found {
		log.Warn("host '%s' not found before the Match block at line %d of %s; entries after it are ignored",
			host, matchLine, configPath)
	}
	return t
}

// clientConfig gathers auth methods (agent first, then key files) and the
// host key policy.
func clientConfig(t *target, opts Options) (*ssh.ClientConfig, error) {
	var methods []ssh.AuthMethod

	tryKey := func(path string) {
		auth, err := keyFileAuth(path)
		if err != nil {
			var enc *EncryptedKeyError
			if stderrors.As(err, &enc) {
				t.encryptedKeys = append(t.encryptedKeys, path)
			}
			return
		}
		methods = append(methods, auth)
	}

	if a := agentAuth(); a != nil {
		methods = append(methods, a)
	}
	if envKey := os.Getenv(EnvKey); envKey != "" {
		tryKey(envKey)
	}
	if t.identityFile != "" {
		tryKey(t.identityFile)
	}
	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		path := filepath.Join(homeDir(), ".ssh", name)
		if path != t.identityFile {
			tryKey(path)
		}
	}

	if len(methods) == 0 {
		if len(t.encryptedKeys) > 0 {
			return nil, errors.New(errors.ErrBridge,
				"Found SSH key(s) but they're encrypted: "+strings.Join(t.encryptedKeys, ", "),
				"Add them to the agent: ssh-add <key>")
		}
		return nil, errors.New(errors.ErrBridge,
			"No SSH auth methods available",
			"Check your keys are loaded: ssh-add -l")
	}

	hostKey := ssh.InsecureIgnoreHostKey() //nolint:gosec // opted out with --insecure-host-key
	if !opts.InsecureIgnoreHostKey {
		cb, err := knownHostsCallback(filepath.Join(homeDir(), ".ssh", "known_hosts"))
		if err != nil {
			return nil, fmt.Errorf("loading known_hosts: %w", err)
		}
		hostKey = cb
	}

	return &ssh.ClientConfig{
		User:            t.user,
		Auth:            methods,
		HostKeyCallback: hostKey,
		Timeout:         opts.Timeout,
	}, nil
}

var (
	agentOnce   sync.Once
	agentClient agent.ExtendedAgent
)

// agentAuth returns nil when no agent is running or it holds no keys.
// An empty agent ahead of key files makes servers reject the attempt.
func agentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}
	agentOnce.Do(func() {
		conn, err := net.Dial("unix", socket)
		if err != nil {
			log.Debug("ssh agent unavailable: %v", err)
			return
		}
		agentClient = agent.NewClient(conn)
	})
	if agentClient == nil {
		return nil
	}
	if signers, err := agentClient.Signers(); err != nil || len(signers) == 0 {
		return nil
	}
	return ssh.PublicKeysCallback(agentClient.Signers)
}

func keyFileAuth(path string) (ssh.AuthMethod, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if stderrors.As(err, &missing) || bytes.Contains(pem, []byte("ENCRYPTED")) {
			return nil, &EncryptedKeyError{Path: path}
		}
		return nil, err
	}
	return ssh.PublicKeys(signer), nil
}

// knownHostsCallback verifies against known_hosts, creating an empty file
// on first use, and turns key mismatches into HostKeyMismatchError.
func knownHostsCallback(path string) (ssh.HostKeyCallback, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			return nil, err
		}
	}

	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := cb(hostname, remote, key)
		var keyErr *knownhosts.KeyError
		if stderrors.As(err, &keyErr) && len(keyErr.Want) > 0 {
			return &HostKeyMismatchError{
				Hostname:     hostname,
				ReceivedType: key.Type(),
				KnownHosts:   path,
			}
		}
		return err
	}, nil
}

// readSSHConfig returns the config up to the first Match directive, which
// ssh_config cannot decode, and the 1-based line it was found on.
func readSSHConfig(path string) ([]byte, int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "match ") {
			return []byte(strings.Join(lines[:i], "\n")), i + 1, nil
		}
	}
	return content, 0, nil
}

func dialSuggestion(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "Is sshd running on the device? Try: ssh <host>"
	case strings.Contains(msg, "no route to host"), strings.Contains(msg, "network is unreachable"):
		return "Can't route to the host. Check the device is on the same network."
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "Connection timed out. The device may be asleep or firewalled."
	}
	return "Make sure the host is reachable: ping <host>"
}

func handshakeSuggestion(err error, encrypted []string) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unable to authenticate"), strings.Contains(msg, "no supported methods"):
		if len(encrypted) > 0 {
			return "Your key(s) are encrypted. Add them to the agent: ssh-add " + strings.Join(encrypted, " ")
		}
		return "Auth failed. Check your keys are loaded: ssh-add -l"
	case strings.Contains(msg, "host key"):
		return "Host key issue. Connect once manually first: ssh <host>"
	}
	return "Try connecting manually to see the full error: ssh -v <host>"
}

// EncryptedKeyError is returned for a key file that needs a passphrase.
type EncryptedKeyError struct {
	Path string
}

func (e *EncryptedKeyError) Error() string {
	return fmt.Sprintf("SSH key at %s is passphrase protected", e.Path)
}

// HostKeyMismatchError reports a host whose key differs from known_hosts.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	KnownHosts   string
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// Suggestion tells the user how to refresh the stale entry.
func (e *HostKeyMismatchError) Suggestion() string {
	host := e.Hostname
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return fmt.Sprintf("If the device was reflashed, remove the old entry: ssh-keygen -R %s -f %s", host, e.KnownHosts)
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.Getenv("HOME")
}

func currentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "root"
}

func expandPath(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(homeDir(), rest)
	}
	return path
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
