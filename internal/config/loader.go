package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/rileyhilliard/xperf/internal/errors"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".xperf.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/xperf"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. XPERF_FAILURE_THRESHOLD.
	EnvPrefix = "XPERF"
)

// NewViper returns a viper instance with xperf's defaults and environment
// overrides wired in. Flags are bound onto it by the CLI before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("package", "")
	v.SetDefault("interval", d.Interval)
	v.SetDefault("cpu", false)
	v.SetDefault("memory", false)
	v.SetDefault("verbose", false)
	v.SetDefault("threads", 0)
	v.SetDefault("failure_threshold", d.FailureThreshold)
	v.SetDefault("timeout", d.Timeout.String())
	v.SetDefault("clock_ticks", d.ClockTicks)
	v.SetDefault("target.serial", "")
	v.SetDefault("target.adb", d.Target.ADB)
	v.SetDefault("target.ssh", "")
	v.SetDefault("target.ssh_config", "")
	v.SetDefault("target.insecure_ignore_host_key", false)
	v.SetDefault("output.log_dir", d.Output.LogDir)
	v.SetDefault("output.no_log", false)
	v.SetDefault("output.csv", false)
	v.SetDefault("output.tui", false)
	v.SetDefault("output.color", d.Output.Color)
}

// Load merges the config file at path (if any) into v and decodes the result.
// An empty path means no file: defaults, environment and flags only.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Check the path passed to --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+displayPath(path))
	}

	cfg.Output.LogDir = ExpandTilde(Expand(cfg.Output.LogDir, cfg.Package))
	cfg.Target.SSHConfig = ExpandTilde(cfg.Target.SSHConfig)
	return cfg, nil
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .xperf.yaml in current directory
// 3. .xperf.yaml in parent directories (stops at git root or home)
// 4. ~/.config/xperf/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && parent == home {
			break
		}
		dir = parent

		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}
	}

	if home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

func displayPath(path string) string {
	if path == "" {
		return "your environment overrides"
	}
	return path
}
