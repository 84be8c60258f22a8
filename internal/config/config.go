package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories renderfarm reads and writes.
type Paths struct {
	ConfigDir   string `toml:"config_dir"`
	StateDir    string `toml:"state_dir"`
	AutosaveDir string `toml:"autosave_dir"`
	LogDir      string `toml:"log_dir"`
}

// Service describes the remote farm endpoints.
type Service struct {
	Host           string `toml:"host"`
	DevHost        string `toml:"dev_host"`
	SecurePath     string `toml:"secure_path"`
	GeneralPath    string `toml:"general_path"`
	UploadPath     string `toml:"upload_path"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Submission holds the defaults a fresh submission form starts from.
type Submission struct {
	MemoryLimit   int    `toml:"memory_limit"`
	Parts         int    `toml:"parts"`
	Samples       int    `toml:"samples"`
	SubSamples    int    `toml:"sub_samples"`
	Renderer      string `toml:"renderer"`
	OutputLicense string `toml:"output_license"`
	InputLicense  string `toml:"input_license"`
}

// LocalRender configures the local test render command. Args may contain the
// {file} and {frame} placeholders.
type LocalRender struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Frame   int      `toml:"frame"`
}

// Alerts controls how long transient alerts stay visible.
type Alerts struct {
	TransientSeconds int `toml:"transient_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for renderfarm.
//
// Configuration sections by subsystem:
//   - Paths: credential, state, autosave and log directories
//   - Service: farm host, developer host and endpoint paths
//   - Submission: submission form defaults
//   - LocalRender: local test render command line
//   - Alerts: transient alert window
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Service     Service     `toml:"service"`
	Submission  Submission  `toml:"submission"`
	LocalRender LocalRender `toml:"local_render"`
	Alerts      Alerts      `toml:"alerts"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(filepath.Join(defaultConfigDir, defaultConfigFileName))
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(defaultProjectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the config, state, autosave and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ConfigDir, c.Paths.StateDir, c.Paths.AutosaveDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CredentialPath is the per-user credential file.
func (c *Config) CredentialPath() string {
	return filepath.Join(c.Paths.ConfigDir, credentialFileName)
}

// DevModePath is the optional developer toggle file beside the credential file.
func (c *Config) DevModePath() string {
	return filepath.Join(filepath.Dir(c.CredentialPath()), devModeFileName)
}

// StatePath is the SQLite database holding core state.
func (c *Config) StatePath() string {
	return filepath.Join(c.Paths.StateDir, stateFileName)
}

// LockPath guards single ownership of the core state.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, lockFileName)
}

// LogPath is the log file written next to stderr output.
func (c *Config) LogPath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, logFileName)
}

// TransientAlertWindow reports how long a transient alert stays active.
func (c *Config) TransientAlertWindow() time.Duration {
	return time.Duration(c.Alerts.TransientSeconds) * time.Second
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Service.RequestTimeout) * time.Second
}

// Endpoints holds resolved URLs for the three farm endpoints.
type Endpoints struct {
	Secure  string
	General string
	Upload  string
}

// ServiceEndpoints resolves the endpoint URLs, switching to the developer
// host when developer mode is on.
func (c *Config) ServiceEndpoints(dev DevMode) Endpoints {
	host := c.Service.Host
	if dev.DeveloperMode && strings.TrimSpace(c.Service.DevHost) != "" {
		host = c.Service.DevHost
	}
	host = strings.TrimRight(host, "/")
	return Endpoints{
		Secure:  host + c.Service.SecurePath,
		General: host + c.Service.GeneralPath,
		Upload:  host + c.Service.UploadPath,
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
