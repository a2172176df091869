package repo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/odvcencio/myvcs/pkg/diff"
)

// Config stores repository-local settings in .myvcs/config.toml.
type Config struct {
	Core    CoreConfig        `toml:"core"`
	Diff    DiffConfig        `toml:"diff"`
	Server  ServerConfig      `toml:"server"`
	Log     LogConfig         `toml:"log"`
	Remotes map[string]string `toml:"remotes"`
}

type CoreConfig struct {
	DefaultBranch string `toml:"default_branch"`
}

type DiffConfig struct {
	// Context is the number of unchanged lines around each hunk.
	Context int `toml:"context"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig controls the CLI's logger. An empty File logs to stderr;
// otherwise the file is rotated at MaxSizeMB.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// DefaultConfig returns the settings a fresh repository starts with.
func DefaultConfig() *Config {
	return &Config{
		Core:    CoreConfig{DefaultBranch: "main"},
		Diff:    DiffConfig{Context: diff.DefaultContext},
		Server:  ServerConfig{Addr: "127.0.0.1:8080"},
		Log:     LogConfig{Level: "info", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28},
		Remotes: make(map[string]string),
	}
}

func (r *Repo) configPath() string {
	return filepath.Join(r.MetaDir, "config.toml")
}

// ReadConfig reads .myvcs/config.toml over the defaults. A missing file
// yields the defaults.
func (r *Repo) ReadConfig() (*Config, error) {
	return LoadConfig(r.configPath())
}

// LoadConfig decodes the TOML file at path over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("read config: decode: %w", err)
	}
	if cfg.Remotes == nil {
		cfg.Remotes = make(map[string]string)
	}
	if cfg.Diff.Context < 0 {
		cfg.Diff.Context = 0
	}
	return cfg, nil
}

// WriteConfig atomically writes .myvcs/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(r.MetaDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// SetRemote stores or updates a named remote location.
func (r *Repo) SetRemote(name, location string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return newError(ErrInvalidArgument, "remote name is required")
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return newError(ErrInvalidArgument, "remote location is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	cfg.Remotes[name] = location
	if err := r.WriteConfig(cfg); err != nil {
		return err
	}
	r.log.Info("remote added", "op", "remote", "name", name, "location", location)
	return nil
}

// Remote is a configured named remote.
type Remote struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Remotes lists the configured remotes sorted by name.
func (r *Repo) Remotes() ([]Remote, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return nil, err
	}
	out := make([]Remote, 0, len(cfg.Remotes))
	for name, loc := range cfg.Remotes {
		out = append(out, Remote{Name: name, Location: loc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// remoteLocation maps a configured remote name to its location. Anything
// else is taken as a path or URL.
func (r *Repo) remoteLocation(spec string) (string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", newError(ErrInvalidArgument, "remote_path is required")
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		return "", err
	}
	if loc, ok := cfg.Remotes[spec]; ok && strings.TrimSpace(loc) != "" {
		return loc, nil
	}
	return spec, nil
}
