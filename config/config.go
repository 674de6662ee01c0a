package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

var (
	ErrMissingRoot  = errors.New("config: root is required")
	ErrInvalidValue = errors.New("config: invalid value")
)

// EnvPrefix is the environment variable prefix for overrides
const EnvPrefix = "DOCSERVER"

// DefaultFile is the configuration file read when none is given
const DefaultFile = "config.ini"

// Config holds all application configuration. It is loaded once at startup
// and never modified afterwards.
type Config struct {
	Root        string `config:"root"`
	DefaultPage string `config:"defaultPage"`
	Port        int    `config:"port"`
	MaxThreads  int    `config:"maxThreads"`

	ChunkSize      int  `config:"chunkSize"`
	MaxHeaderBytes int  `config:"maxHeaderBytes"`
	MaxBodyBytes   int  `config:"maxBodyBytes"`
	ReadTimeout    int  `config:"readTimeout"`  // seconds, 0 = none
	WriteTimeout   int  `config:"writeTimeout"` // seconds, 0 = none
	ReusePort      bool `config:"reusePort"`
	EscapeFormHTML bool `config:"escapeFormHTML"`

	GCPercent     int `config:"gcPercent"`     // 0 = runtime default
	MemoryLimitMB int `config:"memoryLimitMB"` // 0 = no limit

	Env   string `config:"env"`
	Quiet bool   `config:"quiet"`

	// MimeOverrides comes from "mime.<ext>" keys
	MimeOverrides map[string]string `config:"-"`
}

// Default returns a configuration with every optional field set
func Default() *Config {
	return &Config{
		DefaultPage:    "index.html",
		Port:           8080,
		MaxThreads:     runtime.NumCPU() * 2,
		ChunkSize:      512,
		MaxHeaderBytes: 64 << 10,
		MaxBodyBytes:   1 << 20,
		Env:            "development",
	}
}

// Load reads a properties file (or a .json file), applies DOCSERVER_*
// environment overrides, expands '~' in root and validates the result.
func Load(path string) (*Config, error) {
	m := NewManager()

	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = m.LoadFromJSON(path)
	} else {
		err = m.LoadFromProperties(path)
	}
	if err != nil {
		return nil, err
	}

	m.LoadFromEnv(EnvPrefix)
	return FromManager(m)
}

// FromManager builds a validated Config from the values held by m
func FromManager(m *Manager) (*Config, error) {
	cfg := Default()
	if err := m.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.MimeOverrides = m.WithPrefix("mime")

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish expands the root and validates
func (c *Config) finish() error {
	root, err := ExpandHome(c.Root)
	if err != nil {
		return err
	}
	c.Root = root

	return c.Validate()
}

// Validate checks required fields and ranges
func (c *Config) Validate() error {
	if c.Root == "" {
		return ErrMissingRoot
	}
	if c.DefaultPage == "" {
		return fmt.Errorf("%w: defaultPage is empty", ErrInvalidValue)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidValue, c.Port)
	}
	if c.MaxThreads <= 0 {
		return fmt.Errorf("%w: maxThreads %d", ErrInvalidValue, c.MaxThreads)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunkSize %d", ErrInvalidValue, c.ChunkSize)
	}
	if c.MaxHeaderBytes <= 0 || c.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: request limits", ErrInvalidValue)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidValue)
	}
	if c.GCPercent < 0 || c.MemoryLimitMB < 0 {
		return fmt.Errorf("%w: negative GC setting", ErrInvalidValue)
	}
	return nil
}

// ReadTimeoutDuration returns the read deadline window (0 = none)
func (c *Config) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write deadline window (0 = none)
func (c *Config) WriteTimeoutDuration() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ExpandHome replaces a leading "~" or "~/" with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: expand %q: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}

// New loads configuration from command-line flags and the file they name
func New() (*Config, error) {
	return Parse(os.Args[1:])
}

// Parse loads configuration for the given arguments. The -config file is
// read first; flags given explicitly on the command line override it.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("docserver", flag.ContinueOnError)

	var (
		file       = fs.String("config", DefaultFile, "configuration file (properties or .json)")
		port       = fs.Int("port", 0, "HTTP server port")
		root       = fs.String("root", "", "document root")
		maxThreads = fs.Int("max-threads", 0, "maximum concurrent connections")
		env        = fs.String("env", "", "Environment (development/production)")
		quiet      = fs.Bool("quiet", false, "disable per-request logging")
	)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	m := NewManager()
	var err error
	if strings.EqualFold(filepath.Ext(*file), ".json") {
		err = m.LoadFromJSON(*file)
	} else {
		err = m.LoadFromProperties(*file)
	}
	if err != nil {
		// a missing default file is fine when flags carry the root
		if *file != DefaultFile || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	m.LoadFromEnv(EnvPrefix)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			m.Set("port", *port)
		case "root":
			m.Set("root", *root)
		case "max-threads":
			m.Set("maxThreads", *maxThreads)
		case "env":
			m.Set("env", *env)
		case "quiet":
			m.Set("quiet", *quiet)
		}
	})

	return FromManager(m)
}
