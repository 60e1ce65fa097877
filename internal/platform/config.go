package platform

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/jot/internal/fsutil"
)

// Adapters selectable by configuration.
const (
	AdapterSQLite   = "sqlite"
	AdapterPostgres = "postgres"
	AdapterMemory   = "memory"
)

// File names inside a project root and data directory.
const (
	ConfigFileName  = "jot.yaml"
	EnvFileName     = ".env"
	SystemDir       = ".jot"
	DatabaseFile    = "jot.db"
	SessionFileName = "session"
	SecretFileName  = "secret"
)

// Config is the store connection configuration supplied at startup.
type Config struct {
	Project string `yaml:"project"`
	Adapter string `yaml:"adapter"`
	DSN     string `yaml:"dsn"`
	DataDir string `yaml:"data_dir"`
	Secret  string `yaml:"secret"`

	// Source records the config file that was read, if any.
	Source string `yaml:"-"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Project: "default",
		Adapter: AdapterSQLite,
	}
}

// LoadConfig layers, in increasing precedence: defaults, the YAML config
// file, the .env file of dir, and the process environment. getenv is
// usually os.Getenv. The YAML file is JOT_CONFIG when set, else
// dir/jot.yaml; a missing file is not an error.
func LoadConfig(dir string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	cfg := DefaultConfig()

	dotenv, err := readDotenv(filepath.Join(dir, EnvFileName))
	if err != nil {
		return cfg, err
	}
	lookup := func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	path := lookup("JOT_CONFIG")
	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, ConfigFileName)
	}
	if err := cfg.readFile(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return cfg, err
		}
	} else {
		cfg.Source = path
	}

	for key, field := range map[string]*string{
		"JOT_PROJECT":  &cfg.Project,
		"JOT_ADAPTER":  &cfg.Adapter,
		"JOT_DSN":      &cfg.DSN,
		"JOT_DATA_DIR": &cfg.DataDir,
		"JOT_SECRET":   &cfg.Secret,
	} {
		if v := lookup(key); v != "" {
			*field = v
		}
	}
	return cfg, nil
}

func readDotenv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return env, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Validate checks the adapter selection.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Project) == "" {
		return errors.New("config: project must not be empty")
	}
	switch c.Adapter {
	case AdapterSQLite, AdapterMemory:
	case AdapterPostgres:
		if c.DSN == "" {
			return errors.New("config: the postgres adapter requires a DSN")
		}
	default:
		return fmt.Errorf("config: unknown adapter %q (want %s, %s or %s)", c.Adapter, AdapterSQLite, AdapterPostgres, AdapterMemory)
	}
	return nil
}

// EnsureSecret returns the token signing secret: the configured one, or the
// one persisted in dataDir, generating and persisting it on first use.
func EnsureSecret(cfg Config, dataDir string) ([]byte, error) {
	if cfg.Secret != "" {
		return []byte(cfg.Secret), nil
	}
	path := filepath.Join(dataDir, SecretFileName)
	if data, err := os.ReadFile(path); err == nil {
		if s := strings.TrimSpace(string(data)); s != "" {
			return []byte(s), nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read secret: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	secret := hex.EncodeToString(raw)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, []byte(secret+"\n"), 0600); err != nil {
		return nil, fmt.Errorf("persist secret: %w", err)
	}
	return []byte(secret), nil
}
