// Package config loads dbnormalizer.yaml.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Phaysik/database-normalizer/internal/docsite"
	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
	"github.com/Phaysik/database-normalizer/internal/normalizer"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "dbnormalizer.yaml"

// Config is the complete tool configuration.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Output    OutputConfig    `yaml:"output"`
	History   HistoryConfig   `yaml:"history"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Notify    NotifyConfig    `yaml:"notify"`
	Watch     WatchConfig     `yaml:"watch"`
	Docs      DocsConfig      `yaml:"docs"`
}

// InputConfig locates datasets and their dependency files.
type InputConfig struct {
	SQLDir        string `yaml:"sql_dir"`
	DependencyDir string `yaml:"dependency_dir"`
	DependencyExt string `yaml:"dependency_ext"`
}

// NormalizeConfig selects the target form and batch parallelism.
type NormalizeConfig struct {
	Form normalizer.Form `yaml:"form"`
	// Concurrency bounds parallel datasets in batch and watch runs; 0 means GOMAXPROCS.
	Concurrency int `yaml:"concurrency"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Remove previous .sql results before a batch run
}

// HistoryConfig controls the SQLite run history.
type HistoryConfig struct {
	// Enabled defaults to true when omitted.
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// IsEnabled reports whether runs are recorded.
func (h HistoryConfig) IsEnabled() bool { return h.Enabled == nil || *h.Enabled }

// MetricsConfig controls metrics export.
type MetricsConfig struct {
	// Textfile, when set, receives the registry in Prometheus text format after each run.
	Textfile string `yaml:"textfile"`
	// ListenAddr, when set, serves /metrics while watching.
	ListenAddr string `yaml:"listen_addr"`
}

// NotifyConfig controls NATS run announcements.
type NotifyConfig struct {
	NATSURL   string        `yaml:"nats_url"`
	Subject   string        `yaml:"subject"`
	JetStream bool          `yaml:"jetstream"`
	KVBucket  string        `yaml:"kv_bucket"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Enabled reports whether a NATS server is configured.
func (n NotifyConfig) Enabled() bool { return n.NATSURL != "" }

// WatchConfig controls the input watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	// PollInterval re-runs the batch on a fixed schedule; 0 disables polling.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// DocsConfig controls the documentation site sources.
type DocsConfig struct {
	Directory string `yaml:"directory"`
	// Assignments are replayed onto the published defaults in order.
	Assignments []docsite.Assignment `yaml:"assignments"`
}

// Settings returns the published defaults with the configured assignments applied.
func (d DocsConfig) Settings() (docsite.Settings, error) {
	s := docsite.Defaults()
	if err := s.ApplyAll(d.Assignments); err != nil {
		return docsite.Settings{}, err
	}
	return s, nil
}

// Load reads path (DefaultPath when empty), expands ${VAR} references,
// applies defaults and validates the result. A missing file yields the
// defaults unless the path was given explicitly.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
				WithContext("path", path).
				Build()
		}
	case os.IsNotExist(err) && !explicit:
	case os.IsNotExist(err):
		return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", path)).
			WithContext("path", path).
			UserAction().
			Build()
	default:
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", path).
			Build()
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration holding only defaults.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file to path.
func Init(path string, force bool) error {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).
			WithContext("path", path).
			UserAction().
			Build()
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", path).
			Build()
	}
	return nil
}

const exampleConfig = `# dbnormalizer configuration. Environment references are expanded
# after loading .env and .env.local.
input:
  sql_dir: resources/sql/
  dependency_dir: resources/dependencies/
  dependency_ext: .txt

normalize:
  form: 3NF
  concurrency: 0

output:
  directory: output/
  clean: false

history:
  enabled: true
  path: .dbnormalizer/history.db

metrics:
  textfile: ""
  listen_addr: ""

notify:
  nats_url: ${DBNORMALIZER_NATS_URL}
  subject: dbnormalizer.runs
  jetstream: false
  kv_bucket: ""
  timeout: 5s

watch:
  debounce: 500ms
  poll_interval: 0s

docs:
  directory: docs/
  assignments:
    - key: html_title
      value: Database Normalizer
`
