package config

import (
	"strings"
	"time"

	"github.com/Phaysik/database-normalizer/internal/normalizer"
)

// Default values applied to omitted fields.
const (
	DefaultSQLDir        = "resources/sql/"
	DefaultDependencyDir = "resources/dependencies/"
	DefaultDependencyExt = ".txt"
	DefaultForm          = normalizer.ThirdNF
	DefaultOutputDir     = "output/"
	DefaultHistoryPath   = ".dbnormalizer/history.db"
	DefaultSubject       = "dbnormalizer.runs"
	DefaultNotifyTimeout = 5 * time.Second
	DefaultDebounce      = 500 * time.Millisecond
	DefaultDocsDir       = "docs/"
)

func applyDefaults(cfg *Config) {
	if cfg.Input.SQLDir == "" {
		cfg.Input.SQLDir = DefaultSQLDir
	}
	if cfg.Input.DependencyDir == "" {
		cfg.Input.DependencyDir = DefaultDependencyDir
	}
	if cfg.Input.DependencyExt == "" {
		cfg.Input.DependencyExt = DefaultDependencyExt
	}
	if !strings.HasPrefix(cfg.Input.DependencyExt, ".") {
		cfg.Input.DependencyExt = "." + cfg.Input.DependencyExt
	}

	if cfg.Normalize.Form == 0 {
		cfg.Normalize.Form = DefaultForm
	}

	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}

	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}

	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultSubject
	}
	if cfg.Notify.Timeout <= 0 {
		cfg.Notify.Timeout = DefaultNotifyTimeout
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}

	if cfg.Docs.Directory == "" {
		cfg.Docs.Directory = DefaultDocsDir
	}
}
