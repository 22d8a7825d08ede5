package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/logger"
)

// ErrRequiresRestart is returned by TryReload when the file changed keys
// that cannot be applied at runtime. Reloadable keys are still applied.
var ErrRequiresRestart = errors.New("configuration change requires restart")

// ReloadFunc is called with the new configuration after a successful reload.
type ReloadFunc func(cfg *Config)

// ConfigManager holds the live configuration and reloads it on file changes
// or on demand.
type ConfigManager struct {
	path   string
	viper  *viper.Viper
	logger logger.Logger

	mu        sync.RWMutex
	current   *Config
	callbacks []ReloadFunc

	// reloadMu serializes reloads from the watcher and from HTTP.
	reloadMu sync.Mutex
}

// NewConfigManager creates a manager over the file at path, starting from
// an already loaded configuration.
func NewConfigManager(path string, initial *Config, log logger.Logger) (*ConfigManager, error) {
	if initial == nil {
		return nil, fmt.Errorf("initial config is required")
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	return &ConfigManager{
		path:    path,
		viper:   v,
		logger:  log,
		current: initial,
	}, nil
}

// Get returns the current configuration. Callers must not modify it.
func (m *ConfigManager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// OnReload registers fn to run after every applied reload.
func (m *ConfigManager) OnReload(fn ReloadFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Watch starts watching the config file and reloads on writes.
func (m *ConfigManager) Watch() error {
	if err := m.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config for watch: %w", err)
	}

	m.viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		m.logger.Info("config file changed", "file", e.Name, "op", e.Op.String())

		err := m.TryReload()
		switch {
		case err == nil:
		case errors.Is(err, ErrRequiresRestart):
			m.logger.Warn("config change needs a restart to take full effect", "error", err)
		default:
			m.logger.Error("config reload failed, keeping previous config", "error", err)
		}
	})
	m.viper.WatchConfig()

	m.logger.Info("watching config file", "path", m.path)
	return nil
}

// TryReload loads the file again and applies the reloadable keys. A change
// to any other key is reported as ErrRequiresRestart.
func (m *ConfigManager) TryReload() error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	next, err := Load(m.path)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}

	m.mu.Lock()
	prev := m.current
	changed := diffKeys(prev, next)
	if len(changed) == 0 {
		m.mu.Unlock()
		m.logger.Debug("config reload found no changes")
		return nil
	}

	var static []string
	merged := *prev
	for _, key := range changed {
		if !IsReloadable(key) {
			static = append(static, key)
			continue
		}
		applyKey(&merged, next, key)
	}
	m.current = &merged
	callbacks := append([]ReloadFunc(nil), m.callbacks...)
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(&merged)
	}

	m.logger.Info("config reloaded", "changed", changed)

	if len(static) > 0 {
		reasons := make([]string, 0, len(static))
		for _, key := range static {
			reasons = append(reasons, fmt.Sprintf("%s (%s)", key, getRestartReason(key)))
		}
		return fmt.Errorf("%w: %v", ErrRequiresRestart, reasons)
	}
	return nil
}

// diffKeys lists the config keys that differ between a and b. Reloadable
// keys are compared individually, everything else per top-level section.
func diffKeys(a, b *Config) []string {
	var keys []string

	fields := map[string][2]any{
		"logging.level":                {a.Logging.Level, b.Logging.Level},
		"logging.format":               {a.Logging.Format, b.Logging.Format},
		"sessions.timeout":             {a.Sessions.Timeout, b.Sessions.Timeout},
		"sessions.paginator_max_chars": {a.Sessions.PaginatorMaxChars, b.Sessions.PaginatorMaxChars},
		"sessions.paginator_min_chars": {a.Sessions.PaginatorMinChars, b.Sessions.PaginatorMinChars},
		"server":                       {a.Server, b.Server},
		"platform":                     {a.Platform, b.Platform},
		"discord":                      {a.Discord, b.Discord},
		"slack":                        {a.Slack, b.Slack},
		"storage":                      {a.Storage, b.Storage},
	}
	for key, pair := range fields {
		if !reflect.DeepEqual(pair[0], pair[1]) {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)
	return keys
}

func applyKey(dst, src *Config, key string) {
	switch key {
	case "logging.level":
		dst.Logging.Level = src.Logging.Level
	case "logging.format":
		dst.Logging.Format = src.Logging.Format
	case "sessions.timeout":
		dst.Sessions.Timeout = src.Sessions.Timeout
	case "sessions.paginator_max_chars":
		dst.Sessions.PaginatorMaxChars = src.Sessions.PaginatorMaxChars
	case "sessions.paginator_min_chars":
		dst.Sessions.PaginatorMinChars = src.Sessions.PaginatorMinChars
	}
}
