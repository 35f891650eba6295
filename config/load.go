package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/currency"
	"gopkg.in/yaml.v3"

	"github.com/sambeau/viewscope/pkg/viewscope/cast"
	"github.com/sambeau/viewscope/pkg/viewscope/logging"
	"github.com/sambeau/viewscope/pkg/viewscope/source"
)

// DefaultFile is the config file looked for in the working directory.
const DefaultFile = "viewscope.yaml"

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches default locations; finding nothing
// there is not an error and yields the defaults.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	return cfg, err
}

// LoadWithPath reads configuration and returns both the config and the resolved path.
// The path is empty when no config file was found.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		cfg := Defaults()
		if wd, err := os.Getwd(); err == nil {
			cfg.BaseDir = wd
		}
		return cfg, "", nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BaseDir = baseDir
	cfg.resolvePaths()

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, absPath, nil
}

// resolvePaths makes file paths relative to the config file's directory.
func (cfg *Config) resolvePaths() {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cfg.BaseDir, p)
	}

	cfg.Data.File = abs(cfg.Data.File)
	cfg.Server.TemplateFile = abs(cfg.Server.TemplateFile)

	// Only sqlite DSNs are paths
	if name, _ := source.DriverName(cfg.Data.Driver); name == "sqlite" &&
		cfg.Data.DSN != ":memory:" && !strings.HasPrefix(cfg.Data.DSN, "file:") {
		cfg.Data.DSN = abs(cfg.Data.DSN)
	}

	switch cfg.Logging.Output {
	case "", "stderr", "stdout":
	default:
		cfg.Logging.Output = abs(cfg.Logging.Output)
	}
}

// resolveConfigPath finds the config file to use.
// Search order: explicit path > VIEWSCOPE_CONFIG env > ./viewscope.yaml
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("VIEWSCOPE_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("VIEWSCOPE_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile, nil
	}
	return "", nil
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

// Validate checks the configuration and reports every problem at once.
func Validate(cfg *Config) error {
	var errs []string

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be json or text)", cfg.Logging.Format))
	}

	casts := cast.NewRegistry()
	if !casts.Has(cfg.Presenter.DefaultCast) {
		errs = append(errs, fmt.Sprintf("presenter.default_cast: unknown cast %q (known: %s)",
			cfg.Presenter.DefaultCast, strings.Join(casts.Types(), ", ")))
	}

	if _, err := cast.LanguageTag(cfg.Site.Locale); err != nil {
		errs = append(errs, fmt.Sprintf("site.locale: invalid locale %q", cfg.Site.Locale))
	}
	if _, err := currency.ParseISO(cfg.Site.Currency); err != nil {
		errs = append(errs, fmt.Sprintf("site.currency: invalid currency code %q", cfg.Site.Currency))
	}

	if cfg.Data.DSN != "" || len(cfg.Data.Lists) > 0 {
		if _, ok := source.DriverName(cfg.Data.Driver); !ok {
			errs = append(errs, fmt.Sprintf("data.driver: %q (must be sqlite, postgres, or mysql)", cfg.Data.Driver))
		}
		if cfg.Data.DSN == "" {
			errs = append(errs, "data.lists: requires data.dsn")
		}
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port: %d (must be 1-65535)", cfg.Server.Port))
	}
	validLevels := map[string]bool{"fastest": true, "default": true, "best": true, "none": true}
	if !validLevels[cfg.Server.Compression.Level] {
		errs = append(errs, fmt.Sprintf("server.compression.level: %s (must be fastest, default, best, or none)", cfg.Server.Compression.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
