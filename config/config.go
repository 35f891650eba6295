// Package config loads viewscope.yaml: presenter defaults, site globals,
// data sources, the preview server and logging.
package config

// Config represents the complete viewscope configuration
type Config struct {
	BaseDir   string            `yaml:"-"` // Directory containing config file, for resolving relative paths
	Presenter PresenterConfig   `yaml:"presenter"`
	Site      SiteConfig        `yaml:"site"`
	Modules   map[string]string `yaml:"modules"` // Module name -> path, for $ModulePath
	Globals   map[string]any    `yaml:"globals"` // Literal template globals; "Name:Cast" keys set the cast
	Data      DataConfig        `yaml:"data"`
	Server    ServerConfig      `yaml:"server"`
	Logging   LoggingConfig     `yaml:"logging"`
}

// PresenterConfig holds data presenter settings
type PresenterConfig struct {
	DefaultCast string `yaml:"default_cast"` // Cast for values that do not name one (default: "Text")
}

// SiteConfig holds the values behind the site globals
type SiteConfig struct {
	BaseURL         string `yaml:"base_url"`          // $BaseHref (default: "/")
	AbsoluteBaseURL string `yaml:"absolute_base_url"` // $AbsoluteBaseURL
	Locale          string `yaml:"locale"`            // $CurrentLocale and cast formatting (default: "en_US")
	Currency        string `yaml:"currency"`          // ISO 4217 code for Currency casts (default: "USD")
}

// DataConfig describes where the root item comes from
type DataConfig struct {
	File   string            `yaml:"file"`   // YAML item file
	Driver string            `yaml:"driver"` // sqlite, postgres or mysql
	DSN    string            `yaml:"dsn"`
	Lists  map[string]string `yaml:"lists"` // Root field -> SQL query
}

// ServerConfig holds preview server settings
type ServerConfig struct {
	Host         string            `yaml:"host"`
	Port         int               `yaml:"port"`
	Template     string            `yaml:"template"`      // Inline template text
	TemplateFile string            `yaml:"template_file"` // Template file, used when Template is empty
	Compression  CompressionConfig `yaml:"compression"`
}

// CompressionConfig holds response compression settings
type CompressionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`    // fastest, default, best, none
	MinSize int    `yaml:"min_size"` // Minimum response size to compress (bytes)
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stderr, stdout, or a file path
}

// Defaults returns a configuration with sensible defaults
func Defaults() *Config {
	return &Config{
		Presenter: PresenterConfig{
			DefaultCast: "Text",
		},
		Site: SiteConfig{
			BaseURL:  "/",
			Locale:   "en_US",
			Currency: "USD",
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
			Compression: CompressionConfig{
				Enabled: true,
				Level:   "default",
				MinSize: 1024,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}
