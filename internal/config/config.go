package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultMaxRows     = 10000
	DefaultWorkers     = 1
)

// Config holds all configuration for the form filler MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Pipeline configuration
	TemplateDirectory string
	OutputDirectory   string
	MaxFileSize       int64 // Maximum template file size in bytes
	MaxRows           int   // Maximum CSV rows accepted per batch
	Workers           int   // Concurrent fill workers per batch run

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:              ModeStdio, // Default to stdio mode for MCP compatibility
		Host:              DefaultHost,
		Port:              DefaultPort,
		TemplateDirectory: currentDir,
		OutputDirectory:   currentDir,
		Version:           "1.0.0",
		ServerName:        "mcp-form-filler",
		LogLevel:          DefaultLogLevel,
		MaxFileSize:       DefaultMaxFileSize,
		MaxRows:           DefaultMaxRows,
		Workers:           DefaultWorkers,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.TemplateDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.TemplateDirectory); err == nil {
			cfg.TemplateDirectory = expandedPath
		}
	}
	if cfg.OutputDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.OutputDirectory); err == nil {
			cfg.OutputDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix, mapping hyphenated keys to underscores
	viper.SetEnvPrefix("MCP_FORM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Define flags with Viper
	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("templates", cfg.TemplateDirectory)
	viper.SetDefault("output", cfg.OutputDirectory)
	viper.SetDefault("log-level", cfg.LogLevel)
	viper.SetDefault("max-file-size", cfg.MaxFileSize)
	viper.SetDefault("max-rows", cfg.MaxRows)
	viper.SetDefault("workers", cfg.Workers)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("templates", cfg.TemplateDirectory, "Directory containing form template PDFs")
	pflag.String("output", cfg.OutputDirectory, "Directory where packet archives are written")
	pflag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("max-file-size", cfg.MaxFileSize, "Maximum template file size in bytes")
	pflag.Int("max-rows", cfg.MaxRows, "Maximum CSV rows accepted per batch")
	pflag.Int("workers", cfg.Workers, "Concurrent fill workers per batch run")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("templates", pflag.Lookup("templates"))
	_ = viper.BindPFlag("output", pflag.Lookup("output"))
	_ = viper.BindPFlag("log-level", pflag.Lookup("log-level"))
	_ = viper.BindPFlag("max-file-size", pflag.Lookup("max-file-size"))
	_ = viper.BindPFlag("max-rows", pflag.Lookup("max-rows"))
	_ = viper.BindPFlag("workers", pflag.Lookup("workers"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Form Filler - A Model Context Protocol server for batch-filling PDF court forms\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                           "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --templates=/path/to/forms                "+
			"# stdio mode with custom template directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --templates=/path/to/forms --output=/tmp/packets\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081  # server on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_MODE           Server mode\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_HOST           Server host\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_PORT           Server port\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_TEMPLATES      Template directory\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_OUTPUT         Output directory\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_LOG_LEVEL      Log level\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_MAX_FILE_SIZE  Maximum template file size\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_MAX_ROWS       Maximum CSV rows per batch\n")
		fmt.Fprintf(os.Stderr, "  MCP_FORM_WORKERS        Concurrent fill workers\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.TemplateDirectory = viper.GetString("templates")
	cfg.OutputDirectory = viper.GetString("output")
	cfg.LogLevel = viper.GetString("log-level")
	cfg.MaxFileSize = viper.GetInt64("max-file-size")
	cfg.MaxRows = viper.GetInt("max-rows")
	cfg.Workers = viper.GetInt("workers")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate directories. Existence is not checked here so placeholder
	// paths survive until the template loader resolves them.
	if c.TemplateDirectory == "" {
		return errors.New("template directory cannot be empty")
	}
	if c.OutputDirectory == "" {
		return errors.New("output directory cannot be empty")
	}

	// Validate pipeline limits
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.MaxRows <= 0 {
		return errors.New("maximum row count must be positive")
	}
	if c.Workers < 1 {
		return errors.New("worker count must be at least 1")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Mode: %s, Host: %s, Port: %d, TemplateDirectory: %s, OutputDirectory: %s, "+
			"LogLevel: %s, MaxFileSize: %d, MaxRows: %d, Workers: %d}",
		c.Mode, c.Host, c.Port, c.TemplateDirectory, c.OutputDirectory,
		c.LogLevel, c.MaxFileSize, c.MaxRows, c.Workers)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
