// Package config loads the YAML configuration shared by the sprinkles CLI and
// HTTP service.
//
// A configuration file looks like:
//
//	project_id: "your-gcp-project-id"
//	location: "us"
//	processor_id: "your-processor-id"
//	min_confidence: 0.9
//	pdf_info_timeout: 1s
//	server:
//	  port: 8888
//
// Every key is optional except the Document AI processor coordinates; missing
// keys keep the values from Default.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxInputSize is the Document AI online processing limit.
	DefaultMaxInputSize = 20 << 20
	// DefaultMaxOutputSize is the largest response the service will send.
	DefaultMaxOutputSize = 32 << 20
)

// Config holds everything needed to run a conversion.
type Config struct {
	ProjectID       string `yaml:"project_id" validate:"required"`
	Location        string `yaml:"location" validate:"required,oneof=us eu"`
	ProcessorID     string `yaml:"processor_id" validate:"required"`
	CredentialsFile string `yaml:"credentials_file"`

	// RequestsPerSecond throttles Document AI calls. Zero disables throttling.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`

	MaxInputSize   int64         `yaml:"max_input_size" validate:"gt=0"`
	MaxOutputSize  int64         `yaml:"max_output_size" validate:"gte=0"`
	PDFInfoTimeout time.Duration `yaml:"pdf_info_timeout" validate:"gt=0"`
	MinConfidence  float64       `yaml:"min_confidence" validate:"gte=0,lte=1"`
	Sandbox        bool          `yaml:"sandbox"`
	// DebugText renders the text layer visibly.
	DebugText bool `yaml:"debug_text"`
	// FontFile is a TrueType font for the text layer. Empty uses Go Regular.
	FontFile string `yaml:"font_file" validate:"omitempty,file"`

	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port" validate:"gte=0,lte=65535"`
	// ExpectedAudience enables IAP JWT validation when set.
	ExpectedAudience string `yaml:"expected_audience"`
	// Debug includes error detail in responses.
	Debug bool `yaml:"debug"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// Default returns a Config with every optional value filled in.
func Default() *Config {
	return &Config{
		Location:       "us",
		MaxInputSize:   DefaultMaxInputSize,
		MaxOutputSize:  DefaultMaxOutputSize,
		PDFInfoTimeout: time.Second,
		MinConfidence:  0.9,
		Sandbox:        true,
		Server: ServerConfig{
			Address: "127.0.0.1",
			Port:    8888,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file over the defaults. Validation is left to the caller
// so command-line flags can be applied first.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ListenAddr is the address the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
