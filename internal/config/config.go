package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Supported LLM providers
const (
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
)

// Supported chart formats
const (
	ChartSVG = "svg"
	ChartPNG = "png"
)

// Config holds application configuration
type Config struct {
	Port                 string   `json:"port" yaml:"port"`
	LLMProvider          string   `json:"llm_provider" yaml:"llm_provider"`
	GeminiAPIKey         string   `json:"gemini_api_key,omitempty" yaml:"gemini_api_key,omitempty"`
	GoogleCloudProject   string   `json:"google_cloud_project" yaml:"google_cloud_project"`
	GoogleCloudLocation  string   `json:"google_cloud_location" yaml:"google_cloud_location"`
	Model                string   `json:"model" yaml:"model"`
	Temperature          float32  `json:"temperature" yaml:"temperature"`
	AssetsDir            string   `json:"assets_dir" yaml:"assets_dir"`
	LogoFile             string   `json:"logo_file" yaml:"logo_file"`
	DebugHTMLDir         string   `json:"debug_html_dir" yaml:"debug_html_dir"`
	PDFRenderer          string   `json:"pdf_renderer" yaml:"pdf_renderer"`
	RenderTimeout        Duration `json:"render_timeout" yaml:"render_timeout"`
	ChartFormat          string   `json:"chart_format" yaml:"chart_format"`
	LogLevel             string   `json:"log_level" yaml:"log_level"`
	MaxUploadMB          int64    `json:"max_upload_mb" yaml:"max_upload_mb"`
	GmailCredentialsPath string   `json:"gmail_credentials_path" yaml:"gmail_credentials_path"`
	GmailTokenPath       string   `json:"gmail_token_path" yaml:"gmail_token_path"`
}

// Duration is a time.Duration that reads and writes as "30s" in JSON and YAML
type Duration struct {
	time.Duration
}

// MarshalYAML encodes the duration in its string form
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML accepts "30s" style strings or plain seconds
func (d *Duration) UnmarshalYAML(b []byte) error {
	var v interface{}
	if err := yaml.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		parsed, err := time.ParseDuration(t)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", t, err)
		}
		d.Duration = parsed
	case int:
		d.Duration = time.Duration(t) * time.Second
	case uint64:
		d.Duration = time.Duration(t) * time.Second
	case int64:
		d.Duration = time.Duration(t) * time.Second
	case float64:
		d.Duration = time.Duration(t * float64(time.Second))
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
	return nil
}

// MarshalJSON encodes the duration in its string form
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "30s" style strings or plain seconds
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		d.Duration = v
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("invalid duration: %s", string(b))
	}
	d.Duration = time.Duration(secs * float64(time.Second))
	return nil
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		Port:                 "8000",
		LLMProvider:          ProviderGemini,
		GoogleCloudLocation:  "us-central1",
		Model:                "gemini-2.0-flash",
		Temperature:          0.7,
		AssetsDir:            "assets",
		LogoFile:             "logo.png",
		DebugHTMLDir:         "debug",
		PDFRenderer:          "weasyprint",
		RenderTimeout:        Duration{60 * time.Second},
		ChartFormat:          ChartSVG,
		LogLevel:             "info",
		MaxUploadMB:          32,
		GmailCredentialsPath: "credentials.json",
		GmailTokenPath:       "token.json",
	}
}

// Load builds the configuration from defaults, an optional JSON file,
// an optional .env file and finally the process environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		cfg, err = LoadFrom(path)
		if err != nil {
			return nil, err
		}
	}

	// .env is optional; a missing file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom loads configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	unmarshal := json.Unmarshal
	if isYAML(path) {
		unmarshal = yaml.Unmarshal
	}
	if err := unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// isYAML reports whether the config path names a YAML file; anything else is JSON
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.LLMProvider, "LLM_PROVIDER")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.GoogleCloudProject, "GOOGLE_CLOUD_PROJECT")
	setString(&c.GoogleCloudLocation, "GOOGLE_CLOUD_LOCATION")
	setString(&c.Model, "GEMINI_MODEL")
	setString(&c.AssetsDir, "ASSETS_DIR")
	setString(&c.LogoFile, "LOGO_FILE")
	setString(&c.PDFRenderer, "PDF_RENDERER")
	setString(&c.ChartFormat, "CHART_FORMAT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.GmailCredentialsPath, "GMAIL_CREDENTIALS")
	setString(&c.GmailTokenPath, "GMAIL_TOKEN")

	// An explicitly empty DEBUG_HTML_DIR turns the debug dump off
	if v, ok := os.LookupEnv("DEBUG_HTML_DIR"); ok {
		c.DebugHTMLDir = v
	}

	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid LLM_TEMPERATURE %q: %w", v, err)
		}
		c.Temperature = float32(f)
	}
	if v := os.Getenv("RENDER_TIMEOUT"); v != "" {
		d, err := parseDurationOrSeconds(v)
		if err != nil {
			return fmt.Errorf("invalid RENDER_TIMEOUT %q: %w", v, err)
		}
		c.RenderTimeout = Duration{d}
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_MB %q: %w", v, err)
		}
		c.MaxUploadMB = n
	}
	return nil
}

// parseDurationOrSeconds accepts "90s" style strings or plain seconds
func parseDurationOrSeconds(v string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(secs) && !math.IsInf(secs, 0) {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY ortam değişkeni bulunamadı. Lütfen .env dosyasında ayarlayın")
		}
	case ProviderVertex:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("google_cloud_project is required for the vertex provider")
		}
		if c.GoogleCloudLocation == "" {
			return fmt.Errorf("google_cloud_location is required for the vertex provider")
		}
	default:
		return fmt.Errorf("unknown llm_provider %q (want %q or %q)", c.LLMProvider, ProviderGemini, ProviderVertex)
	}

	if c.Model == "" {
		return fmt.Errorf("model is required")
	}

	if c.ChartFormat != ChartSVG && c.ChartFormat != ChartPNG {
		return fmt.Errorf("unknown chart_format %q (want %q or %q)", c.ChartFormat, ChartSVG, ChartPNG)
	}

	if c.PDFRenderer == "" {
		return fmt.Errorf("pdf_renderer is required")
	}

	if c.RenderTimeout.Duration <= 0 {
		return fmt.Errorf("render_timeout must be positive")
	}

	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive")
	}

	return nil
}

// LogoPath returns the full path of the logo image
func (c *Config) LogoPath() string {
	return filepath.Join(c.AssetsDir, c.LogoFile)
}

// MaxUploadBytes returns the upload limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
