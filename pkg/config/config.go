// Package config resolves figma-cards settings from the environment, an
// optional .env file and an optional YAML project file.
//
// Precedence is flags (applied by the caller) > environment > project file > defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kataras/figma-cards/pkg/palette"
)

// Environment variables. The card extractor and the file exporter use
// separate credentials; neither falls back to the other.
const (
	EnvExtractToken = "FIGMA_ACCESS_TOKEN"
	EnvExportToken  = "FIGMA_TOKEN"
	EnvFileKey      = "FIGMA_FILE_KEY"
	EnvNodeIDs      = "FIGMA_NODE_IDS"
	EnvOutputDir    = "FIGMA_CARDS_OUTPUT_DIR"
	EnvExportDir    = "FIGMA_EXPORT_DIR"
	EnvPalette      = "FIGMA_PALETTE"
	EnvBaseURL      = "FIGMA_API_BASE"
)

// Defaults.
const (
	DefaultProjectFile = "figma-cards.yaml"
	DefaultEnvFile     = ".env"
	DefaultOutputDir   = "figma-cards"
	DefaultExportDir   = "figma-export"
)

// Config is the resolved configuration shared by both workflows.
type Config struct {
	ExtractToken string // credential for the card extractor
	ExportToken  string // credential for the full-file exporter
	FileKey      string
	NodeIDs      []string
	OutputDir    string
	ExportDir    string
	PalettePath  string
	Palette      []palette.Entry // inline palette from the project file
	BaseURL      string
}

// ConfigError reports a missing or invalid setting. It is always fatal and
// raised before any network call.
type ConfigError struct {
	Setting string // human name, e.g. "access token"
	Env     string // environment variable that would provide it, if any
	Flag    string // CLI flag that would provide it, if any
	Msg     string
}

func (e *ConfigError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "is required"
	}
	var hints []string
	if e.Flag != "" {
		hints = append(hints, "--"+e.Flag)
	}
	if e.Env != "" {
		hints = append(hints, e.Env)
	}
	if len(hints) == 0 {
		return fmt.Sprintf("%s %s", e.Setting, msg)
	}
	return fmt.Sprintf("%s %s (set %s)", e.Setting, msg, strings.Join(hints, " or "))
}

// ProjectFile is the YAML project configuration.
type ProjectFile struct {
	FileKey     string          `yaml:"file_key"`
	NodeIDs     []string        `yaml:"node_ids"`
	OutputDir   string          `yaml:"output_dir"`
	ExportDir   string          `yaml:"export_dir"`
	PaletteFile string          `yaml:"palette_file"`
	Palette     []palette.Entry `yaml:"palette"`
}

// LoadDotEnv loads variables from path into the process environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadProjectFile reads a YAML project file. It returns nil (no error) if the file does not exist.
func LoadProjectFile(path string) (*ProjectFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var pf ProjectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &pf, nil
}

// Load builds a Config from the environment, then fills unset values from the
// project file at projectPath (if present), then applies defaults.
func Load(projectPath string) (Config, error) {
	cfg := FromEnv()

	if projectPath == "" {
		projectPath = DefaultProjectFile
	}
	pf, err := LoadProjectFile(projectPath)
	if err != nil {
		return cfg, &ConfigError{Setting: "project file " + projectPath, Msg: "is invalid: " + err.Error()}
	}
	cfg.Merge(pf)
	cfg.applyDefaults()

	return cfg, nil
}

// FromEnv reads the environment only; unset variables stay empty.
func FromEnv() Config {
	return Config{
		ExtractToken: os.Getenv(EnvExtractToken),
		ExportToken:  os.Getenv(EnvExportToken),
		FileKey:      os.Getenv(EnvFileKey),
		NodeIDs:      SplitList(os.Getenv(EnvNodeIDs)),
		OutputDir:    os.Getenv(EnvOutputDir),
		ExportDir:    os.Getenv(EnvExportDir),
		PalettePath:  os.Getenv(EnvPalette),
		BaseURL:      os.Getenv(EnvBaseURL),
	}
}

// Merge fills settings that are still empty from the project file.
func (c *Config) Merge(pf *ProjectFile) {
	if pf == nil {
		return
	}
	if c.FileKey == "" {
		c.FileKey = pf.FileKey
	}
	if len(c.NodeIDs) == 0 {
		c.NodeIDs = pf.NodeIDs
	}
	if c.OutputDir == "" {
		c.OutputDir = pf.OutputDir
	}
	if c.ExportDir == "" {
		c.ExportDir = pf.ExportDir
	}
	if c.PalettePath == "" {
		c.PalettePath = pf.PaletteFile
	}
	if len(c.Palette) == 0 {
		c.Palette = pf.Palette
	}
}

func (c *Config) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.ExportDir == "" {
		c.ExportDir = DefaultExportDir
	}
}

// ValidateExtract checks what the card extractor needs.
func (c Config) ValidateExtract() error {
	if c.ExtractToken == "" {
		return &ConfigError{Setting: "extract access token", Env: EnvExtractToken, Flag: "token"}
	}
	if c.FileKey == "" {
		return &ConfigError{Setting: "file key", Env: EnvFileKey, Flag: "file-key"}
	}
	if len(c.NodeIDs) == 0 {
		return &ConfigError{Setting: "node IDs", Env: EnvNodeIDs, Flag: "node-ids"}
	}
	return nil
}

// ValidateExport checks what the full-file exporter needs.
func (c Config) ValidateExport() error {
	if c.ExportToken == "" {
		return &ConfigError{Setting: "export access token", Env: EnvExportToken, Flag: "token"}
	}
	if c.FileKey == "" {
		return &ConfigError{Setting: "file key", Env: EnvFileKey, Flag: "file-key"}
	}
	return nil
}

// ResolvePalette returns the palette file if one is configured, else the
// inline palette, else the built-in one.
func (c Config) ResolvePalette() (*palette.Palette, error) {
	if c.PalettePath != "" {
		p, err := palette.LoadFile(c.PalettePath)
		if err != nil {
			return nil, &ConfigError{Setting: "palette", Env: EnvPalette, Flag: "palette", Msg: "is invalid: " + err.Error()}
		}
		return p, nil
	}
	if len(c.Palette) > 0 {
		p, err := palette.New(c.Palette)
		if err != nil {
			return nil, &ConfigError{Setting: "palette", Msg: "is invalid: " + err.Error()}
		}
		return p, nil
	}
	return palette.Default(), nil
}

// SplitList splits a comma-separated list, trimming blanks and dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
