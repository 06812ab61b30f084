package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	canvasrenderer "github.com/ByLCY/telop/renderer/canvas"
)

// Config is the server configuration, usually loaded from a YAML file.
type Config struct {
	Addr    string `yaml:"addr"`
	BaseDir string `yaml:"baseDir"`
	// Fonts and Images are handed to the canvas renderer.
	Fonts      map[string]canvasrenderer.Resource `yaml:"fonts"`
	Images     map[string]canvasrenderer.Resource `yaml:"images"`
	Resolution float64                            `yaml:"resolution"`
	// Palette 在请求未携带 colorMap 时作为默认颜色表。
	Palette      map[string]string `yaml:"palette"`
	MaxBodyBytes int64             `yaml:"maxBodyBytes"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		Resolution:   1,
		MaxBodyBytes: 1 << 20,
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
// Unknown keys are rejected so typos surface at startup.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("读取配置 %s 失败: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("解析配置 %s 失败: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML config bytes on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr 不能为空")
	}
	if c.Resolution <= 0 {
		return fmt.Errorf("resolution 必须为正数，实际为 %g", c.Resolution)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("maxBodyBytes 必须为正数，实际为 %d", c.MaxBodyBytes)
	}
	return nil
}
