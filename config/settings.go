package config

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// decodeOrSeed decodes the TOML file at path into dst. When the file does
// not exist yet it is written from template and dst keeps its defaults.
func decodeOrSeed(path string, dst any, template string) error {
	if !FileExists(path) {
		if err := writePrivate(path, []byte(template)); err != nil {
			return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
		}
		return nil
	}
	if _, err := toml.DecodeFile(path, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadSystemConfig reads ~/.config/mcpchat/settings.toml, which only says
// where the data directory lives.
func LoadSystemConfig() (*SystemConfig, error) {
	cfg := DefaultSystemConfig()
	if err := decodeOrSeed(settingsPath(), cfg, GenerateSystemConfigTemplate()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUserConfig reads config.toml from the data directory.
func LoadUserConfig(dataDir string) (*UserConfig, error) {
	cfg := DefaultUserConfig()
	if err := decodeOrSeed(userConfigPath(dataDir), cfg, GenerateUserConfigTemplate()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveUserConfig rewrites config.toml. Comments from the template are lost.
// The file is only touched once encoding succeeded.
func SaveUserConfig(cfg *UserConfig, dataDir string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode user config: %w", err)
	}
	if err := writePrivate(userConfigPath(dataDir), buf.Bytes()); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}
	return nil
}
