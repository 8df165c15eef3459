package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Render encodes cfg in the file format Load reads.
func Render(cfg Config) ([]byte, error) {
	out, err := toml.Marshal(fileFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return out, nil
}

// WriteTemplate writes the sample configuration to path.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	data, err := Render(SampleConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
