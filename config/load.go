package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Load reads the application config from the given yaml file, with environment
// variables taking precedence. A missing file is not an error: the service can
// run entirely on env vars and defaults.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, err
			}
			cfg.ApplyDefaults()
			return cfg, nil
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
