package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/pixkeeper/internal/flagx"
)

// loadDotEnv loads the file named by -env-file (".env" by default) into the
// process environment. Variables that are already set win; a missing file
// is not an error.
func loadDotEnv() error {
	path := flagx.EnvFileFlag()
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// parseEnv overlays PIXKEEPER_* variables. Unset variables leave the
// current value untouched.
func parseEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
