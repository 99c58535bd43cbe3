package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "HANSARDCLEAN_"

// Env returns the HANSARDCLEAN_* variables from the given dotenv files with
// the process environment laid over them. Missing files are skipped.
func Env(files ...string) (map[string]string, error) {
	env := make(map[string]string)
	for _, f := range files {
		vars, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		for k, v := range vars {
			if strings.HasPrefix(k, EnvPrefix) {
				env[k] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

// ApplyEnv overrides cfg with values from env (see Env). Empty values are ignored.
func ApplyEnv(cfg *Config, env map[string]string) error {
	strs := map[string]*string{
		"INPUT_DIR":  &cfg.Input.Directory,
		"OUTPUT_DIR": &cfg.Output.Directory,
		"DB_PATH":    &cfg.Storage.DatabasePath,
		"HOST":       &cfg.Server.Host,
	}
	for key, dst := range strs {
		if v := env[EnvPrefix+key]; v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"DEBUG":                &cfg.Debug,
		"LEDGER_DISABLED":      &cfg.Storage.Disabled,
		"REPLACE_INVALID_UTF8": &cfg.Input.ReplaceInvalidUTF8,
	}
	for key, dst := range bools {
		v := env[EnvPrefix+key]
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
		}
		*dst = b
	}

	if v := env[EnvPrefix+"PORT"]; v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %sPORT %q", EnvPrefix, v)
		}
		cfg.Server.Port = port
	}
	return nil
}
