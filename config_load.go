package routegate

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv. JWT_SECRET is the name the identity
// backend uses for the same secret.
const (
	EnvSecret            = "JWT_SECRET"
	EnvSecretOverride    = "ROUTEGATE_JWT_SECRET"
	EnvPublicKey         = "ROUTEGATE_JWT_PUBLIC_KEY"
	EnvProtectedPrefixes = "ROUTEGATE_PROTECTED_PREFIXES"
	EnvLoginPath         = "ROUTEGATE_LOGIN_PATH"
	EnvProtectedHome     = "ROUTEGATE_PROTECTED_HOME"
	EnvProductionMode    = "ROUTEGATE_PRODUCTION"
)

// LoadConfigFile reads a YAML file on top of DefaultConfig. Unknown keys are
// rejected so typos do not silently drop a protected prefix.
func LoadConfigFile(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := decodeConfig(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeConfig(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	return nil
}

// ApplyEnv overlays environment values onto cfg. lookup is usually
// os.LookupEnv; tests pass a map-backed function.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(EnvSecret); ok && v != "" {
		cfg.JWT.Secret = []byte(v)
	}
	if v, ok := lookup(EnvSecretOverride); ok && v != "" {
		cfg.JWT.Secret = []byte(v)
	}
	if v, ok := lookup(EnvPublicKey); ok && v != "" {
		cfg.JWT.PublicKey = []byte(v)
		cfg.JWT.SigningMethod = "ed25519"
	}
	if v, ok := lookup(EnvProtectedPrefixes); ok && strings.TrimSpace(v) != "" {
		var prefixes []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				prefixes = append(prefixes, p)
			}
		}
		cfg.Routes.ProtectedPrefixes = prefixes
	}
	if v, ok := lookup(EnvLoginPath); ok && v != "" {
		cfg.Routes.LoginPath = v
	}
	if v, ok := lookup(EnvProtectedHome); ok && v != "" {
		cfg.Routes.ProtectedHome = v
	}
	if v, ok := lookup(EnvProductionMode); ok && v != "" {
		prod, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvProductionMode, err)
		}
		cfg.ProductionMode = prod
	}
	return nil
}
