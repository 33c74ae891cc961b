package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/agentwatch/errors"
	"github.com/grovetools/agentwatch/pkg/paths"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configFileNames lists the file names searched for, in order of preference.
var configFileNames = []string{"agentwatch.yml", "agentwatch.yaml", "agentwatch.toml"}

// Load reads and parses an agentwatch configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	cfg, err := parse(data, strings.HasSuffix(path, ".toml"))
	if err != nil {
		if agentErr, ok := err.(*errors.AgentError); ok {
			return nil, agentErr.WithDetail("path", path)
		}
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg.source = abs
	return finish(cfg, filepath.Dir(abs))
}

// LoadDefault finds and loads the configuration for the current directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to get current directory")
	}
	return LoadFrom(cwd)
}

// LoadFrom loads the nearest configuration file above startDir. When no file
// exists the defaults are returned, rooted at startDir.
func LoadFrom(startDir string) (*Config, error) {
	return LoadFromWithLogger(startDir, logrus.New())
}

// LoadFromWithLogger is LoadFrom with debug output about the file chosen.
func LoadFromWithLogger(startDir string, logger *logrus.Logger) (*Config, error) {
	path, err := FindConfigFile(startDir)
	if err != nil {
		logger.WithField("dir", startDir).Debug("No configuration file found, using defaults")
		cfg := &Config{}
		return finish(cfg, startDir)
	}

	logger.WithField("path", path).Debug("Loading configuration")
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		if data, err := yaml.Marshal(cfg); err == nil {
			logger.Debugf("Effective configuration:\n%s", string(data))
		}
	}
	return cfg, nil
}

// LoadFromBytes parses YAML configuration from a byte array. Relative paths
// resolve against the current directory.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg, err := parse(data, false)
	if err != nil {
		return nil, err
	}
	cwd, _ := os.Getwd()
	return finish(cfg, cwd)
}

// parse decodes YAML or TOML after expanding ${VAR} references and checks
// the result against the embedded JSON schema.
func parse(data []byte, isTOML bool) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	var cfg Config
	if isTOML {
		if err := decodeTOML(expanded, &cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
	} else if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}

	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to create validator")
	}
	if err := validator.Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
	}
	return &cfg, nil
}

// decodeTOML decodes a TOML document. go-toml has no inline-map support, so
// the known sections go through mapstructure and the rest become extensions.
func decodeTOML(data []byte, cfg *Config) error {
	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return err
	}

	known := make(map[string]interface{}, len(knownKeys))
	for _, key := range knownKeys {
		if v, ok := raw[key]; ok {
			known[key] = v
			delete(raw, key)
		}
	}

	decoder, err := newDecoder(cfg)
	if err != nil {
		return err
	}
	if err := decoder.Decode(known); err != nil {
		return err
	}
	if len(raw) > 0 {
		cfg.Extensions = raw
	}
	return nil
}

func finish(cfg *Config, baseDir string) (*Config, error) {
	cfg.SetDefaults(baseDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches for an agentwatch configuration file:
// 1. startDir and each parent up to the filesystem root
// 2. the XDG config directory (~/.config/agentwatch/)
func FindConfigFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		dir = startDir
	}

	for {
		for _, name := range configFileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if xdgDir := paths.ConfigDir(); xdgDir != "" {
		for _, name := range configFileNames {
			candidate := filepath.Join(xdgDir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	return "", errors.ConfigNotFound(startDir)
}

// expandEnvVars replaces ${VAR} with the environment value. Unset variables
// are left as written so the mistake is visible.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		name := envVarRegex.FindStringSubmatch(match)[1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}
