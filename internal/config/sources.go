package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	envFileKey     = "ASKDB_ENV_FILE"
	configFileKey  = "ASKDB_CONFIG_FILE"
	defaultEnvFile = ".env"
)

// ChainLookup returns the first value found, in argument order.
func ChainLookup(lookups ...LookupFunc) LookupFunc {
	return func(key string) (string, bool) {
		for _, lookup := range lookups {
			if lookup == nil {
				continue
			}
			if value, ok := lookup(key); ok {
				return value, true
			}
		}
		return "", false
	}
}

func MapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

// DotEnvLookup reads a dotenv file. A missing file yields an empty lookup.
func DotEnvLookup(path string) (LookupFunc, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return MapLookup(nil), nil
		}
		return nil, fmt.Errorf("read env file %q: %w", path, err)
	}
	return MapLookup(values), nil
}

// YAMLLookup reads a flat KEY: value document. Scalars keep their source
// text, so an unquoted 012345 stays "012345" rather than becoming a number.
func YAMLLookup(path string) (LookupFunc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode config file %q: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return MapLookup(nil), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config file %q: top level must be a mapping", path)
	}
	values := make(map[string]string, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if value.Kind == yaml.AliasNode && value.Alias != nil {
			value = value.Alias
		}
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("config file %q: key %s must be a scalar", path, key.Value)
		}
		if value.Tag == "!!null" {
			values[key.Value] = ""
			continue
		}
		values[key.Value] = value.Value
	}
	return MapLookup(values), nil
}

// LayeredLookup resolves keys from the process environment, then the dotenv
// file, then the YAML file named by ASKDB_CONFIG_FILE.
func LayeredLookup(env LookupFunc) (LookupFunc, error) {
	if env == nil {
		env = os.LookupEnv
	}

	envFile := defaultEnvFile
	if value, ok := env(envFileKey); ok && strings.TrimSpace(value) != "" {
		envFile = strings.TrimSpace(value)
	}
	dotenv, err := DotEnvLookup(envFile)
	if err != nil {
		return nil, err
	}
	lookup := ChainLookup(env, dotenv)

	configFile, ok := lookup(configFileKey)
	if !ok || strings.TrimSpace(configFile) == "" {
		return lookup, nil
	}
	fromYAML, err := YAMLLookup(strings.TrimSpace(configFile))
	if err != nil {
		return nil, err
	}
	return ChainLookup(env, dotenv, fromYAML), nil
}
