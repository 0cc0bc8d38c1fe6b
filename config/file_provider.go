package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileProvider implements Provider using a TOML file.
// Tables are flattened into upper-case keys joined by underscores, so
//
//	[layout]
//	node_width = 200
//
// is read as LAYOUT_NODE_WIDTH. Keys missing from the file are looked up in
// the fallback provider when one is set.
type FileProvider struct {
	values   map[string]string
	fallback Provider
}

// NewFileProvider loads path and returns a provider that falls back to fallback
func NewFileProvider(path string, fallback Provider) (*FileProvider, error) {
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	values := make(map[string]string)
	flatten("", raw, values)

	return &FileProvider{
		values:   values,
		fallback: fallback,
	}, nil
}

func flatten(prefix string, raw map[string]interface{}, out map[string]string) {
	for key, value := range raw {
		name := strings.ToUpper(key)
		if prefix != "" {
			name = prefix + "_" + name
		}
		switch v := value.(type) {
		case map[string]interface{}:
			flatten(name, v, out)
		default:
			out[name] = fmt.Sprint(v)
		}
	}
}

// GetEnvironment returns APP_ENV from the file, then the fallback environment, then Development
func (p *FileProvider) GetEnvironment() Environment {
	if env, ok := p.values["APP_ENV"]; ok {
		return Environment(env)
	}
	if p.fallback != nil {
		return p.fallback.GetEnvironment()
	}
	return Development
}

// GetString retrieves a string configuration value
func (p *FileProvider) GetString(ctx context.Context, key string) (string, error) {
	if value, ok := p.values[strings.ToUpper(key)]; ok {
		return value, nil
	}
	if p.fallback != nil {
		return p.fallback.GetString(ctx, key)
	}
	return "", fmt.Errorf("config key %s: %w", key, ErrNotSet)
}

// GetInt retrieves an integer configuration value
func (p *FileProvider) GetInt(ctx context.Context, key string) (int, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// GetBool retrieves a boolean configuration value
func (p *FileProvider) GetBool(ctx context.Context, key string) (bool, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(value)
}

// GetFloat retrieves a floating point configuration value
func (p *FileProvider) GetFloat(ctx context.Context, key string) (float64, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(value, 64)
}

// GetSecret retrieves a secret value
func (p *FileProvider) GetSecret(ctx context.Context, key string) (string, error) {
	if value, ok := p.values[strings.ToUpper(key)]; ok {
		return value, nil
	}
	if p.fallback != nil {
		return p.fallback.GetSecret(ctx, key)
	}
	return "", fmt.Errorf("secret %s: %w", key, ErrNotSet)
}
