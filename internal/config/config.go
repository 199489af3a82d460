package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL     = "http://127.0.0.1:8095"
	DefaultPort       = 8095
	DefaultDBFileName = ".cadenza.db"
	DefaultLogLevel   = "info"

	DefaultMediaMaxUploadBytes     int64 = 100 * 1024 * 1024
	DefaultMediaMultipartMaxMemory int64 = 8 * 1024 * 1024

	configFileName  = ".cadenza.toml"
	configDirEnvKey = "CADENZA_CONFIG_DIR"
	apiURLEnvKey    = "CADENZA_API_URL"
	dbPathEnvKey    = "CADENZA_DB"
	mediaRootEnvKey = "CADENZA_MEDIA_ROOT"
)

// MediaConfig defines runtime configuration for media storage and uploads.
type MediaConfig struct {
	// Root is the blob storage directory. Defaults to a .cadenza/media
	// directory next to the database file.
	Root string `toml:"root"`
	// BaseURL is the deployment base address embedded into persisted media
	// locators. Defaults to the API URL.
	BaseURL            string `toml:"base_url"`
	MaxUploadBytes     int64  `toml:"max_upload_bytes"`
	MultipartMaxMemory int64  `toml:"multipart_max_memory"`
}

// Config defines runtime configuration for cadenza.
type Config struct {
	APIURL       string      `toml:"api_url"`
	Port         int         `toml:"port"`
	DBPath       string      `toml:"db_path"`
	LogLevel     string      `toml:"log_level"`
	APITokenHash string      `toml:"api_token_hash"`
	Media        MediaConfig `toml:"media"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		Port:     DefaultPort,
		DBPath:   "",
		LogLevel: DefaultLogLevel,
		Media: MediaConfig{
			MaxUploadBytes:     DefaultMediaMaxUploadBytes,
			MultipartMaxMemory: DefaultMediaMultipartMaxMemory,
		},
	}
}

// Load reads config from the home (or override) config file and applies env
// overrides and derived defaults.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
			return nil, err
		}
	}

	if apiURL := strings.TrimSpace(os.Getenv(apiURLEnvKey)); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if dbPath := strings.TrimSpace(os.Getenv(dbPathEnvKey)); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if mediaRoot := strings.TrimSpace(os.Getenv(mediaRootEnvKey)); mediaRoot != "" {
		cfg.Media.Root = mediaRoot
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}

	cfg.normalizeDefaults()

	return &cfg, nil
}

func (c *Config) normalizeDefaults() {
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Media.MaxUploadBytes <= 0 {
		c.Media.MaxUploadBytes = DefaultMediaMaxUploadBytes
	}
	if c.Media.MultipartMaxMemory <= 0 {
		c.Media.MultipartMaxMemory = DefaultMediaMultipartMaxMemory
	}
	if strings.TrimSpace(c.Media.Root) == "" && c.DBPath != "" {
		c.Media.Root = filepath.Join(filepath.Dir(c.DBPath), ".cadenza", "media")
	}
	if strings.TrimSpace(c.Media.BaseURL) == "" {
		c.Media.BaseURL = c.APIURL
	}
}

func loadFile(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

// GlobalPath returns the path of the config file Load would read.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

var allowedKeys = []string{
	"api_url",
	"port",
	"db_path",
	"log_level",
	"api_token_hash",
	"media.root",
	"media.base_url",
	"media.max_upload_bytes",
	"media.multipart_max_memory",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "port":
		return strconv.Itoa(c.Port), nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "api_token_hash":
		return c.APITokenHash, nil
	case "media.root":
		return c.Media.Root, nil
	case "media.base_url":
		return c.Media.BaseURL, nil
	case "media.max_upload_bytes":
		return strconv.FormatInt(c.Media.MaxUploadBytes, 10), nil
	case "media.multipart_max_memory":
		return strconv.FormatInt(c.Media.MultipartMaxMemory, 10), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	parsed, err := parseSetValue(key, value)
	if err != nil {
		return err
	}

	data := make(map[string]any)
	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if section, field, ok := strings.Cut(key, "."); ok {
		sub, _ := data[section].(map[string]any)
		if sub == nil {
			sub = make(map[string]any)
		}
		sub[field] = parsed
		data[section] = sub
	} else {
		data[key] = parsed
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "port":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 || parsed > 65535 {
			return nil, fmt.Errorf("port must be a valid TCP port")
		}
		return parsed, nil
	case "media.max_upload_bytes", "media.multipart_max_memory":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	default:
		return value, nil
	}
}
