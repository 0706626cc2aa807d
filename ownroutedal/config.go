package ownroutedal

import (
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"gopkg.in/yaml.v3"
)

const (
	DefaultNominatimURL       = "https://nominatim.openstreetmap.org"
	DefaultNominatimUserAgent = "ownroute-app"
	DefaultOverpassURL        = "https://overpass-api.de/api/interpreter"
)

type NominatimConfig struct {
	URL       string        `yaml:"url"`
	UserAgent string        `yaml:"user-agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

type OverpassConfig struct {
	URL         string        `yaml:"url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxParallel int           `yaml:"max-parallel"`
}

// Config is the optional YAML configuration file. Unset values are filled in by ApplyDefaults.
type Config struct {
	// Caches are cache connection strings (see ParseCacheConnString), consulted in order
	Caches                []string        `yaml:"caches"`
	Nominatim             NominatimConfig `yaml:"nominatim"`
	Overpass              OverpassConfig  `yaml:"overpass"`
	MaxConcurrentRoutes   uint            `yaml:"max-concurrent-routes"`
	FetchQueueTimeout     time.Duration   `yaml:"fetch-queue-timeout"`
	ImportRequiredTagKeys []string        `yaml:"import-required-tag-keys"`
}

func DefaultConfig() *Config {
	config := &Config{}
	config.ApplyDefaults()
	return config
}

func (c *Config) ApplyDefaults() {
	if c.Nominatim.URL == "" {
		c.Nominatim.URL = DefaultNominatimURL
	}
	if c.Nominatim.UserAgent == "" {
		c.Nominatim.UserAgent = DefaultNominatimUserAgent
	}
	if c.Nominatim.Timeout == 0 {
		c.Nominatim.Timeout = 30 * time.Second
	}
	if c.Overpass.URL == "" {
		c.Overpass.URL = DefaultOverpassURL
	}
	if c.Overpass.Timeout == 0 {
		c.Overpass.Timeout = 60 * time.Second
	}
	if c.Overpass.MaxParallel == 0 {
		c.Overpass.MaxParallel = 2
	}
	if c.MaxConcurrentRoutes == 0 {
		c.MaxConcurrentRoutes = 4
	}
	if c.FetchQueueTimeout == 0 {
		c.FetchQueueTimeout = 5 * time.Minute
	}
	if len(c.ImportRequiredTagKeys) == 0 {
		c.ImportRequiredTagKeys = DefaultImportOptions().RequiredTagKeys
	}
}

func (c *Config) Validate() errorsx.Error {
	for _, connString := range c.Caches {
		_, err := ParseCacheConnString(connString)
		if err != nil {
			return errorsx.Wrap(err, "cache", connString)
		}
	}

	if c.Overpass.MaxParallel < 0 {
		return errorsx.Errorf("overpass max-parallel must not be negative, got %d", c.Overpass.MaxParallel)
	}

	return nil
}

func ParseConfig(data []byte) (*Config, errorsx.Error) {
	config := new(Config)
	err := yaml.Unmarshal(data, config)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	config.ApplyDefaults()

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return config, nil
}

func ReadConfigFile(fs gofs.Fs, filePath string) (*Config, errorsx.Error) {
	data, err := fs.ReadFile(filePath)
	if err != nil {
		return nil, errorsx.Wrap(err, "filePath", filePath)
	}

	config, parseErr := ParseConfig(data)
	if parseErr != nil {
		return nil, errorsx.Wrap(parseErr, "filePath", filePath)
	}

	return config, nil
}
