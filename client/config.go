package client

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/cajal-labs/mosaic/cache"
	"github.com/cajal-labs/mosaic/mosaic"
)

// Config aggregates every setting a mosaic client needs, loaded from one
// TOML file:
//
//	[server]
//	address = "pixels.example.org:8002"
//
//	[logging]
//	logfile = "mosaic.log"
//	max_log_size = 500  # MB
//	max_log_age = 30    # days
//
//	[cache]
//	ram_size = 1073741824
//	path = "tilecache"
//
//	[kafka]
//	servers = ["kafka1:9092"]
type Config struct {
	Server  ServerConfig
	Logging mosaic.LogConfig
	Cache   cache.Config
	Kafka   KafkaConfig
}

// ServerConfig locates the remote pixel server.
type ServerConfig struct {
	Address string
}

// LoadConfig reads a TOML config file.  Relative paths in the file are
// converted to absolute paths against the file's own directory.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("no server configuration file specified")
	}
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if c.Server.Address == "" {
		return nil, fmt.Errorf("config %q has no [server] address", path)
	}
	if err := c.convertPathsToAbsolute(path); err != nil {
		return nil, err
	}
	return &c, nil
}

// Some settings in the TOML can be given as relative paths.  This function
// converts them in-place to absolute paths, assuming the given paths were
// relative to the TOML file's own directory.
func (c *Config) convertPathsToAbsolute(configPath string) error {
	var err error
	configDir := filepath.Dir(configPath)

	// [logging].logfile
	if c.Logging.Logfile != "" {
		c.Logging.Logfile, err = mosaic.ConvertToAbsolute(c.Logging.Logfile, configDir)
		if err != nil {
			return fmt.Errorf("error converting logfile setting to absolute path: %v", err)
		}
	}

	// [cache].path
	if c.Cache.Path != "" {
		c.Cache.Path, err = mosaic.ConvertToAbsolute(c.Cache.Path, configDir)
		if err != nil {
			return fmt.Errorf("error converting cache path setting to absolute path: %v", err)
		}
	}
	return nil
}
