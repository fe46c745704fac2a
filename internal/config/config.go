// Package config loads melodyd's configuration via viper, layering
// MELODYD_*-prefixed environment variables over a YAML file over
// built-in defaults, the same layering the teacher's config package
// used for AMP_*.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/soundwell/melodyd/internal/platform"
)

// Config is melodyd's full runtime configuration.
type Config struct {
	Debug bool `mapstructure:"debug"`

	Audio struct {
		SampleRate int `mapstructure:"sample_rate"`
		Channels   int `mapstructure:"channels"`
		BitDepth   int `mapstructure:"bit_depth"`
	} `mapstructure:"audio"`

	Decoder struct {
		BufferChunks int `mapstructure:"buffer_chunks"`
	} `mapstructure:"decoder"`

	Stream struct {
		RequestsPerSecond float64 `mapstructure:"requests_per_second"`
		BurstSize         int     `mapstructure:"burst_size"`
	} `mapstructure:"stream"`

	Storage struct {
		DatabasePath string `mapstructure:"database_path"`
		PlaylistDir  string `mapstructure:"playlist_dir"`
		EnableWAL    bool   `mapstructure:"enable_wal"`
	} `mapstructure:"storage"`

	ReplayGain struct {
		ConfigPath string `mapstructure:"config_path"`
	} `mapstructure:"replay_gain"`

	TagTable struct {
		AliasPath string `mapstructure:"alias_path"`
	} `mapstructure:"tag_table"`
}

// Load reads melodyd's configuration from configPath if given, or from
// the platform config directory / ./configs / . otherwise, layering
// defaults, file, and MELODYD_* environment overrides. A config file
// that does not exist is not an error: the defaults apply.
func Load(configPath string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		configDir, err := platform.GetConfigDir()
		if err != nil {
			return nil, err
		}
		viper.AddConfigPath(configDir)
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("MELODYD")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := ensureDirectories(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("debug", false)

	viper.SetDefault("audio.sample_rate", 44100)
	viper.SetDefault("audio.channels", 2)
	viper.SetDefault("audio.bit_depth", 16)

	viper.SetDefault("decoder.buffer_chunks", 64)

	viper.SetDefault("stream.requests_per_second", 4.0)
	viper.SetDefault("stream.burst_size", 4)

	dataDir, _ := platform.GetDataDir()

	viper.SetDefault("storage.database_path", filepath.Join(dataDir, "catalog.db"))
	viper.SetDefault("storage.playlist_dir", filepath.Join(dataDir, "playlists"))
	viper.SetDefault("storage.enable_wal", true)

	configDir, _ := platform.GetConfigDir()
	viper.SetDefault("replay_gain.config_path", filepath.Join(configDir, "replaygain.yaml"))
	viper.SetDefault("tag_table.alias_path", filepath.Join(configDir, "tag_aliases.yaml"))
}

func ensureDirectories(cfg *Config) error {
	dirs := []string{
		filepath.Dir(cfg.Storage.DatabasePath),
		cfg.Storage.PlaylistDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

// Save persists the current viper state (including any runtime
// overrides written via viper.Set) back to the platform config
// directory.
func (c *Config) Save() error {
	configDir, err := platform.GetConfigDir()
	if err != nil {
		return err
	}

	configFile := filepath.Join(configDir, "config.yaml")
	return viper.WriteConfigAs(configFile)
}
