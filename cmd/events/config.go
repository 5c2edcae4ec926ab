package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lomoval/eventregistry/internal/console"
	"github.com/lomoval/eventregistry/internal/logger"
	"github.com/lomoval/eventregistry/internal/rabbit"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envConfigPrefix = "$env:"

type StorageConfig struct {
	EventsFile string
	UserFile   string
}

type NotifierConfig struct {
	Type   string
	Window time.Duration
}

type Config struct {
	Logger   logger.Config
	Storage  StorageConfig
	Notifier NotifierConfig
	Rabbit   rabbit.Config
	Console  console.Config
}

// NewConfig reads the config file. A missing file is created with the default values.
// A value like "$env:NAME" is taken from the NAME environment variable.
func NewConfig(configFile string) (Config, error) {
	config := Config{}
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	v.SetDefault("logger.level", "WARN")
	v.SetDefault("logger.format", "text")
	v.SetDefault("storage.eventsFile", "events.data")
	v.SetDefault("storage.userFile", "current_user.data")
	v.SetDefault("notifier.type", "console")
	v.SetDefault("notifier.window", "60m")
	v.SetDefault("rabbit.host", "127.0.0.1")
	v.SetDefault("rabbit.port", "5672")
	v.SetDefault("rabbit.user", "guest")
	v.SetDefault("rabbit.password", "guest")
	v.SetDefault("rabbit.queue", "events.notify")
	v.SetDefault("console.exportFile", "events.ics")

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		if err := writeDefaultConfig(configFile, v.AllSettings()); err != nil {
			return config, fmt.Errorf("failed to create default config %q: %w", configFile, err)
		}
	}

	err := v.ReadInConfig()
	if err != nil {
		return config, fmt.Errorf("failed to read config %q: %w", configFile, err)
	}
	keys := v.AllKeys()
	for _, key := range keys {
		env := v.GetString(key)
		if strings.HasPrefix(env, envConfigPrefix) {
			err := v.BindEnv(key, env[len(envConfigPrefix):])
			if err != nil {
				return Config{}, fmt.Errorf("failed to prepare config: %w", err)
			}
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return config, nil
}

func writeDefaultConfig(configFile string, settings map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	return os.WriteFile(configFile, data, 0o600)
}
