package main

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/botkit/core/config"
	coredatabase "github.com/m3rciful/botkit/core/database"
	"github.com/m3rciful/botkit/plugins/feedwatch"
)

// appConfig extends the core configuration with plugin settings.
type appConfig struct {
	Core coreconfig.Config `yaml:",inline"`

	// Database is optional; without it the request history is disabled.
	Database *coredatabase.Config `yaml:"database"`

	Radarr struct {
		URL              string `yaml:"url" envconfig:"RADARR_URL"`
		APIKey           string `yaml:"api_key" envconfig:"RADARR_API_KEY"`
		QualityProfileID int    `yaml:"quality_profile_id" envconfig:"RADARR_QUALITY_PROFILE_ID"`
		RootFolder       string `yaml:"root_folder" envconfig:"RADARR_ROOT_FOLDER"`
	} `yaml:"radarr"`

	Feeds struct {
		ChatID int64            `yaml:"chat_id" envconfig:"FEEDS_CHAT_ID"`
		Items  []feedwatch.Feed `yaml:"items"`
	} `yaml:"feeds"`
}

// CoreConfig satisfies cmd.ConfigCarrier.
func (c *appConfig) CoreConfig() *coreconfig.Config {
	return &c.Core
}

func loadConfig(path string) (*appConfig, error) {
	var cfg appConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}
	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	return &cfg, nil
}
