package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type LoggingCfg struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type ElasticsearchCfg struct {
	URL           string `mapstructure:"url"`
	Index         string `mapstructure:"index"`
	ECS           bool   `mapstructure:"ecs"`
	NoIndexSuffix bool   `mapstructure:"no_index_suffix"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
}

type SQLiteCfg struct {
	Filename string `mapstructure:"filename"`
}

type DatabaseCfg struct {
	Type          string           `mapstructure:"type"`
	Elasticsearch ElasticsearchCfg `mapstructure:"elasticsearch"`
	SQLite        SQLiteCfg        `mapstructure:"sqlite"`
}

type Config struct {
	Database DatabaseCfg `mapstructure:"database"`
	Logging  LoggingCfg  `mapstructure:"logging"`
}

var cfg *Config

// Load populates global config from a viper instance
func Load(v *viper.Viper) error {
	// set defaults
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.elasticsearch.url", "http://localhost:9200")
	v.SetDefault("database.elasticsearch.index", "logstash")
	v.SetDefault("database.sqlite.filename", "events.sqlite")
	v.SetDefault("logging.level", "info")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	cfg = &c
	return nil
}

func Get() *Config {
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg
}
