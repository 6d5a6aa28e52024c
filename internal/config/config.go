package config

import (
	"time"

	"github.com/spf13/viper"
)

type AppConf struct {
	Env            string `mapstructure:"env"`
	Port           int    `mapstructure:"port"`
	BaseURL        string `mapstructure:"base_url"`
	ShutdownSecond int    `mapstructure:"shutdown_seconds"`
}

type RedisConf struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AWSConf struct {
	Region   string `mapstructure:"region"`
	Bucket   string `mapstructure:"bucket"`
	Endpoint string `mapstructure:"endpoint"`
}

type OgpConf struct {
	Prerender      bool   `mapstructure:"prerender"`
	MetadataTTLSec int    `mapstructure:"metadata_ttl_seconds"`
	FontURL        string `mapstructure:"font_url"`
}

type JWTConf struct {
	PublicKeyPath string `mapstructure:"public_key_path"`
}

type Config struct {
	App   AppConf   `mapstructure:"app"`
	Redis RedisConf `mapstructure:"redis"`
	AWS   AWSConf   `mapstructure:"aws"`
	Ogp   OgpConf   `mapstructure:"ogp"`
	JWT   JWTConf   `mapstructure:"jwt"`
	Log   struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	// derived
	ShutdownTimeout time.Duration
	MetadataTTL     time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.App.Port == 0 {
		cfg.App.Port = 8080
	}
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = "http://localhost:8080"
	}
	if cfg.App.ShutdownSecond == 0 {
		cfg.App.ShutdownSecond = 15
	}
	if cfg.Ogp.MetadataTTLSec == 0 {
		cfg.Ogp.MetadataTTLSec = 31536000 // 1 year
	}
	cfg.ShutdownTimeout = time.Duration(cfg.App.ShutdownSecond) * time.Second
	cfg.MetadataTTL = time.Duration(cfg.Ogp.MetadataTTLSec) * time.Second
	return &cfg, nil
}
